// Package watch folds inbound exchange push messages into client-side
// snapshots. Each reconciler is a pure function: structurally invalid input
// returns the previous snapshot unchanged, never an error, so a single
// malformed push cannot crash a long-lived watch.
package watch

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/kmandrev/bybit-cli/internal/models"
)

// terminalOrderStatuses are statuses after which no further updates for an
// order are expected; reaching one evicts the order from the snapshot.
var terminalOrderStatuses = map[string]struct{}{
	"Filled":      {},
	"Cancelled":   {},
	"Rejected":    {},
	"Deactivated": {},
}

// Decode unmarshals a raw push payload into a generic JSON value suitable
// for the reconcilers. Undecodable payloads yield nil, which every
// reconciler treats as invalid.
func Decode(data []byte) interface{} {
	var v interface{}
	if err := jsoniter.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

// ReconcileWallet replaces the wallet snapshot with the flattened coin rows
// of the inbound payload.
func ReconcileWallet(raw interface{}, prev []models.WalletBalance) []models.WalletBalance {
	accounts, ok := raw.([]interface{})
	if !ok {
		return prev
	}

	balances := make([]models.WalletBalance, 0, len(accounts))
	for _, entry := range accounts {
		account, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		coins, ok := account["coin"].([]interface{})
		if !ok {
			continue
		}
		for _, c := range coins {
			coin, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			balances = append(balances, models.WalletBalance{
				Coin:                stringField(coin, "coin", ""),
				Equity:              stringField(coin, "equity", "0"),
				AvailableToWithdraw: stringField(coin, "availableToWithdraw", "0"),
				UnrealisedPnl:       stringField(coin, "unrealisedPnl", "0"),
			})
		}
	}
	return balances
}

// ReconcilePositions replaces the position snapshot, dropping entries with a
// zero or empty size. The zero check compares the literal strings "0" and ""
// on purpose: exchange payloads use variable decimal formatting that numeric
// parsing could mis-round.
func ReconcilePositions(raw interface{}, prev []models.PositionInfo) []models.PositionInfo {
	entries, ok := raw.([]interface{})
	if !ok {
		return prev
	}

	positions := make([]models.PositionInfo, 0, len(entries))
	for _, entry := range entries {
		p, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		size, ok := p["size"].(string)
		if !ok || size == "0" || size == "" {
			continue
		}
		positions = append(positions, models.PositionInfo{
			Symbol:        stringField(p, "symbol", ""),
			Side:          stringField(p, "side", ""),
			Size:          size,
			EntryPrice:    stringField(p, "avgPrice", "0"),
			MarkPrice:     stringField(p, "markPrice", "0"),
			UnrealisedPnl: stringField(p, "unrealisedPnl", "0"),
			Leverage:      stringField(p, "leverage", "0"),
		})
	}
	return positions
}

// ReconcileOrders upserts incoming orders by id into the previous snapshot,
// then evicts orders whose status is terminal. Eviction is one-way: a later
// update cannot resurrect an evicted id because the snapshot no longer
// carries it and terminal statuses are dropped on arrival.
func ReconcileOrders(raw interface{}, prev []models.OrderInfo) []models.OrderInfo {
	entries, ok := raw.([]interface{})
	if !ok {
		return prev
	}

	incoming := make([]models.OrderInfo, 0, len(entries))
	for _, entry := range entries {
		o, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		incoming = append(incoming, models.OrderInfo{
			OrderID:     stringField(o, "orderId", ""),
			Symbol:      stringField(o, "symbol", ""),
			Side:        stringField(o, "side", ""),
			OrderType:   stringField(o, "orderType", ""),
			Price:       stringField(o, "price", ""),
			Qty:         stringField(o, "qty", "0"),
			OrderStatus: stringField(o, "orderStatus", ""),
			CreatedTime: stringField(o, "createdTime", ""),
		})
	}

	updated := make(map[string]struct{}, len(incoming))
	for _, o := range incoming {
		updated[o.OrderID] = struct{}{}
	}

	merged := make([]models.OrderInfo, 0, len(prev)+len(incoming))
	for _, o := range prev {
		if _, ok := updated[o.OrderID]; !ok {
			merged = append(merged, o)
		}
	}
	merged = append(merged, incoming...)

	next := make([]models.OrderInfo, 0, len(merged))
	for _, o := range merged {
		if _, terminal := terminalOrderStatuses[o.OrderStatus]; !terminal {
			next = append(next, o)
		}
	}
	return next
}

// ReconcileTicker patches the ticker snapshot field by field: only fields
// present as strings in the payload overwrite the previous value.
func ReconcileTicker(raw interface{}, prev models.PriceInfo) models.PriceInfo {
	data, ok := raw.(map[string]interface{})
	if !ok {
		return prev
	}

	return models.PriceInfo{
		Symbol:       stringField(data, "symbol", prev.Symbol),
		LastPrice:    stringField(data, "lastPrice", prev.LastPrice),
		IndexPrice:   stringField(data, "indexPrice", prev.IndexPrice),
		MarkPrice:    stringField(data, "markPrice", prev.MarkPrice),
		Price24hPcnt: stringField(data, "price24hPcnt", prev.Price24hPcnt),
	}
}

// ReconcileOrderbook replaces both book sides wholesale. A payload whose two
// parsed sides are both empty is treated as invalid and ignored; an
// explicitly empty side alongside a non-empty one clears that side.
func ReconcileOrderbook(raw interface{}, prev models.Orderbook) models.Orderbook {
	data, ok := raw.(map[string]interface{})
	if !ok {
		return prev
	}

	bids := parseBookLevels(data["b"])
	asks := parseBookLevels(data["a"])

	if len(bids) == 0 && len(asks) == 0 {
		return prev
	}

	return models.Orderbook{Bids: bids, Asks: asks}
}

func parseBookLevels(raw interface{}) []models.BookLevel {
	entries, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	levels := make([]models.BookLevel, 0, len(entries))
	for _, entry := range entries {
		pair, ok := entry.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		price, priceOK := pair[0].(string)
		size, sizeOK := pair[1].(string)
		if !priceOK || !sizeOK {
			continue
		}
		levels = append(levels, models.BookLevel{Price: price, Size: size})
	}
	return levels
}

func stringField(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}
