package watch

import (
	"reflect"
	"testing"

	"github.com/kmandrev/bybit-cli/internal/models"
)

func raw(t *testing.T, payload string) interface{} {
	t.Helper()
	v := Decode([]byte(payload))
	if v == nil {
		t.Fatalf("failed to decode test payload: %s", payload)
	}
	return v
}

func TestReconcileWalletReplacesSnapshot(t *testing.T) {
	prev := []models.WalletBalance{{Coin: "ETH", Equity: "2"}}

	payload := raw(t, `[
		{"accountType": "UNIFIED", "coin": [
			{"coin": "BTC", "equity": "1.5", "availableToWithdraw": "1.0", "unrealisedPnl": "0.1"},
			{"coin": "USDT", "equity": "5000", "availableToWithdraw": "4000", "unrealisedPnl": "0"}
		]}
	]`)

	got := ReconcileWallet(payload, prev)

	want := []models.WalletBalance{
		{Coin: "BTC", Equity: "1.5", AvailableToWithdraw: "1.0", UnrealisedPnl: "0.1"},
		{Coin: "USDT", Equity: "5000", AvailableToWithdraw: "4000", UnrealisedPnl: "0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReconcileWallet = %+v, want %+v", got, want)
	}
}

func TestReconcileWalletMissingFieldsDefault(t *testing.T) {
	payload := raw(t, `[{"coin": [{"coin": "BTC"}]}]`)

	got := ReconcileWallet(payload, nil)

	want := []models.WalletBalance{
		{Coin: "BTC", Equity: "0", AvailableToWithdraw: "0", UnrealisedPnl: "0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReconcileWallet = %+v, want %+v", got, want)
	}
}

func TestReconcilePositionsFiltersZeroSize(t *testing.T) {
	payload := raw(t, `[
		{"symbol": "BTCUSDT", "side": "Buy", "size": "1.5", "avgPrice": "84000", "markPrice": "85000", "unrealisedPnl": "1500", "leverage": "10"},
		{"symbol": "ETHUSDT", "side": "Sell", "size": "0", "avgPrice": "3000", "markPrice": "2900", "unrealisedPnl": "0", "leverage": "5"}
	]`)

	got := ReconcilePositions(payload, nil)

	if len(got) != 1 {
		t.Fatalf("ReconcilePositions returned %d entries, want 1", len(got))
	}
	if got[0].Symbol != "BTCUSDT" || got[0].Size != "1.5" || got[0].EntryPrice != "84000" {
		t.Errorf("ReconcilePositions[0] = %+v", got[0])
	}
}

func TestReconcilePositionsEmptyAndMissingSizeFiltered(t *testing.T) {
	payload := raw(t, `[
		{"symbol": "A", "size": ""},
		{"symbol": "B"},
		{"symbol": "C", "size": "2"}
	]`)

	got := ReconcilePositions(payload, nil)

	if len(got) != 1 || got[0].Symbol != "C" {
		t.Errorf("ReconcilePositions = %+v, want only symbol C", got)
	}
}

func TestReconcileOrdersUpsert(t *testing.T) {
	prev := []models.OrderInfo{
		{OrderID: "a", OrderStatus: "New", Price: "100"},
		{OrderID: "b", OrderStatus: "New", Price: "50"},
	}

	payload := raw(t, `[{"orderId": "a", "orderStatus": "PartiallyFilled", "price": "105"}]`)

	got := ReconcileOrders(payload, prev)

	if len(got) != 2 {
		t.Fatalf("ReconcileOrders returned %d entries, want 2", len(got))
	}

	byID := make(map[string]models.OrderInfo, len(got))
	for _, o := range got {
		byID[o.OrderID] = o
	}
	if byID["a"].OrderStatus != "PartiallyFilled" || byID["a"].Price != "105" {
		t.Errorf("order a = %+v, want PartiallyFilled/105", byID["a"])
	}
	if byID["b"].OrderStatus != "New" || byID["b"].Price != "50" {
		t.Errorf("order b = %+v, want unchanged", byID["b"])
	}
}

func TestReconcileOrdersEvictsTerminalStatuses(t *testing.T) {
	prev := []models.OrderInfo{{OrderID: "a", OrderStatus: "New"}}

	tests := []struct {
		status string
	}{
		{"Filled"},
		{"Cancelled"},
		{"Rejected"},
		{"Deactivated"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			payload := raw(t, `[{"orderId": "a", "orderStatus": "`+tt.status+`"}]`)
			got := ReconcileOrders(payload, prev)
			if len(got) != 0 {
				t.Errorf("order with status %s not evicted: %+v", tt.status, got)
			}
		})
	}
}

func TestReconcileOrdersEvictionIsPermanent(t *testing.T) {
	prev := []models.OrderInfo{{OrderID: "a", OrderStatus: "New"}}

	evicted := ReconcileOrders(raw(t, `[{"orderId": "a", "orderStatus": "Cancelled"}]`), prev)
	if len(evicted) != 0 {
		t.Fatalf("expected empty snapshot after eviction, got %+v", evicted)
	}

	// A later terminal update for the same id must not bring it back.
	again := ReconcileOrders(raw(t, `[{"orderId": "a", "orderStatus": "Cancelled"}]`), evicted)
	if len(again) != 0 {
		t.Errorf("evicted order resurrected: %+v", again)
	}
}

func TestReconcileTickerPatchesPresentFields(t *testing.T) {
	prev := models.PriceInfo{
		Symbol:       "BTCUSDT",
		LastPrice:    "85000",
		IndexPrice:   "85000",
		MarkPrice:    "85000",
		Price24hPcnt: "0.01",
	}

	got := ReconcileTicker(raw(t, `{"lastPrice": "86000"}`), prev)

	want := prev
	want.LastPrice = "86000"
	if got != want {
		t.Errorf("ReconcileTicker = %+v, want %+v", got, want)
	}
}

func TestReconcileTickerIgnoresNonStringFields(t *testing.T) {
	prev := models.PriceInfo{Symbol: "BTCUSDT", LastPrice: "85000"}

	got := ReconcileTicker(raw(t, `{"lastPrice": 86000}`), prev)

	if got != prev {
		t.Errorf("non-string field must not overwrite: got %+v, want %+v", got, prev)
	}
}

func TestReconcileOrderbookReplacesWholesale(t *testing.T) {
	prev := models.Orderbook{
		Bids: []models.BookLevel{{Price: "1", Size: "1"}},
		Asks: []models.BookLevel{{Price: "2", Size: "1"}},
	}

	got := ReconcileOrderbook(raw(t, `{"b": [["84900", "0.5"], ["84800", "1.2"]], "a": []}`), prev)

	wantBids := []models.BookLevel{{Price: "84900", Size: "0.5"}, {Price: "84800", Size: "1.2"}}
	if !reflect.DeepEqual(got.Bids, wantBids) {
		t.Errorf("bids = %+v, want %+v", got.Bids, wantBids)
	}
	// With one non-empty side the payload is valid, so the empty side is a
	// wholesale replacement too: it clears.
	if len(got.Asks) != 0 {
		t.Errorf("asks = %+v, want cleared", got.Asks)
	}
}

func TestReconcileOrderbookBothSidesEmptyIsNoop(t *testing.T) {
	prev := models.Orderbook{
		Bids: []models.BookLevel{{Price: "1", Size: "1"}},
	}

	got := ReconcileOrderbook(raw(t, `{"b": [], "a": []}`), prev)

	if !reflect.DeepEqual(got, prev) {
		t.Errorf("empty payload must keep previous snapshot: got %+v", got)
	}
}

func TestReconcileOrderbookSkipsMalformedLevels(t *testing.T) {
	got := ReconcileOrderbook(raw(t, `{"b": [["84900", "0.5"], ["only-price"], [1, 2]], "a": []}`), models.Orderbook{})

	if len(got.Bids) != 1 || got.Bids[0].Price != "84900" {
		t.Errorf("malformed levels must be skipped: %+v", got.Bids)
	}
}

func TestReconcilersReturnPrevOnMalformedInput(t *testing.T) {
	malformed := []struct {
		name string
		raw  interface{}
	}{
		{"nil", nil},
		{"string", "not a payload"},
		{"number", float64(42)},
		{"object where array required", map[string]interface{}{}},
	}

	walletPrev := []models.WalletBalance{{Coin: "BTC"}}
	positionPrev := []models.PositionInfo{{Symbol: "BTCUSDT", Size: "1"}}
	orderPrev := []models.OrderInfo{{OrderID: "a", OrderStatus: "New"}}
	tickerPrev := models.PriceInfo{Symbol: "BTCUSDT", LastPrice: "85000"}
	bookPrev := models.Orderbook{Bids: []models.BookLevel{{Price: "1", Size: "1"}}}

	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReconcileWallet(tt.raw, walletPrev); !reflect.DeepEqual(got, walletPrev) {
				t.Errorf("wallet: got %+v, want prev", got)
			}
			if got := ReconcilePositions(tt.raw, positionPrev); !reflect.DeepEqual(got, positionPrev) {
				t.Errorf("positions: got %+v, want prev", got)
			}
			if got := ReconcileOrders(tt.raw, orderPrev); !reflect.DeepEqual(got, orderPrev) {
				t.Errorf("orders: got %+v, want prev", got)
			}
			if got := ReconcileTicker(tt.raw, tickerPrev); got != tickerPrev {
				t.Errorf("ticker: got %+v, want prev", got)
			}
			if got := ReconcileOrderbook(tt.raw, bookPrev); !reflect.DeepEqual(got, bookPrev) {
				t.Errorf("orderbook: got %+v, want prev", got)
			}
		})
	}
}

func TestTickerAndBookRejectArrayPayloads(t *testing.T) {
	arrayRaw := raw(t, `[1, 2, 3]`)

	tickerPrev := models.PriceInfo{Symbol: "BTCUSDT"}
	if got := ReconcileTicker(arrayRaw, tickerPrev); got != tickerPrev {
		t.Errorf("ticker with array payload: got %+v, want prev", got)
	}

	bookPrev := models.Orderbook{Asks: []models.BookLevel{{Price: "2", Size: "1"}}}
	if got := ReconcileOrderbook(arrayRaw, bookPrev); !reflect.DeepEqual(got, bookPrev) {
		t.Errorf("orderbook with array payload: got %+v, want prev", got)
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	if got := Decode([]byte(`{invalid`)); got != nil {
		t.Errorf("Decode(invalid) = %v, want nil", got)
	}
}

func TestBuildTopic(t *testing.T) {
	tests := []struct {
		topicType TopicType
		symbol    string
		depth     int
		want      string
	}{
		{TopicOrderbook, "BTCUSDT", 25, "orderbook.25.BTCUSDT"},
		{TopicOrderbook, "BTCUSDT", 0, "orderbook.50.BTCUSDT"},
		{TopicTicker, "ETHUSDT", 0, "tickers.ETHUSDT"},
		{TopicPosition, "", 0, "position"},
		{TopicOrder, "", 0, "order"},
		{TopicWallet, "", 0, "wallet"},
	}

	for _, tt := range tests {
		if got := BuildTopic(tt.topicType, tt.symbol, tt.depth); got != tt.want {
			t.Errorf("BuildTopic(%s) = %q, want %q", tt.topicType, got, tt.want)
		}
	}
}

func TestIsPrivate(t *testing.T) {
	private := []TopicType{TopicPosition, TopicOrder, TopicWallet}
	public := []TopicType{TopicOrderbook, TopicTicker}

	for _, tt := range private {
		if !IsPrivate(tt) {
			t.Errorf("IsPrivate(%s) = false, want true", tt)
		}
	}
	for _, tt := range public {
		if IsPrivate(tt) {
			t.Errorf("IsPrivate(%s) = true, want false", tt)
		}
	}
}
