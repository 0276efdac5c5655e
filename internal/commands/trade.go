package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kmandrev/bybit-cli/internal/exchange"
)

// Trigger directions for conditional orders: 1 fires when the market price
// rises above the trigger, 2 when it falls below.
const (
	triggerRisesAbove = 1
	triggerFallsBelow = 2
)

// OrderParams carries the flag values shared by the order commands.
type OrderParams struct {
	Symbol       string
	Side         string
	Qty          string
	Price        string
	TriggerPrice string
	TimeInForce  string
	TakeProfit   string
	StopLoss     string
	ReduceOnly   bool
}

// PlaceLimitOrder submits a limit order with a generated client order id.
func PlaceLimitOrder(ctx context.Context, client *exchange.Client, category string, params OrderParams, jsonOut bool) error {
	symbol, err := validateOrderParams(params, "price")
	if err != nil {
		return err
	}

	tif := params.TimeInForce
	if tif == "" {
		tif = "GTC"
	}

	req := exchange.PlaceOrderRequest{
		Category:    category,
		Symbol:      symbol,
		Side:        normalizeSide(params.Side),
		OrderType:   "Limit",
		Qty:         params.Qty,
		Price:       params.Price,
		TimeInForce: tif,
		TakeProfit:  params.TakeProfit,
		StopLoss:    params.StopLoss,
		ReduceOnly:  params.ReduceOnly,
		OrderLinkID: newOrderLinkID(),
	}
	return placeOrder(ctx, client, req, jsonOut)
}

// PlaceMarketOrder submits a market order with a generated client order id.
func PlaceMarketOrder(ctx context.Context, client *exchange.Client, category string, params OrderParams, jsonOut bool) error {
	symbol, err := validateOrderParams(params)
	if err != nil {
		return err
	}

	req := exchange.PlaceOrderRequest{
		Category:    category,
		Symbol:      symbol,
		Side:        normalizeSide(params.Side),
		OrderType:   "Market",
		Qty:         params.Qty,
		TakeProfit:  params.TakeProfit,
		StopLoss:    params.StopLoss,
		ReduceOnly:  params.ReduceOnly,
		OrderLinkID: newOrderLinkID(),
	}
	return placeOrder(ctx, client, req, jsonOut)
}

// PlaceStopLossOrder submits a conditional limit order that arms when the
// market moves against the position: a sell fires when the price falls below
// the trigger, a buy when it rises above.
func PlaceStopLossOrder(ctx context.Context, client *exchange.Client, category string, params OrderParams, jsonOut bool) error {
	return placeConditionalOrder(ctx, client, category, params, stopLossTriggerDirection, jsonOut)
}

// PlaceTakeProfitOrder submits a conditional limit order that arms when the
// market moves in the position's favor: a sell fires when the price rises
// above the trigger, a buy when it falls below.
func PlaceTakeProfitOrder(ctx context.Context, client *exchange.Client, category string, params OrderParams, jsonOut bool) error {
	return placeConditionalOrder(ctx, client, category, params, takeProfitTriggerDirection, jsonOut)
}

func placeConditionalOrder(ctx context.Context, client *exchange.Client, category string, params OrderParams, direction func(string) int, jsonOut bool) error {
	symbol, err := validateOrderParams(params, "price", "trigger price")
	if err != nil {
		return err
	}

	req := exchange.PlaceOrderRequest{
		Category:         category,
		Symbol:           symbol,
		Side:             normalizeSide(params.Side),
		OrderType:        "Limit",
		Qty:              params.Qty,
		Price:            params.Price,
		TriggerPrice:     params.TriggerPrice,
		TriggerDirection: direction(normalizeSide(params.Side)),
		TimeInForce:      "GTC",
		ReduceOnly:       params.ReduceOnly,
		OrderLinkID:      newOrderLinkID(),
	}
	return placeOrder(ctx, client, req, jsonOut)
}

func stopLossTriggerDirection(side string) int {
	if side == "Sell" {
		return triggerFallsBelow
	}
	return triggerRisesAbove
}

func takeProfitTriggerDirection(side string) int {
	if side == "Sell" {
		return triggerRisesAbove
	}
	return triggerFallsBelow
}

// validateOrderParams checks the symbol, side and quantity shared by every
// order command, plus the named price fields, and returns the normalized
// symbol.
func validateOrderParams(params OrderParams, priceFields ...string) (string, error) {
	symbol, err := ValidateSymbol(params.Symbol)
	if err != nil {
		return "", err
	}

	side := normalizeSide(params.Side)
	if side != "Buy" && side != "Sell" {
		return "", fmt.Errorf("side must be \"buy\" or \"sell\"")
	}

	if err := ValidatePositiveNumber(params.Qty, "qty"); err != nil {
		return "", err
	}

	for _, field := range priceFields {
		value := params.Price
		if field == "trigger price" {
			value = params.TriggerPrice
		}
		if err := ValidatePositiveNumber(value, field); err != nil {
			return "", err
		}
	}

	return symbol, nil
}

func placeOrder(ctx context.Context, client *exchange.Client, req exchange.PlaceOrderRequest, jsonOut bool) error {
	ack, err := client.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(ack)
	}

	label := strings.ToLower(req.OrderType)
	if req.TriggerPrice != "" {
		label = "conditional " + label
	}
	fmt.Printf("Order placed: %s %s %s %s (order ID %s)\n",
		req.Side, req.Qty, req.Symbol, label, ack.OrderID)
	return nil
}

// CancelOrder cancels one order by exchange order id.
func CancelOrder(ctx context.Context, client *exchange.Client, category, symbol, orderID string, jsonOut bool) error {
	validSymbol, err := ValidateSymbol(symbol)
	if err != nil {
		return err
	}

	ack, err := client.CancelOrder(ctx, category, validSymbol, orderID)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(ack)
	}

	fmt.Printf("Order %s cancelled.\n", ack.OrderID)
	return nil
}

// CancelAllOrders cancels every open order, optionally scoped to a symbol.
func CancelAllOrders(ctx context.Context, client *exchange.Client, category, symbol, settleCoin string, jsonOut bool) error {
	if symbol != "" {
		validSymbol, err := ValidateSymbol(symbol)
		if err != nil {
			return err
		}
		symbol = validSymbol
	}

	acks, err := client.CancelAllOrders(ctx, category, symbol, settleCoin)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(acks)
	}

	fmt.Printf("Cancelled %d order(s).\n", len(acks))
	return nil
}

// AmendOrder changes the price and/or quantity of an open order.
func AmendOrder(ctx context.Context, client *exchange.Client, category, symbol, orderID, qty, price string, jsonOut bool) error {
	validSymbol, err := ValidateSymbol(symbol)
	if err != nil {
		return err
	}
	if qty != "" {
		if err := ValidatePositiveNumber(qty, "qty"); err != nil {
			return err
		}
	}
	if price != "" {
		if err := ValidatePositiveNumber(price, "price"); err != nil {
			return err
		}
	}

	ack, err := client.AmendOrder(ctx, exchange.AmendOrderRequest{
		Category: category,
		Symbol:   validSymbol,
		OrderID:  orderID,
		Qty:      qty,
		Price:    price,
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(ack)
	}

	fmt.Printf("Order %s amended.\n", ack.OrderID)
	return nil
}

// SetLeverage sets symmetric buy/sell leverage for a symbol.
func SetLeverage(ctx context.Context, client *exchange.Client, category, symbol, leverage string, jsonOut bool) error {
	validSymbol, err := ValidateSymbol(symbol)
	if err != nil {
		return err
	}
	if err := ValidatePositiveNumber(leverage, "leverage"); err != nil {
		return err
	}

	if err := client.SetLeverage(ctx, category, validSymbol, leverage); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]string{"symbol": validSymbol, "leverage": leverage})
	}

	fmt.Printf("Leverage for %s set to %sx.\n", validSymbol, leverage)
	return nil
}

// normalizeSide maps user input like "buy"/"SELL" to the wire casing.
func normalizeSide(side string) string {
	switch strings.ToLower(side) {
	case "buy":
		return "Buy"
	case "sell":
		return "Sell"
	default:
		return side
	}
}

func newOrderLinkID() string {
	return "bb-" + uuid.NewString()
}
