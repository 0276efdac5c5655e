package exchange

// response is the Bybit v5 envelope shared by every REST endpoint.
// retCode 0 means success; anything else maps into the error taxonomy.
type response[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

type listResult[T any] struct {
	List []T `json:"list"`
}

// WalletAccount groups coin balances under one account type.
type WalletAccount struct {
	AccountType string       `json:"accountType"`
	Coin        []WalletCoin `json:"coin"`
}

type WalletCoin struct {
	Coin                string `json:"coin"`
	Equity              string `json:"equity"`
	AvailableToWithdraw string `json:"availableToWithdraw"`
	UnrealisedPnl       string `json:"unrealisedPnl"`
}

type Position struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Size          string `json:"size"`
	AvgPrice      string `json:"avgPrice"`
	MarkPrice     string `json:"markPrice"`
	UnrealisedPnl string `json:"unrealisedPnl"`
	Leverage      string `json:"leverage"`
}

type Order struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	OrderStatus string `json:"orderStatus"`
	CreatedTime string `json:"createdTime"`
}

type Ticker struct {
	Symbol       string `json:"symbol"`
	LastPrice    string `json:"lastPrice"`
	IndexPrice   string `json:"indexPrice"`
	MarkPrice    string `json:"markPrice"`
	Price24hPcnt string `json:"price24hPcnt"`
	FundingRate  string `json:"fundingRate"`
	Volume24h    string `json:"volume24h"`
	HighPrice24h string `json:"highPrice24h"`
	LowPrice24h  string `json:"lowPrice24h"`
}

type Instrument struct {
	Symbol    string `json:"symbol"`
	BaseCoin  string `json:"baseCoin"`
	QuoteCoin string `json:"quoteCoin"`
	Status    string `json:"status"`
}

type FundingRate struct {
	Symbol               string `json:"symbol"`
	FundingRate          string `json:"fundingRate"`
	FundingRateTimestamp string `json:"fundingRateTimestamp"`
}

// OrderbookResult keeps the wire's compact field names: s/b/a.
type OrderbookResult struct {
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
}

// OrderAck is returned by order create/amend/cancel calls.
type OrderAck struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}

// PlaceOrderRequest is the body of POST /v5/order/create. Quantities and
// prices are strings on the wire.
type PlaceOrderRequest struct {
	Category         string `json:"category"`
	Symbol           string `json:"symbol"`
	Side             string `json:"side"`
	OrderType        string `json:"orderType"`
	Qty              string `json:"qty"`
	Price            string `json:"price,omitempty"`
	TriggerPrice     string `json:"triggerPrice,omitempty"`
	TriggerDirection int    `json:"triggerDirection,omitempty"`
	TimeInForce      string `json:"timeInForce,omitempty"`
	TakeProfit       string `json:"takeProfit,omitempty"`
	StopLoss         string `json:"stopLoss,omitempty"`
	ReduceOnly       bool   `json:"reduceOnly,omitempty"`
	OrderLinkID      string `json:"orderLinkId,omitempty"`
}

// AmendOrderRequest is the body of POST /v5/order/amend.
type AmendOrderRequest struct {
	Category string `json:"category"`
	Symbol   string `json:"symbol"`
	OrderID  string `json:"orderId"`
	Qty      string `json:"qty,omitempty"`
	Price    string `json:"price,omitempty"`
}
