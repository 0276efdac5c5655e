// Package models holds the client-side view types shared by REST commands,
// stream reconcilers and the terminal UI. Numeric-looking fields stay strings
// end-to-end: exchange payloads use variable decimal formatting that numeric
// parsing could mis-round.
package models

// WalletBalance is one coin row of the wallet view.
type WalletBalance struct {
	Coin                string `json:"coin"`
	Equity              string `json:"equity"`
	AvailableToWithdraw string `json:"availableToWithdraw"`
	UnrealisedPnl       string `json:"unrealisedPnl"`
}

// PositionInfo is one open position row.
type PositionInfo struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Size          string `json:"size"`
	EntryPrice    string `json:"entryPrice"`
	MarkPrice     string `json:"markPrice"`
	UnrealisedPnl string `json:"unrealisedPnl"`
	Leverage      string `json:"leverage"`
}

// OrderInfo is one active order row, keyed by OrderID.
type OrderInfo struct {
	OrderID     string `json:"orderId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	OrderStatus string `json:"orderStatus"`
	CreatedTime string `json:"createdTime"`
}

// PriceInfo is the ticker view for a single symbol.
type PriceInfo struct {
	Symbol       string `json:"symbol"`
	LastPrice    string `json:"lastPrice"`
	IndexPrice   string `json:"indexPrice"`
	MarkPrice    string `json:"markPrice"`
	Price24hPcnt string `json:"price24hPcnt"`
}

// BookLevel is a single price level of the order book.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Orderbook is the two-sided book view.
type Orderbook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}
