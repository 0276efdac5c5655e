package commands

import (
	"context"
	"fmt"

	"github.com/kmandrev/bybit-cli/internal/clierr"
	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/models"
	"github.com/kmandrev/bybit-cli/internal/output"
)

// ShowPrice prints the current price details for one symbol.
func ShowPrice(ctx context.Context, client *exchange.Client, category, symbol string, jsonOut bool) error {
	tickers, err := client.Tickers(ctx, category, symbol)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		return clierr.New(
			clierr.CodeInvalidSymbol,
			fmt.Sprintf("no ticker data for symbol %q", symbol),
			"Check the symbol with 'bb markets ls'",
		)
	}

	price := toPriceInfo(tickers[0])
	if jsonOut {
		return printJSON(price)
	}

	fmt.Println(output.FormatTable(
		[]string{"Symbol", "Last", "Index", "Mark", "24h %"},
		[][]string{{price.Symbol, price.LastPrice, price.IndexPrice, price.MarkPrice, price.Price24hPcnt}},
	))
	return nil
}

// ShowBook prints an order book snapshot, asks above bids.
func ShowBook(ctx context.Context, client *exchange.Client, category, symbol string, depth int, jsonOut bool) error {
	result, err := client.Orderbook(ctx, category, symbol, depth)
	if err != nil {
		return err
	}

	book := toBook(result)
	if jsonOut {
		return printJSON(book)
	}

	rows := make([][]string, 0, len(book.Bids)+len(book.Asks))
	for i := len(book.Asks) - 1; i >= 0; i-- {
		rows = append(rows, []string{book.Asks[i].Price, book.Asks[i].Size, "ASK"})
	}
	for _, level := range book.Bids {
		rows = append(rows, []string{level.Price, level.Size, "BID"})
	}
	fmt.Println(output.FormatTable([]string{"Price", "Size", "Side"}, rows))
	return nil
}

// ShowFunding prints recent funding rates for a symbol.
func ShowFunding(ctx context.Context, client *exchange.Client, category, symbol string, limit int, jsonOut bool) error {
	rates, err := client.FundingHistory(ctx, category, symbol, limit)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(rates)
	}

	if len(rates) == 0 {
		fmt.Println("No funding history found.")
		return nil
	}

	rows := make([][]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []string{r.Symbol, r.FundingRate, formatTimestamp(r.FundingRateTimestamp)})
	}
	fmt.Println(output.FormatTable([]string{"Symbol", "Rate", "Time"}, rows))
	return nil
}

func toBook(result *exchange.OrderbookResult) models.Orderbook {
	book := models.Orderbook{
		Bids: make([]models.BookLevel, 0, len(result.Bids)),
		Asks: make([]models.BookLevel, 0, len(result.Asks)),
	}
	for _, pair := range result.Bids {
		if len(pair) < 2 {
			continue
		}
		book.Bids = append(book.Bids, models.BookLevel{Price: pair[0], Size: pair[1]})
	}
	for _, pair := range result.Asks {
		if len(pair) < 2 {
			continue
		}
		book.Asks = append(book.Asks, models.BookLevel{Price: pair[0], Size: pair[1]})
	}
	return book
}
