package commands

import (
	"context"
	"fmt"

	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/models"
	"github.com/kmandrev/bybit-cli/internal/output"
)

// ShowInstruments lists tradable instruments for a category.
func ShowInstruments(ctx context.Context, client *exchange.Client, category string, limit int, jsonOut bool) error {
	instruments, err := client.Instruments(ctx, category, limit)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(instruments)
	}

	if len(instruments) == 0 {
		fmt.Println("No instruments found.")
		return nil
	}

	rows := make([][]string, 0, len(instruments))
	for _, inst := range instruments {
		rows = append(rows, []string{inst.Symbol, inst.BaseCoin, inst.QuoteCoin, inst.Status})
	}
	fmt.Println(output.FormatTable([]string{"Symbol", "Base", "Quote", "Status"}, rows))
	return nil
}

// ShowTickers prints the full ticker table for a category.
func ShowTickers(ctx context.Context, client *exchange.Client, category, symbol string, jsonOut bool) error {
	tickers, err := client.Tickers(ctx, category, symbol)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(tickers)
	}

	if len(tickers) == 0 {
		fmt.Println("No tickers found.")
		return nil
	}

	rows := make([][]string, 0, len(tickers))
	for _, t := range tickers {
		rows = append(rows, []string{
			t.Symbol, t.LastPrice, t.Price24hPcnt, t.HighPrice24h, t.LowPrice24h, t.Volume24h, t.FundingRate,
		})
	}
	fmt.Println(output.FormatTable(
		[]string{"Symbol", "Last", "24h %", "24h High", "24h Low", "Volume", "Funding"},
		rows,
	))
	return nil
}

// ShowPrices prints a compact last-price table for the requested symbols, or
// the whole category when no symbols are given.
func ShowPrices(ctx context.Context, client *exchange.Client, category string, symbols []string, jsonOut bool) error {
	var tickers []exchange.Ticker

	if len(symbols) == 0 {
		all, err := client.Tickers(ctx, category, "")
		if err != nil {
			return err
		}
		tickers = all
	} else {
		for _, symbol := range symbols {
			matched, err := client.Tickers(ctx, category, symbol)
			if err != nil {
				return err
			}
			tickers = append(tickers, matched...)
		}
	}

	prices := make([]models.PriceInfo, 0, len(tickers))
	for _, t := range tickers {
		prices = append(prices, toPriceInfo(t))
	}

	if jsonOut {
		return printJSON(prices)
	}

	if len(prices) == 0 {
		fmt.Println("No prices found.")
		return nil
	}

	rows := make([][]string, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, []string{p.Symbol, p.LastPrice, p.MarkPrice, p.Price24hPcnt})
	}
	fmt.Println(output.FormatTable([]string{"Symbol", "Last", "Mark", "24h %"}, rows))
	return nil
}

func toPriceInfo(t exchange.Ticker) models.PriceInfo {
	return models.PriceInfo{
		Symbol:       t.Symbol,
		LastPrice:    t.LastPrice,
		IndexPrice:   t.IndexPrice,
		MarkPrice:    t.MarkPrice,
		Price24hPcnt: t.Price24hPcnt,
	}
}
