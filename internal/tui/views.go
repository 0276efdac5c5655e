package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kmandrev/bybit-cli/internal/models"
	"github.com/kmandrev/bybit-cli/internal/output"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// RenderBalances renders the wallet snapshot.
func RenderBalances(balances []models.WalletBalance) string {
	if len(balances) == 0 {
		return mutedStyle.Render("No balances.")
	}

	rows := make([][]string, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, []string{b.Coin, b.Equity, b.AvailableToWithdraw, b.UnrealisedPnl})
	}
	return output.FormatTable([]string{"Coin", "Equity", "Available", "Unreal. PnL"}, rows)
}

// RenderPositions renders the position snapshot.
func RenderPositions(positions []models.PositionInfo) string {
	if len(positions) == 0 {
		return mutedStyle.Render("No open positions.")
	}

	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Symbol, p.Side, p.Size, p.EntryPrice, p.MarkPrice, p.UnrealisedPnl, p.Leverage + "x",
		})
	}
	return output.FormatTable(
		[]string{"Symbol", "Side", "Size", "Entry", "Mark", "Unreal. PnL", "Leverage"},
		rows,
	)
}

// RenderOrders renders the active order snapshot.
func RenderOrders(orders []models.OrderInfo) string {
	if len(orders) == 0 {
		return mutedStyle.Render("No active orders.")
	}

	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			shortID(o.OrderID), o.Symbol, o.Side, o.OrderType, orDash(o.Price), o.Qty, o.OrderStatus,
		})
	}
	return output.FormatTable(
		[]string{"Order ID", "Symbol", "Side", "Type", "Price", "Qty", "Status"},
		rows,
	)
}

// RenderTicker renders the single-symbol price panel.
func RenderTicker(price models.PriceInfo) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(price.Symbol) + "\n")
	sb.WriteString(output.FormatTable(
		[]string{"Last", "Index", "Mark", "24h"},
		[][]string{{price.LastPrice, price.IndexPrice, price.MarkPrice, changeLabel(price.Price24hPcnt)}},
	))
	return sb.String()
}

// RenderBook renders the two-sided order book, asks on top reversed so the
// spread sits in the middle.
func RenderBook(book models.Orderbook) string {
	if len(book.Bids) == 0 && len(book.Asks) == 0 {
		return mutedStyle.Render("Waiting for book data...")
	}

	rows := make([][]string, 0, len(book.Bids)+len(book.Asks))
	for i := len(book.Asks) - 1; i >= 0; i-- {
		level := book.Asks[i]
		rows = append(rows, []string{lossStyle.Render(level.Price), level.Size, "ASK"})
	}
	for _, level := range book.Bids {
		rows = append(rows, []string{gainStyle.Render(level.Price), level.Size, "BID"})
	}
	return output.FormatTable([]string{"Price", "Size", "Side"}, rows)
}

func changeLabel(pcnt string) string {
	if strings.HasPrefix(pcnt, "-") {
		return lossStyle.Render(pcnt)
	}
	return gainStyle.Render(pcnt)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:8] + "..."
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
