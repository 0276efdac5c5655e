package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/models"
	"github.com/kmandrev/bybit-cli/internal/tui"
	"github.com/kmandrev/bybit-cli/internal/vault"
	"github.com/kmandrev/bybit-cli/internal/watch"
)

// WatchWallet runs a live wallet balance view on the private stream.
func WatchWallet(ctx context.Context, account *vault.Account, testnet bool) error {
	return runWatch(ctx, string(watch.TopicWallet), true, account, testnet,
		[]models.WalletBalance{},
		func(raw, prev interface{}) interface{} {
			return watch.ReconcileWallet(raw, prev.([]models.WalletBalance))
		},
		func(data interface{}) string {
			return tui.RenderBalances(data.([]models.WalletBalance))
		},
	)
}

// WatchPositions runs a live position view on the private stream.
func WatchPositions(ctx context.Context, account *vault.Account, testnet bool) error {
	return runWatch(ctx, string(watch.TopicPosition), true, account, testnet,
		[]models.PositionInfo{},
		func(raw, prev interface{}) interface{} {
			return watch.ReconcilePositions(raw, prev.([]models.PositionInfo))
		},
		func(data interface{}) string {
			return tui.RenderPositions(data.([]models.PositionInfo))
		},
	)
}

// WatchOrders runs a live order view on the private stream.
func WatchOrders(ctx context.Context, account *vault.Account, testnet bool) error {
	return runWatch(ctx, string(watch.TopicOrder), true, account, testnet,
		[]models.OrderInfo{},
		func(raw, prev interface{}) interface{} {
			return watch.ReconcileOrders(raw, prev.([]models.OrderInfo))
		},
		func(data interface{}) string {
			return tui.RenderOrders(data.([]models.OrderInfo))
		},
	)
}

// WatchTicker runs a live price view for one symbol on the public stream.
func WatchTicker(ctx context.Context, symbol string, testnet bool) error {
	topic := watch.BuildTopic(watch.TopicTicker, symbol, 0)
	return runWatch(ctx, topic, false, nil, testnet,
		models.PriceInfo{Symbol: symbol},
		func(raw, prev interface{}) interface{} {
			return watch.ReconcileTicker(raw, prev.(models.PriceInfo))
		},
		func(data interface{}) string {
			return tui.RenderTicker(data.(models.PriceInfo))
		},
	)
}

// WatchBook runs a live order book view for one symbol on the public stream.
func WatchBook(ctx context.Context, symbol string, depth int, testnet bool) error {
	topic := watch.BuildTopic(watch.TopicOrderbook, symbol, depth)
	return runWatch(ctx, topic, false, nil, testnet,
		models.Orderbook{},
		func(raw, prev interface{}) interface{} {
			return watch.ReconcileOrderbook(raw, prev.(models.Orderbook))
		},
		func(data interface{}) string {
			return tui.RenderBook(data.(models.Orderbook))
		},
	)
}

func runWatch(ctx context.Context, topic string, private bool, account *vault.Account, testnet bool, initial interface{}, reconcile tui.Reconcile, render tui.Render) error {
	var apiKey, apiSecret string
	if account != nil {
		apiKey = account.APIKey
		apiSecret = account.APISecret
	}

	stream := exchange.NewWSClient(apiKey, apiSecret, testnet, private)
	if err := stream.Connect(ctx); err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Subscribe(topic); err != nil {
		return err
	}

	model := tui.NewWatchModel(topic, stream, initial, reconcile, render)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
