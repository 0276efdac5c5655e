package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/models"
	"github.com/kmandrev/bybit-cli/internal/watch"
)

func newTestModel() WatchModel {
	stream := exchange.NewWSClient("", "", false, false)
	return NewWatchModel(
		"tickers.BTCUSDT",
		stream,
		models.PriceInfo{Symbol: "BTCUSDT"},
		func(raw, prev interface{}) interface{} {
			return watch.ReconcileTicker(raw, prev.(models.PriceInfo))
		},
		func(data interface{}) string {
			return RenderTicker(data.(models.PriceInfo))
		},
	)
}

func TestWatchModelQuitClosesStream(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("quit key should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key should return tea.Quit")
	}

	// The model closed the stream; the caller's deferred close must then be
	// a harmless no-op rather than a panic.
	m.stream.Close()
}

func TestWatchModelAppliesPush(t *testing.T) {
	m := newTestModel()

	updated, cmd := m.Update(pushMsg{raw: map[string]interface{}{"lastPrice": "85000"}})
	if cmd == nil {
		t.Error("push handling should re-arm the update listener")
	}

	got := updated.(WatchModel)
	if !got.connected {
		t.Error("a delivered push should mark the stream connected")
	}
	if price := got.data.(models.PriceInfo); price.LastPrice != "85000" {
		t.Errorf("lastPrice = %q, want 85000", price.LastPrice)
	}
}

func TestWatchModelIgnoresInvalidPush(t *testing.T) {
	m := newTestModel()

	updated, _ := m.Update(pushMsg{raw: nil})
	got := updated.(WatchModel)
	if price := got.data.(models.PriceInfo); price.Symbol != "BTCUSDT" {
		t.Errorf("snapshot changed on invalid push: %+v", price)
	}
}
