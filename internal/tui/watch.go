// Package tui renders live watch views with bubbletea. One WatchModel serves
// every topic: the per-topic behavior is injected as a reconcile function and
// a render function.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/watch"
)

// Reconcile folds a decoded push payload into the previous snapshot.
type Reconcile func(raw interface{}, prev interface{}) interface{}

// Render turns the current snapshot into terminal output.
type Render func(data interface{}) string

type pushMsg struct {
	raw interface{}
}

type streamErrMsg struct {
	err error
}

// WatchModel is the bubbletea model driving one live subscription.
type WatchModel struct {
	topic     string
	stream    *exchange.WSClient
	reconcile Reconcile
	render    Render

	data      interface{}
	connected bool
	errText   string
	spinner   spinner.Model
}

// NewWatchModel builds a model around an already-subscribed stream.
func NewWatchModel(topic string, stream *exchange.WSClient, initial interface{}, reconcile Reconcile, render Render) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return WatchModel{
		topic:     topic,
		stream:    stream,
		reconcile: reconcile,
		render:    render,
		data:      initial,
		spinner:   sp,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForUpdate(m.stream),
		waitForError(m.stream),
	)
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.stream.Close()
			return m, tea.Quit
		}

	case pushMsg:
		m.connected = true
		if msg.raw != nil {
			m.data = m.reconcile(msg.raw, m.data)
		}
		return m, waitForUpdate(m.stream)

	case streamErrMsg:
		m.errText = msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m WatchModel) View() string {
	if m.errText != "" {
		return lossStyle.Render(fmt.Sprintf("Stream error: %s", m.errText)) + "\n" +
			mutedStyle.Render("Press q to quit") + "\n"
	}

	var header string
	if m.connected {
		header = mutedStyle.Render(fmt.Sprintf("Live: %s", m.topic))
	} else {
		header = mutedStyle.Render(fmt.Sprintf("%s Connecting: %s...", m.spinner.View(), m.topic))
	}

	return header + "\n\n" + m.render(m.data) + "\n\n" +
		mutedStyle.Render("Press q to quit") + "\n"
}

func waitForUpdate(stream *exchange.WSClient) tea.Cmd {
	return func() tea.Msg {
		msg := <-stream.Updates()
		return pushMsg{raw: watch.Decode(msg.Data)}
	}
}

func waitForError(stream *exchange.WSClient) tea.Cmd {
	return func() tea.Msg {
		return streamErrMsg{err: <-stream.Errors()}
	}
}
