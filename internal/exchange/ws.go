package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

const (
	mainnetWSPublic  = "wss://stream.bybit.com/v5/public/linear"
	testnetWSPublic  = "wss://stream-testnet.bybit.com/v5/public/linear"
	mainnetWSPrivate = "wss://stream.bybit.com/v5/private"
	testnetWSPrivate = "wss://stream-testnet.bybit.com/v5/private"

	wsPingInterval   = 20 * time.Second
	wsConnectTimeout = 10 * time.Second
	wsAuthWindow     = 5 * time.Second
)

// StreamMessage is one push update delivered by a subscription.
type StreamMessage struct {
	Topic string
	Data  json.RawMessage
}

// WSClient is a subscription client for one Bybit v5 stream (public or
// private). Updates and transport errors are delivered on channels; Close is
// idempotent and safe to call before the stream is fully established.
type WSClient struct {
	url       string
	apiKey    string
	apiSecret string
	private   bool

	conn    *websocket.Conn
	writeMu sync.Mutex

	updates chan StreamMessage
	errs    chan error

	done      chan struct{}
	closeOnce sync.Once
}

type wsCommand struct {
	Op   string        `json:"op"`
	Args []interface{} `json:"args,omitempty"`
}

type wsPush struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// NewWSClient creates a client for the public or private stream. Credentials
// are only required for the private stream.
func NewWSClient(apiKey, apiSecret string, testnet, private bool) *WSClient {
	var wsURL string
	switch {
	case private && testnet:
		wsURL = testnetWSPrivate
	case private:
		wsURL = mainnetWSPrivate
	case testnet:
		wsURL = testnetWSPublic
	default:
		wsURL = mainnetWSPublic
	}

	return &WSClient{
		url:       wsURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		private:   private,
		updates:   make(chan StreamMessage, 16),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
	}
}

// Connect dials the stream, authenticates when private, and starts the read
// and keepalive loops.
func (w *WSClient) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, wsConnectTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, w.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", w.url, err)
	}
	w.conn = conn

	if w.private {
		if err := w.authenticate(); err != nil {
			_ = conn.Close()
			return err
		}
	}

	go w.readLoop()
	go w.pingLoop()

	return nil
}

// Subscribe sends a subscription request for the given topic strings.
func (w *WSClient) Subscribe(topics ...string) error {
	args := make([]interface{}, len(topics))
	for i, t := range topics {
		args[i] = t
	}
	return w.write(wsCommand{Op: "subscribe", Args: args})
}

// Updates returns the channel delivering push messages.
func (w *WSClient) Updates() <-chan StreamMessage {
	return w.updates
}

// Errors returns the channel delivering transport errors. At most one error
// is delivered; the stream is dead afterwards.
func (w *WSClient) Errors() <-chan error {
	return w.errs
}

// Close tears down the stream. Safe to call multiple times and before
// Connect has succeeded.
func (w *WSClient) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		if w.conn != nil {
			w.writeMu.Lock()
			_ = w.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			w.writeMu.Unlock()
			_ = w.conn.Close()
		}
	})
}

func (w *WSClient) authenticate() error {
	expires := strconv.FormatInt(time.Now().Add(wsAuthWindow).UnixMilli(), 10)

	h := hmac.New(sha256.New, []byte(w.apiSecret))
	h.Write([]byte("GET/realtime" + expires))
	signature := hex.EncodeToString(h.Sum(nil))

	return w.write(wsCommand{Op: "auth", Args: []interface{}{w.apiKey, expires, signature}})
}

func (w *WSClient) write(cmd wsCommand) error {
	data, err := jsoniter.Marshal(cmd)
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WSClient) readLoop() {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
			case w.errs <- err:
			}
			return
		}

		var push wsPush
		if err := jsoniter.Unmarshal(data, &push); err != nil {
			continue
		}
		// Command acks and pong responses carry no topic.
		if push.Topic == "" || push.Data == nil {
			continue
		}

		select {
		case w.updates <- StreamMessage{Topic: push.Topic, Data: push.Data}:
		case <-w.done:
			return
		}
	}
}

func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.write(wsCommand{Op: "ping"}); err != nil {
				return
			}
		case <-w.done:
			return
		}
	}
}
