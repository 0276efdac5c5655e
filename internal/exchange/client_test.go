package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/kmandrev/bybit-cli/internal/clierr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &Client{
		apiKey:     "test-key",
		apiSecret:  "test-secret",
		baseURL:    server.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestTickersUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/tickers" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol param = %q, want BTCUSDT", got)
		}
		if r.Header.Get("X-BAPI-SIGN") != "" {
			t.Error("public endpoint must not be signed")
		}
		_, _ = w.Write([]byte(`{
			"retCode": 0,
			"retMsg": "OK",
			"result": {"list": [{"symbol": "BTCUSDT", "lastPrice": "85000", "price24hPcnt": "0.012"}]}
		}`))
	})

	tickers, err := c.Tickers(context.Background(), "linear", "BTCUSDT")
	if err != nil {
		t.Fatalf("Tickers failed: %v", err)
	}
	if len(tickers) != 1 || tickers[0].LastPrice != "85000" {
		t.Errorf("Tickers = %+v", tickers)
	}
}

func TestRetCodeMapsToTypedError(t *testing.T) {
	tests := []struct {
		name     string
		retCode  int
		wantCode clierr.Code
	}{
		{"auth failure", 10003, clierr.CodeAuthError},
		{"rate limit", 10006, clierr.CodeRateLimit},
		{"generic", 170001, clierr.CodeAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"retCode": ` + strconv.Itoa(tt.retCode) + `, "retMsg": "rejected", "result": {}}`))
			})

			_, err := c.Tickers(context.Background(), "linear", "BTCUSDT")
			var cliErr *clierr.Error
			if !errors.As(err, &cliErr) {
				t.Fatalf("expected *clierr.Error, got %v", err)
			}
			if cliErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", cliErr.Code, tt.wantCode)
			}
		})
	}
}

func TestHTTPStatusMapsToTypedError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Tickers(context.Background(), "linear", "BTCUSDT")
	var cliErr *clierr.Error
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected *clierr.Error, got %v", err)
	}
	if cliErr.Code != clierr.CodeGeoBlocked {
		t.Errorf("code = %s, want %s", cliErr.Code, clierr.CodeGeoBlocked)
	}
}

func TestSignedRequestCarriesValidSignature(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-BAPI-API-KEY")
		timestamp := r.Header.Get("X-BAPI-TIMESTAMP")
		signature := r.Header.Get("X-BAPI-SIGN")
		window := r.Header.Get("X-BAPI-RECV-WINDOW")

		if apiKey != "test-key" {
			t.Errorf("api key header = %q", apiKey)
		}
		if timestamp == "" || signature == "" || window != recvWindow {
			t.Errorf("missing signing headers: ts=%q sign=%q window=%q", timestamp, signature, window)
		}

		// Recompute the signature over the received query string to pin the
		// message layout: timestamp + apiKey + recvWindow + payload.
		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte(timestamp + apiKey + window + r.URL.RawQuery))
		if want := hex.EncodeToString(mac.Sum(nil)); signature != want {
			t.Errorf("signature = %q, want %q", signature, want)
		}

		_, _ = w.Write([]byte(`{"retCode": 0, "retMsg": "OK", "result": {"list": []}}`))
	})

	if _, err := c.WalletBalances(context.Background(), "UNIFIED"); err != nil {
		t.Fatalf("WalletBalances failed: %v", err)
	}
}

func TestWalletBalancesDecodesCoins(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"retCode": 0,
			"retMsg": "OK",
			"result": {"list": [
				{"accountType": "UNIFIED", "coin": [
					{"coin": "BTC", "equity": "1.5", "availableToWithdraw": "1.0", "unrealisedPnl": "0.1"}
				]}
			]}
		}`))
	})

	accounts, err := c.WalletBalances(context.Background(), "UNIFIED")
	if err != nil {
		t.Fatalf("WalletBalances failed: %v", err)
	}
	if len(accounts) != 1 || len(accounts[0].Coin) != 1 {
		t.Fatalf("unexpected shape: %+v", accounts)
	}
	if accounts[0].Coin[0].Equity != "1.5" {
		t.Errorf("equity = %q, want 1.5", accounts[0].Coin[0].Equity)
	}
}

func TestWSClientCloseIsIdempotent(t *testing.T) {
	// Close before Connect, then again: must not panic or block.
	ws := NewWSClient("", "", false, false)
	ws.Close()
	ws.Close()
}
