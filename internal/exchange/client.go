// Package exchange implements the Bybit v5 REST and WebSocket clients used
// by the CLI. Request signing follows the v5 scheme:
// HMAC-SHA256(timestamp + apiKey + recvWindow + payload).
package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kmandrev/bybit-cli/internal/clierr"
)

const (
	mainnetBaseURL = "https://api.bybit.com"
	testnetBaseURL = "https://api-testnet.bybit.com"

	recvWindow = "5000"
)

// Client is the REST client. Credentials may be empty for public endpoints.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a REST client for mainnet or testnet.
func NewClient(apiKey, apiSecret string, testnet bool) *Client {
	baseURL := mainnetBaseURL
	if testnet {
		baseURL = testnetBaseURL
	}

	return &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) sign(timestamp, payload string) string {
	message := timestamp + c.apiKey + recvWindow + payload
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body interface{}, signed bool) ([]byte, error) {
	var reqURL string
	var payload string
	var reqBody io.Reader

	switch method {
	case http.MethodGet:
		payload = params.Encode()
		reqURL = c.baseURL + endpoint
		if payload != "" {
			reqURL += "?" + payload
		}
	default:
		reqURL = c.baseURL + endpoint
		if body != nil {
			jsonBody, err := jsoniter.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			payload = string(jsonBody)
			reqBody = bytes.NewReader(jsonBody)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if signed {
		timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		req.Header.Set("X-BAPI-API-KEY", c.apiKey)
		req.Header.Set("X-BAPI-SIGN", c.sign(timestamp, payload))
		req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
		req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, clierr.NetworkError(err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, clierr.NetworkError(err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, clierr.FromHTTPStatus(resp.StatusCode, clierr.RedactJSON(string(data)))
	}

	return data, nil
}

// request performs a call and unwraps the retCode/retMsg/result envelope.
func request[T any](ctx context.Context, c *Client, method, endpoint string, params url.Values, body interface{}, signed bool) (T, error) {
	var zero T

	data, err := c.doRequest(ctx, method, endpoint, params, body, signed)
	if err != nil {
		return zero, err
	}

	var resp response[T]
	if err := jsoniter.Unmarshal(data, &resp); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.RetCode != 0 {
		return zero, clierr.FromRetCode(resp.RetCode, resp.RetMsg)
	}

	return resp.Result, nil
}

// WalletBalances fetches balances for an account type (e.g. UNIFIED).
func (c *Client) WalletBalances(ctx context.Context, accountType string) ([]WalletAccount, error) {
	params := url.Values{}
	params.Set("accountType", accountType)

	result, err := request[listResult[WalletAccount]](ctx, c, http.MethodGet, "/v5/account/wallet-balance", params, nil, true)
	if err != nil {
		return nil, err
	}
	return result.List, nil
}

// Positions fetches open positions for a category.
func (c *Client) Positions(ctx context.Context, category, settleCoin string) ([]Position, error) {
	params := url.Values{}
	params.Set("category", category)
	if settleCoin != "" {
		params.Set("settleCoin", settleCoin)
	}

	result, err := request[listResult[Position]](ctx, c, http.MethodGet, "/v5/position/list", params, nil, true)
	if err != nil {
		return nil, err
	}
	return result.List, nil
}

// ActiveOrders fetches open orders for a category.
func (c *Client) ActiveOrders(ctx context.Context, category, settleCoin string) ([]Order, error) {
	params := url.Values{}
	params.Set("category", category)
	if settleCoin != "" {
		params.Set("settleCoin", settleCoin)
	}

	result, err := request[listResult[Order]](ctx, c, http.MethodGet, "/v5/order/realtime", params, nil, true)
	if err != nil {
		return nil, err
	}
	return result.List, nil
}

// Tickers fetches tickers; symbol may be empty to list the whole category.
func (c *Client) Tickers(ctx context.Context, category, symbol string) ([]Ticker, error) {
	params := url.Values{}
	params.Set("category", category)
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	result, err := request[listResult[Ticker]](ctx, c, http.MethodGet, "/v5/market/tickers", params, nil, false)
	if err != nil {
		return nil, err
	}
	return result.List, nil
}

// Orderbook fetches a depth snapshot for a symbol.
func (c *Client) Orderbook(ctx context.Context, category, symbol string, limit int) (*OrderbookResult, error) {
	params := url.Values{}
	params.Set("category", category)
	params.Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	result, err := request[OrderbookResult](ctx, c, http.MethodGet, "/v5/market/orderbook", params, nil, false)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Instruments lists tradable instruments for a category.
func (c *Client) Instruments(ctx context.Context, category string, limit int) ([]Instrument, error) {
	params := url.Values{}
	params.Set("category", category)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	result, err := request[listResult[Instrument]](ctx, c, http.MethodGet, "/v5/market/instruments-info", params, nil, false)
	if err != nil {
		return nil, err
	}
	return result.List, nil
}

// FundingHistory fetches recent funding rates for a symbol.
func (c *Client) FundingHistory(ctx context.Context, category, symbol string, limit int) ([]FundingRate, error) {
	params := url.Values{}
	params.Set("category", category)
	params.Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	result, err := request[listResult[FundingRate]](ctx, c, http.MethodGet, "/v5/market/funding/history", params, nil, false)
	if err != nil {
		return nil, err
	}
	return result.List, nil
}

// PlaceOrder submits a new order.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderAck, error) {
	ack, err := request[OrderAck](ctx, c, http.MethodPost, "/v5/order/create", nil, req, true)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// AmendOrder changes the price and/or quantity of an open order.
func (c *Client) AmendOrder(ctx context.Context, req AmendOrderRequest) (*OrderAck, error) {
	ack, err := request[OrderAck](ctx, c, http.MethodPost, "/v5/order/amend", nil, req, true)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// CancelOrder cancels a single order by id.
func (c *Client) CancelOrder(ctx context.Context, category, symbol, orderID string) (*OrderAck, error) {
	body := map[string]string{
		"category": category,
		"symbol":   symbol,
		"orderId":  orderID,
	}

	ack, err := request[OrderAck](ctx, c, http.MethodPost, "/v5/order/cancel", nil, body, true)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// CancelAllOrders cancels every open order in a category, optionally
// restricted to one symbol.
func (c *Client) CancelAllOrders(ctx context.Context, category, symbol, settleCoin string) ([]OrderAck, error) {
	body := map[string]string{"category": category}
	if symbol != "" {
		body["symbol"] = symbol
	}
	if settleCoin != "" {
		body["settleCoin"] = settleCoin
	}

	result, err := request[listResult[OrderAck]](ctx, c, http.MethodPost, "/v5/order/cancel-all", nil, body, true)
	if err != nil {
		return nil, err
	}
	return result.List, nil
}

// SetLeverage sets buy and sell leverage for a symbol.
func (c *Client) SetLeverage(ctx context.Context, category, symbol, leverage string) error {
	body := map[string]string{
		"category":     category,
		"symbol":       symbol,
		"buyLeverage":  leverage,
		"sellLeverage": leverage,
	}

	_, err := request[struct{}](ctx, c, http.MethodPost, "/v5/position/set-leverage", nil, body, true)
	return err
}
