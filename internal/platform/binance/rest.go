package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantfall/quantbot/internal/domain"
)

const (
	// DefaultBaseURL is the production spot REST endpoint.
	DefaultBaseURL = "https://api.binance.com"

	// requestTimeout bounds every REST call.
	requestTimeout = 10 * time.Second
)

// Doer abstracts the HTTP transport so tests can count and stub requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the REST client for the exchange spot API. The zero credentials
// are valid for public endpoints (depth); signed endpoints require
// SetCredentials first.
type Client struct {
	baseURL string
	apiKey  string
	secret  string
	http    Doer
	now     func() int64 // ms epoch, swappable for deterministic signing tests
}

// NewClient creates a REST client for the given API root. An empty baseURL
// selects the production endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		now:     nowMillis,
	}
}

// SetCredentials configures the API key pair used by signed endpoints.
func (c *Client) SetCredentials(key, secret string) {
	c.apiKey = key
	c.secret = secret
}

// SetTransport replaces the HTTP transport. Intended for tests.
func (c *Client) SetTransport(d Doer) {
	c.http = d
}

// HasCredentials reports whether both key and secret are set.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.secret != ""
}

// Depth fetches the top-of-book snapshot for a symbol via the public depth
// endpoint.
func (c *Client) Depth(ctx context.Context, sym domain.Symbol) (domain.OrderbookSnapshot, error) {
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%d", c.baseURL, sym, domain.DepthLimit)
	body, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("binance: get depth %s: %w", sym, err)
	}

	var resp depthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("binance: decode depth %s: %w", sym, domain.ErrParse)
	}

	ts := uint64(c.now())
	snap := domain.OrderbookSnapshot{
		Symbol:    sym,
		Bids:      parseLevels(resp.Bids, ts),
		Asks:      parseLevels(resp.Asks, ts),
		Timestamp: ts,
	}
	return snap, nil
}

// Account performs the signed account-information request. It doubles as the
// connectivity probe: a payload without accountType is treated as a failure.
func (c *Client) Account(ctx context.Context) (AccountInfo, error) {
	body, err := c.doSigned(ctx, http.MethodGet, "/api/v3/account", &queryBuilder{})
	if err != nil {
		return AccountInfo{}, fmt.Errorf("binance: get account: %w", err)
	}

	if apiErr := decodeAPIError(body); apiErr != nil {
		return AccountInfo{}, fmt.Errorf("binance: get account: %w: %s", domain.ErrExchange, apiErr.Msg)
	}

	var resp AccountInfo
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccountType == "" {
		return AccountInfo{}, fmt.Errorf("binance: decode account: %w", domain.ErrParse)
	}
	return resp, nil
}

// PlaceOrder submits a new order. A positive price produces a GTC LIMIT
// order; price 0 produces a MARKET order.
func (c *Client) PlaceOrder(ctx context.Context, sym domain.Symbol, side domain.OrderSide, price, quantity float64) (OrderResponse, error) {
	q := &queryBuilder{}
	q.add("symbol", sym.String())
	q.add("side", string(side))
	if price > 0 {
		q.add("type", string(domain.OrderTypeLimit))
		q.addPrice("quantity", quantity)
		q.add("timeInForce", "GTC")
		q.addPrice("price", price)
	} else {
		q.add("type", string(domain.OrderTypeMarket))
		q.addPrice("quantity", quantity)
	}

	body, err := c.doSigned(ctx, http.MethodPost, "/api/v3/order", q)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("binance: place order: %w", err)
	}
	return decodeOrderResponse(body)
}

// CancelOrder cancels an open order by exchange id.
func (c *Client) CancelOrder(ctx context.Context, sym domain.Symbol, orderID uint64) (OrderResponse, error) {
	q := &queryBuilder{}
	q.add("symbol", sym.String())
	q.addInt("orderId", int64(orderID))

	body, err := c.doSigned(ctx, http.MethodDelete, "/api/v3/order", q)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("binance: cancel order %d: %w", orderID, err)
	}
	return decodeOrderResponse(body)
}

// QueryOrder fetches the current state of an order by exchange id.
func (c *Client) QueryOrder(ctx context.Context, sym domain.Symbol, orderID uint64) (OrderResponse, error) {
	q := &queryBuilder{}
	q.add("symbol", sym.String())
	q.addInt("orderId", int64(orderID))

	body, err := c.doSigned(ctx, http.MethodGet, "/api/v3/order", q)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("binance: query order %d: %w", orderID, err)
	}
	return decodeOrderResponse(body)
}

// doSigned appends timestamp+signature to the query, attaches the API key
// header, and performs the request.
func (c *Client) doSigned(ctx context.Context, method, endpoint string, q *queryBuilder) ([]byte, error) {
	url := c.baseURL + endpoint + "?" + signedQuery(q, c.secret, c.now())

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// decodeAPIError returns the exchange error carried by body, or nil when the
// payload is not an error object.
func decodeAPIError(body []byte) *apiError {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return nil
	}
	if e.Code == 0 {
		return nil
	}
	return &e
}

func decodeOrderResponse(body []byte) (OrderResponse, error) {
	if apiErr := decodeAPIError(body); apiErr != nil {
		return OrderResponse{}, fmt.Errorf("%w: %s", domain.ErrExchange, apiErr.Msg)
	}
	var resp OrderResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.OrderID == 0 {
		return OrderResponse{}, fmt.Errorf("binance: decode order response: %w", domain.ErrParse)
	}
	return resp, nil
}
