// Package execution owns order placement against the exchange: credential
// handling, the connection probe, pre-trade risk gating, and the local order
// history.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quantfall/quantbot/internal/domain"
	"github.com/quantfall/quantbot/internal/platform/binance"
)

// historyLimit bounds the in-memory order history.
const historyLimit = 1000

// GatewayState is the connection lifecycle state.
type GatewayState int

const (
	GatewayIdle GatewayState = iota
	GatewayConnecting
	GatewayConnected
	GatewayDisconnected
	GatewayError
)

// String returns the lowercase name of the state.
func (s GatewayState) String() string {
	switch s {
	case GatewayConnecting:
		return "connecting"
	case GatewayConnected:
		return "connected"
	case GatewayDisconnected:
		return "disconnected"
	case GatewayError:
		return "error"
	default:
		return "idle"
	}
}

// ExchangeClient is the REST surface the gateway depends on. Satisfied by
// binance.Client.
type ExchangeClient interface {
	SetCredentials(key, secret string)
	Account(ctx context.Context) (binance.AccountInfo, error)
	PlaceOrder(ctx context.Context, sym domain.Symbol, side domain.OrderSide, price, quantity float64) (binance.OrderResponse, error)
	CancelOrder(ctx context.Context, sym domain.Symbol, orderID uint64) (binance.OrderResponse, error)
	QueryOrder(ctx context.Context, sym domain.Symbol, orderID uint64) (binance.OrderResponse, error)
}

// Gateway submits orders to the exchange and tracks them locally. All public
// methods are safe for concurrent use; a single mutex covers every operation,
// which is fine at human-scale order rates.
//
// Failed requests are never retried here. Retry policy belongs to the caller.
type Gateway struct {
	client ExchangeClient
	logger *slog.Logger

	mu      sync.Mutex
	state   GatewayState
	apiKey  string
	secret  string
	limits  domain.RiskLimits
	orders  map[uint64]*domain.Order
	ordered []uint64 // insertion order, for bounded history eviction
}

// NewGateway creates a Gateway in the idle state with default risk limits.
func NewGateway(client ExchangeClient, logger *slog.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: logger.With(slog.String("component", "execution_gateway")),
		state:  GatewayIdle,
		limits: domain.DefaultRiskLimits(),
		orders: make(map[uint64]*domain.Order),
	}
}

// State returns the current connection state.
func (g *Gateway) State() GatewayState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SetCredentials stores the API key pair. Takes effect on the next request.
func (g *Gateway) SetCredentials(key, secret string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apiKey = key
	g.secret = secret
	g.client.SetCredentials(key, secret)
}

// SetRiskLimits replaces the pre-trade limits. Takes effect on the next
// submission.
func (g *Gateway) SetRiskLimits(limits domain.RiskLimits) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits = limits
}

// Connect probes the exchange with an authenticated account request. Empty
// credentials fail immediately without a network call. On any probe failure
// the gateway lands in the error state.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	if g.apiKey == "" || g.secret == "" {
		g.state = GatewayError
		g.mu.Unlock()
		return fmt.Errorf("execution: connect: %w", domain.ErrUnauthorized)
	}
	g.state = GatewayConnecting
	g.mu.Unlock()

	_, err := g.client.Account(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = GatewayError
		g.logger.Error("connection probe failed", slog.String("error", err.Error()))
		return fmt.Errorf("execution: connect: %w", err)
	}
	g.state = GatewayConnected
	g.logger.Info("connected to exchange")
	return nil
}

// Disconnect marks the gateway disconnected. No network call is made; the
// venue has no session to tear down. Idempotent.
func (g *Gateway) Disconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == GatewayDisconnected {
		return
	}
	g.state = GatewayDisconnected
	g.logger.Info("disconnected from exchange")
}

// SubmitOrder places an order for the symbol. It is rejected locally, with no
// network call, when the gateway is not connected or the quantity exceeds the
// max order size. A positive price produces a limit order, zero a market
// order.
func (g *Gateway) SubmitOrder(ctx context.Context, sym domain.Symbol, side domain.OrderSide, price, quantity float64) domain.ExecResult {
	g.mu.Lock()
	if g.state != GatewayConnected {
		g.mu.Unlock()
		return domain.ExecResult{Status: domain.ExecFailed, Message: domain.ErrNotConnected.Error()}
	}
	if quantity > g.limits.MaxOrderSize {
		maxSize := g.limits.MaxOrderSize
		g.mu.Unlock()
		g.logger.Warn("order rejected by risk limits",
			slog.String("symbol", sym.String()),
			slog.Float64("quantity", quantity),
			slog.Float64("max_order_size", maxSize),
		)
		return domain.ExecResult{Status: domain.ExecFailed, Message: domain.ErrRiskRejected.Error()}
	}
	g.mu.Unlock()

	resp, err := g.client.PlaceOrder(ctx, sym, side, price, quantity)
	if err != nil {
		g.logger.Error("order submission failed",
			slog.String("symbol", sym.String()),
			slog.String("error", err.Error()),
		)
		return domain.ExecResult{Status: domain.ExecFailed, Message: err.Error()}
	}

	orderType := domain.OrderTypeMarket
	if price > 0 {
		orderType = domain.OrderTypeLimit
	}
	now := time.Now().UTC()
	order := &domain.Order{
		ID:             resp.OrderID,
		Symbol:         sym,
		Side:           side,
		Type:           orderType,
		Price:          price,
		Quantity:       quantity,
		FilledQuantity: resp.ExecutedQuantity(),
		Status:         statusFromExchange(resp.Status),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	g.recordOrder(order)

	g.logger.Info("order submitted",
		slog.Uint64("order_id", resp.OrderID),
		slog.String("symbol", sym.String()),
		slog.String("side", string(side)),
		slog.String("status", resp.Status),
	)

	result := domain.ExecResult{
		OrderID:        resp.OrderID,
		FilledQuantity: resp.ExecutedQuantity(),
		AveragePrice:   resp.PriceValue(),
	}
	switch resp.Status {
	case "FILLED":
		result.Status = domain.ExecSuccess
	case "PARTIALLY_FILLED":
		result.Status = domain.ExecPartial
	default:
		result.Status = domain.ExecSuccess
		result.Message = resp.Status
	}
	return result
}

// CancelOrder cancels an order by exchange id. The cancel is attempted even
// when the order is unknown locally; the exchange is authoritative. The
// symbol is taken from local history when available, falling back to the
// first tracked pair.
func (g *Gateway) CancelOrder(ctx context.Context, orderID uint64) bool {
	g.mu.Lock()
	if g.state != GatewayConnected {
		g.mu.Unlock()
		return false
	}
	sym := domain.SymbolBTCUSDT
	if order, ok := g.orders[orderID]; ok {
		sym = order.Symbol
	}
	g.mu.Unlock()

	_, err := g.client.CancelOrder(ctx, sym, orderID)
	if err != nil {
		g.logger.Warn("cancel failed",
			slog.Uint64("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return false
	}

	g.mu.Lock()
	if order, ok := g.orders[orderID]; ok && !order.Status.Terminal() {
		order.Status = domain.OrderStatusCancelled
		order.UpdatedAt = time.Now().UTC()
	}
	g.mu.Unlock()

	g.logger.Info("order cancelled", slog.Uint64("order_id", orderID))
	return true
}

// OrderStatus refreshes and returns the order's state from the exchange. For
// orders the venue knows but local history does not, the venue's view is
// returned as-is.
func (g *Gateway) OrderStatus(ctx context.Context, orderID uint64) (domain.Order, error) {
	g.mu.Lock()
	if g.state != GatewayConnected {
		g.mu.Unlock()
		return domain.Order{}, fmt.Errorf("execution: order status: %w", domain.ErrNotConnected)
	}
	sym := domain.SymbolBTCUSDT
	local, known := g.orders[orderID]
	if known {
		sym = local.Symbol
	}
	g.mu.Unlock()

	resp, err := g.client.QueryOrder(ctx, sym, orderID)
	if err != nil {
		if known {
			return *local, nil
		}
		return domain.Order{}, fmt.Errorf("execution: order status %d: %w", orderID, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	order, ok := g.orders[orderID]
	if !ok {
		// Known to the venue but not locally (e.g. placed before a restart).
		// The venue is authoritative, so report what it returned.
		return domain.Order{
			ID:             resp.OrderID,
			Symbol:         sym,
			Status:         statusFromExchange(resp.Status),
			Price:          resp.PriceValue(),
			FilledQuantity: resp.ExecutedQuantity(),
			UpdatedAt:      time.Now().UTC(),
		}, nil
	}
	// Status only moves forward; a stale exchange read cannot resurrect a
	// terminal order.
	if !order.Status.Terminal() {
		order.Status = statusFromExchange(resp.Status)
		order.FilledQuantity = resp.ExecutedQuantity()
		order.UpdatedAt = time.Now().UTC()
	}
	return *order, nil
}

// OrderHistory returns up to max orders, newest first.
func (g *Gateway) OrderHistory(max int) []domain.Order {
	if max <= 0 {
		max = 20
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.ordered)
	if max > n {
		max = n
	}
	out := make([]domain.Order, 0, max)
	for i := n - 1; i >= n-max; i-- {
		if order, ok := g.orders[g.ordered[i]]; ok {
			out = append(out, *order)
		}
	}
	return out
}

// Balance returns the free balance of the symbol's base asset.
func (g *Gateway) Balance(ctx context.Context, sym domain.Symbol) (float64, error) {
	g.mu.Lock()
	connected := g.state == GatewayConnected
	g.mu.Unlock()
	if !connected {
		return 0, fmt.Errorf("execution: balance: %w", domain.ErrNotConnected)
	}

	acct, err := g.client.Account(ctx)
	if err != nil {
		return 0, fmt.Errorf("execution: balance %s: %w", sym, err)
	}
	return acct.Free(sym.BaseAsset()), nil
}

// Position always returns 0: a spot venue has no position concept.
func (g *Gateway) Position(sym domain.Symbol) float64 {
	_ = sym
	return 0
}

// recordOrder stores the order in bounded history, evicting oldest entries.
func (g *Gateway) recordOrder(order *domain.Order) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.orders[order.ID] = order
	g.ordered = append(g.ordered, order.ID)
	if overflow := len(g.ordered) - historyLimit; overflow > 0 {
		for _, id := range g.ordered[:overflow] {
			delete(g.orders, id)
		}
		g.ordered = append([]uint64(nil), g.ordered[overflow:]...)
	}
}

// statusFromExchange maps venue order statuses onto the local lifecycle.
func statusFromExchange(status string) domain.OrderStatus {
	switch status {
	case "FILLED":
		return domain.OrderStatusFilled
	case "PARTIALLY_FILLED":
		return domain.OrderStatusPartiallyFilled
	case "CANCELED", "EXPIRED":
		return domain.OrderStatusCancelled
	case "REJECTED":
		return domain.OrderStatusRejected
	default:
		return domain.OrderStatusPending
	}
}
