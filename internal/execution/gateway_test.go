package execution

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfall/quantbot/internal/domain"
	"github.com/quantfall/quantbot/internal/platform/binance"
)

// fakeExchange counts calls and returns scripted results.
type fakeExchange struct {
	calls       int
	accountErr  error
	placeResp   binance.OrderResponse
	placeErr    error
	cancelErr   error
	queryResp   binance.OrderResponse
	queryErr    error
	lastSymbol  domain.Symbol
	lastOrderID uint64
}

func (f *fakeExchange) SetCredentials(key, secret string) {}

func (f *fakeExchange) Account(ctx context.Context) (binance.AccountInfo, error) {
	f.calls++
	if f.accountErr != nil {
		return binance.AccountInfo{}, f.accountErr
	}
	return binance.AccountInfo{
		AccountType: "SPOT",
		Balances: []binance.Balance{
			{Asset: "BTC", Free: "0.25"},
			{Asset: "USDT", Free: "5000"},
		},
	}, nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, sym domain.Symbol, side domain.OrderSide, price, quantity float64) (binance.OrderResponse, error) {
	f.calls++
	f.lastSymbol = sym
	return f.placeResp, f.placeErr
}

func (f *fakeExchange) CancelOrder(ctx context.Context, sym domain.Symbol, orderID uint64) (binance.OrderResponse, error) {
	f.calls++
	f.lastSymbol = sym
	f.lastOrderID = orderID
	if f.cancelErr != nil {
		return binance.OrderResponse{}, f.cancelErr
	}
	return binance.OrderResponse{OrderID: orderID, Status: "CANCELED"}, nil
}

func (f *fakeExchange) QueryOrder(ctx context.Context, sym domain.Symbol, orderID uint64) (binance.OrderResponse, error) {
	f.calls++
	f.lastOrderID = orderID
	return f.queryResp, f.queryErr
}

func newConnectedGateway(t *testing.T, ex *fakeExchange) *Gateway {
	t.Helper()
	g := NewGateway(ex, slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.SetCredentials("key", "secret")
	require.NoError(t, g.Connect(context.Background()))
	ex.calls = 0
	return g
}

func TestConnectWithoutCredentials(t *testing.T) {
	ex := &fakeExchange{}
	g := NewGateway(ex, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := g.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, GatewayError, g.State())
	assert.Zero(t, ex.calls, "no network call without credentials")
}

func TestConnectProbeFailure(t *testing.T) {
	ex := &fakeExchange{accountErr: errors.New("boom")}
	g := NewGateway(ex, slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.SetCredentials("key", "secret")

	assert.Error(t, g.Connect(context.Background()))
	assert.Equal(t, GatewayError, g.State())
}

func TestConnectSuccess(t *testing.T) {
	ex := &fakeExchange{}
	g := newConnectedGateway(t, ex)
	assert.Equal(t, GatewayConnected, g.State())
}

func TestSubmitRejectedWhenNotConnected(t *testing.T) {
	ex := &fakeExchange{}
	g := NewGateway(ex, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res := g.SubmitOrder(context.Background(), domain.SymbolBTCUSDT, domain.OrderSideBuy, 0, 1)
	assert.Equal(t, domain.ExecFailed, res.Status)
	assert.Zero(t, ex.calls, "local rejection must not reach the network")
}

func TestSubmitRejectedByRiskLimit(t *testing.T) {
	ex := &fakeExchange{}
	g := newConnectedGateway(t, ex)
	g.SetRiskLimits(domain.RiskLimits{MaxOrderSize: 1.0})

	res := g.SubmitOrder(context.Background(), domain.SymbolBTCUSDT, domain.OrderSideBuy, 0, 2.0)
	assert.Equal(t, domain.ExecFailed, res.Status)
	assert.Contains(t, res.Message, "risk")
	assert.Zero(t, ex.calls, "risk rejection must not reach the network")
}

func TestSubmitFilled(t *testing.T) {
	ex := &fakeExchange{placeResp: binance.OrderResponse{
		OrderID: 42, Status: "FILLED", ExecutedQty: "0.5", Price: "50000",
	}}
	g := newConnectedGateway(t, ex)

	res := g.SubmitOrder(context.Background(), domain.SymbolBTCUSDT, domain.OrderSideBuy, 50000, 0.5)
	assert.Equal(t, domain.ExecSuccess, res.Status)
	assert.Equal(t, uint64(42), res.OrderID)
	assert.Equal(t, 0.5, res.FilledQuantity)

	history := g.OrderHistory(10)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusFilled, history[0].Status)
	assert.Equal(t, domain.OrderTypeLimit, history[0].Type)
}

func TestSubmitPartialFill(t *testing.T) {
	ex := &fakeExchange{placeResp: binance.OrderResponse{
		OrderID: 43, Status: "PARTIALLY_FILLED", ExecutedQty: "0.2",
	}}
	g := newConnectedGateway(t, ex)

	res := g.SubmitOrder(context.Background(), domain.SymbolETHUSDT, domain.OrderSideSell, 0, 0.5)
	assert.Equal(t, domain.ExecPartial, res.Status)

	history := g.OrderHistory(10)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusPartiallyFilled, history[0].Status)
	assert.Equal(t, domain.OrderTypeMarket, history[0].Type)
}

func TestSubmitExchangeErrorNotRecorded(t *testing.T) {
	ex := &fakeExchange{placeErr: domain.ErrExchange}
	g := newConnectedGateway(t, ex)

	res := g.SubmitOrder(context.Background(), domain.SymbolBTCUSDT, domain.OrderSideBuy, 0, 0.5)
	assert.Equal(t, domain.ExecFailed, res.Status)
	assert.Empty(t, g.OrderHistory(10))
}

func TestCancelUsesRecordedSymbol(t *testing.T) {
	ex := &fakeExchange{placeResp: binance.OrderResponse{OrderID: 50, Status: "NEW"}}
	g := newConnectedGateway(t, ex)

	g.SubmitOrder(context.Background(), domain.SymbolETHUSDT, domain.OrderSideBuy, 3000, 0.1)
	require.True(t, g.CancelOrder(context.Background(), 50))
	assert.Equal(t, domain.SymbolETHUSDT, ex.lastSymbol)

	history := g.OrderHistory(1)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusCancelled, history[0].Status)
}

func TestCancelAttemptedForUnknownOrder(t *testing.T) {
	ex := &fakeExchange{}
	g := newConnectedGateway(t, ex)

	assert.True(t, g.CancelOrder(context.Background(), 999))
	assert.Equal(t, uint64(999), ex.lastOrderID)
}

func TestCancelWhenDisconnected(t *testing.T) {
	ex := &fakeExchange{}
	g := newConnectedGateway(t, ex)
	g.Disconnect()

	assert.False(t, g.CancelOrder(context.Background(), 1))
	assert.Zero(t, ex.calls)
}

func TestOrderStatusRefreshesFromExchange(t *testing.T) {
	ex := &fakeExchange{
		placeResp: binance.OrderResponse{OrderID: 60, Status: "NEW"},
		queryResp: binance.OrderResponse{OrderID: 60, Status: "FILLED", ExecutedQty: "0.1"},
	}
	g := newConnectedGateway(t, ex)
	g.SubmitOrder(context.Background(), domain.SymbolBTCUSDT, domain.OrderSideBuy, 50000, 0.1)

	order, err := g.OrderStatus(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, order.Status)
	assert.Equal(t, 0.1, order.FilledQuantity)
}

func TestOrderStatusDoesNotResurrectTerminalOrders(t *testing.T) {
	ex := &fakeExchange{
		placeResp: binance.OrderResponse{OrderID: 61, Status: "FILLED", ExecutedQty: "0.1"},
		queryResp: binance.OrderResponse{OrderID: 61, Status: "NEW"},
	}
	g := newConnectedGateway(t, ex)
	g.SubmitOrder(context.Background(), domain.SymbolBTCUSDT, domain.OrderSideBuy, 0, 0.1)

	order, err := g.OrderStatus(context.Background(), 61)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, order.Status)
}

func TestOrderStatusForUnknownOrderUsesVenueView(t *testing.T) {
	ex := &fakeExchange{
		queryResp: binance.OrderResponse{OrderID: 777, Status: "PARTIALLY_FILLED", ExecutedQty: "0.3"},
	}
	g := newConnectedGateway(t, ex)

	order, err := g.OrderStatus(context.Background(), 777)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), order.ID)
	assert.Equal(t, domain.OrderStatusPartiallyFilled, order.Status)
	assert.Equal(t, 0.3, order.FilledQuantity)
	assert.Empty(t, g.OrderHistory(10), "a venue-only order is not adopted into local history")
}

func TestBalanceReadsBaseAsset(t *testing.T) {
	ex := &fakeExchange{}
	g := newConnectedGateway(t, ex)

	free, err := g.Balance(context.Background(), domain.SymbolBTCUSDT)
	require.NoError(t, err)
	assert.Equal(t, 0.25, free)
}

func TestPositionAlwaysZero(t *testing.T) {
	ex := &fakeExchange{}
	g := newConnectedGateway(t, ex)
	assert.Zero(t, g.Position(domain.SymbolBTCUSDT))
}

func TestOrderHistoryNewestFirst(t *testing.T) {
	ex := &fakeExchange{}
	g := newConnectedGateway(t, ex)

	for i := uint64(1); i <= 3; i++ {
		ex.placeResp = binance.OrderResponse{OrderID: 100 + i, Status: "FILLED"}
		g.SubmitOrder(context.Background(), domain.SymbolBTCUSDT, domain.OrderSideBuy, 0, 0.1)
	}

	history := g.OrderHistory(2)
	require.Len(t, history, 2)
	assert.Equal(t, uint64(103), history[0].ID)
	assert.Equal(t, uint64(102), history[1].ID)
}
