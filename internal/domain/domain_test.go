package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbolAcceptsBothForms(t *testing.T) {
	sym, ok := ParseSymbol("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, SymbolBTCUSDT, sym)

	sym, ok = ParseSymbol("eth_usdt")
	require.True(t, ok)
	assert.Equal(t, SymbolETHUSDT, sym)

	_, ok = ParseSymbol("DOGEUSDT")
	assert.False(t, ok)
}

func TestSymbolFromStream(t *testing.T) {
	sym, ok := SymbolFromStream("btcusdt@depth20@100ms")
	require.True(t, ok)
	assert.Equal(t, SymbolBTCUSDT, sym)

	_, ok = SymbolFromStream("xrpusdt@depth20@100ms")
	assert.False(t, ok)
}

func TestBaseAsset(t *testing.T) {
	assert.Equal(t, "BTC", SymbolBTCUSDT.BaseAsset())
	assert.Equal(t, "ETH", SymbolETHUSDT.BaseAsset())
	assert.Equal(t, "BTC", SymbolBTCETH.BaseAsset())
}

func TestSnapshotMidAndSpreadNeedBothSides(t *testing.T) {
	snap := OrderbookSnapshot{
		Symbol: SymbolBTCUSDT,
		Bids:   []PriceLevel{{Price: 100, Quantity: 1}},
	}
	assert.Zero(t, snap.MidPrice())
	assert.Zero(t, snap.Spread())
	assert.False(t, snap.Valid())

	snap.Asks = []PriceLevel{{Price: 102, Quantity: 1}}
	assert.Equal(t, 101.0, snap.MidPrice())
	assert.Equal(t, 2.0, snap.Spread())
	assert.True(t, snap.Valid())
}

func TestClampDepth(t *testing.T) {
	snap := OrderbookSnapshot{Symbol: SymbolBTCUSDT}
	for i := 0; i < DepthLimit+5; i++ {
		snap.Bids = append(snap.Bids, PriceLevel{Price: float64(100 - i), Quantity: 1})
	}
	snap.ClampDepth()
	assert.Len(t, snap.Bids, DepthLimit)
	assert.Equal(t, 100.0, snap.Bids[0].Price)
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusFilled.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.True(t, OrderStatusRejected.Terminal())
	assert.False(t, OrderStatusPending.Terminal())
	assert.False(t, OrderStatusPartiallyFilled.Terminal())
}

func TestSignalKindActionable(t *testing.T) {
	assert.True(t, SignalBuy.Actionable())
	assert.True(t, SignalSell.Actionable())
	assert.False(t, SignalNone.Actionable())
	assert.False(t, SignalHold.Actionable())
}
