package binance

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfall/quantbot/internal/domain"
)

func collectSnapshots(w *StreamClient) *[]domain.OrderbookSnapshot {
	var got []domain.OrderbookSnapshot
	w.OnSnapshot(func(snap domain.OrderbookSnapshot) {
		got = append(got, snap)
	})
	return &got
}

func TestHandleMessageBarePayload(t *testing.T) {
	w := NewStreamClient("", domain.SymbolETHUSDT)
	got := collectSnapshots(w)

	w.handleMessage([]byte(`{"bids":[["3000.5","2.0"]],"asks":[["3001.0","1.5"]]}`))

	require.Len(t, *got, 1)
	snap := (*got)[0]
	assert.Equal(t, domain.SymbolETHUSDT, snap.Symbol)
	assert.Equal(t, 3000.5, snap.BestBid())
	assert.Equal(t, 3001.0, snap.BestAsk())
}

func TestHandleMessageEnvelopeOverridesSymbol(t *testing.T) {
	w := NewStreamClient("", domain.SymbolETHUSDT)
	got := collectSnapshots(w)

	w.handleMessage([]byte(`{"stream":"btcusdt@depth20@100ms","data":{"bids":[["50000","1"]],"asks":[["50001","1"]]}}`))

	require.Len(t, *got, 1)
	assert.Equal(t, domain.SymbolBTCUSDT, (*got)[0].Symbol)
}

func TestHandleMessageClampsDepth(t *testing.T) {
	w := NewStreamClient("", domain.SymbolBTCUSDT)
	got := collectSnapshots(w)

	var bids []string
	for i := 0; i < 30; i++ {
		bids = append(bids, fmt.Sprintf(`["%d","1.0"]`, 50000-i))
	}
	msg := `{"bids":[` + strings.Join(bids, ",") + `],"asks":[["50001","1"]]}`
	w.handleMessage([]byte(msg))

	require.Len(t, *got, 1)
	assert.Len(t, (*got)[0].Bids, domain.DepthLimit)
}

func TestHandleMessageDropsGarbage(t *testing.T) {
	w := NewStreamClient("", domain.SymbolBTCUSDT)
	got := collectSnapshots(w)

	w.handleMessage([]byte(`not json at all`))
	w.handleMessage([]byte(`{"result":null,"id":1}`))
	w.handleMessage([]byte(`{"bids":[],"asks":[]}`))

	assert.Empty(t, *got)
}

func TestHandleMessageDropsUnparseableLevels(t *testing.T) {
	w := NewStreamClient("", domain.SymbolBTCUSDT)
	got := collectSnapshots(w)

	w.handleMessage([]byte(`{"bids":[["oops","1"],["49999","1"]],"asks":[["50001","1"]]}`))

	require.Len(t, *got, 1)
	require.Len(t, (*got)[0].Bids, 1)
	assert.Equal(t, 49999.0, (*got)[0].BestBid())
}
