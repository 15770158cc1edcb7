package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfall/quantbot/internal/domain"
)

// stubStrategy emits a fixed signal kind on every evaluation and records
// lifecycle calls.
type stubStrategy struct {
	name       string
	kind       domain.SignalKind
	evaluated  int
	resets     int
	configured int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Evaluate(snap domain.OrderbookSnapshot) domain.TradingSignal {
	s.evaluated++
	return domain.TradingSignal{
		Kind:   s.kind,
		Symbol: snap.Symbol,
		Price:  snap.MidPrice(),
	}
}

func (s *stubStrategy) Configure(domain.StrategyParams) { s.configured++ }
func (s *stubStrategy) Reset()                          { s.resets++ }

func newTestEngine(t *testing.T, strategies ...Strategy) (*Engine, chan domain.TradingSignal) {
	t.Helper()
	reg := NewRegistry()
	for _, s := range strategies {
		reg.Register(s)
	}
	ch := make(chan domain.TradingSignal, 8)
	return NewEngine(reg, ch, testLogger()), ch
}

func TestStartWithoutStrategyFails(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoStrategy)
	assert.Equal(t, EngineStopped, e.Status())
}

func TestProcessOnlyWhileRunning(t *testing.T) {
	stub := &stubStrategy{name: "stub", kind: domain.SignalBuy}
	e, ch := newTestEngine(t, stub)
	require.NoError(t, e.SetStrategy("stub", domain.DefaultStrategyParams()))

	// Stopped: dropped.
	e.Process(midSnapshot(100))
	assert.Zero(t, stub.evaluated)

	require.NoError(t, e.Start())
	e.Process(midSnapshot(100))
	assert.Equal(t, 1, stub.evaluated)
	require.Len(t, ch, 1)

	// Paused: dropped.
	e.Pause()
	assert.Equal(t, EnginePaused, e.Status())
	e.Process(midSnapshot(100))
	assert.Equal(t, 1, stub.evaluated)

	e.Resume()
	e.Process(midSnapshot(100))
	assert.Equal(t, 2, stub.evaluated)
}

func TestActionableSignalsGetIDs(t *testing.T) {
	stub := &stubStrategy{name: "stub", kind: domain.SignalBuy}
	e, ch := newTestEngine(t, stub)
	require.NoError(t, e.SetStrategy("stub", domain.DefaultStrategyParams()))
	require.NoError(t, e.Start())

	e.Process(midSnapshot(100))
	sig := <-ch
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, domain.SignalBuy, sig.Kind)

	recent := e.RecentSignals(10)
	require.Len(t, recent, 1)
	assert.Equal(t, sig.ID, recent[0].ID)
}

func TestNonActionableSignalsAreNotEmitted(t *testing.T) {
	stub := &stubStrategy{name: "stub", kind: domain.SignalHold}
	e, ch := newTestEngine(t, stub)
	require.NoError(t, e.SetStrategy("stub", domain.DefaultStrategyParams()))
	require.NoError(t, e.Start())

	e.Process(midSnapshot(100))
	assert.Empty(t, ch)
	assert.Empty(t, e.RecentSignals(10))
}

func TestSetStrategyResetsOutgoingConfiguresIncoming(t *testing.T) {
	first := &stubStrategy{name: "first", kind: domain.SignalBuy}
	second := &stubStrategy{name: "second", kind: domain.SignalSell}
	e, _ := newTestEngine(t, first, second)

	require.NoError(t, e.SetStrategy("first", domain.DefaultStrategyParams()))
	assert.Equal(t, 1, first.configured)

	require.NoError(t, e.Start())
	require.NoError(t, e.SetStrategy("second", domain.DefaultStrategyParams()))
	assert.Equal(t, 1, first.resets)
	assert.Equal(t, 1, second.configured)
	assert.Equal(t, "second", e.ActiveName())

	// The engine stays running across a hot swap.
	assert.Equal(t, EngineRunning, e.Status())
}

func TestSetStrategyUnknownName(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.SetStrategy("missing", domain.DefaultStrategyParams())
	assert.Error(t, err)
}

func TestStopResetsActiveStrategy(t *testing.T) {
	stub := &stubStrategy{name: "stub", kind: domain.SignalBuy}
	e, _ := newTestEngine(t, stub)
	require.NoError(t, e.SetStrategy("stub", domain.DefaultStrategyParams()))
	require.NoError(t, e.Start())

	e.Stop()
	assert.Equal(t, EngineStopped, e.Status())
	assert.Equal(t, 1, stub.resets)
}

func TestFullChannelDropsInsteadOfBlocking(t *testing.T) {
	stub := &stubStrategy{name: "stub", kind: domain.SignalBuy}
	reg := NewRegistry()
	reg.Register(stub)
	ch := make(chan domain.TradingSignal, 1)
	e := NewEngine(reg, ch, testLogger())
	require.NoError(t, e.SetStrategy("stub", domain.DefaultStrategyParams()))
	require.NoError(t, e.Start())

	e.Process(midSnapshot(100))
	e.Process(midSnapshot(100)) // channel full, must not block
	assert.Len(t, ch, 1)
	assert.Len(t, e.RecentSignals(10), 1)
}
