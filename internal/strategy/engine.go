package strategy

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/quantfall/quantbot/internal/domain"
)

// EngineStatus is the lifecycle state of the engine.
type EngineStatus int

const (
	EngineStopped EngineStatus = iota
	EngineRunning
	EnginePaused
)

// String returns the lowercase name of the engine status.
func (s EngineStatus) String() string {
	switch s {
	case EngineRunning:
		return "running"
	case EnginePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Engine drives the active strategy with market data and forwards the signals
// it emits. Market data is processed only while the engine is running; when
// stopped or paused, snapshots are dropped on the floor.
type Engine struct {
	registry *Registry
	signalCh chan<- domain.TradingSignal
	logger   *slog.Logger

	mu     sync.Mutex
	active Strategy
	status EngineStatus

	recentSignals []domain.TradingSignal
	recentLimit   int
}

// NewEngine creates an Engine. Emitted signals are sent to signalCh, which
// the executor layer consumes.
func NewEngine(registry *Registry, signalCh chan<- domain.TradingSignal, logger *slog.Logger) *Engine {
	return &Engine{
		registry:    registry,
		signalCh:    signalCh,
		logger:      logger.With(slog.String("component", "strategy_engine")),
		recentLimit: 500,
	}
}

// Status returns the current lifecycle state.
func (e *Engine) Status() EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// ActiveName returns the active strategy's name, or "" when none is set.
func (e *Engine) ActiveName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ""
	}
	return e.active.Name()
}

// ListNames returns the names of all registered strategies in sorted order.
func (e *Engine) ListNames() []string {
	return e.registry.List()
}

// SetStrategy switches the active strategy to the one registered under name.
// The outgoing strategy is reset and the incoming one is configured with
// params. Switching is allowed in any lifecycle state.
func (e *Engine) SetStrategy(name string, params domain.StrategyParams) error {
	s, err := e.registry.Get(name)
	if err != nil {
		return fmt.Errorf("strategy: set active: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil && e.active != s {
		e.active.Reset()
	}
	s.Configure(params)
	e.active = s

	e.logger.Info("active strategy changed", slog.String("strategy", name))
	return nil
}

// Start moves the engine to running. It fails when no strategy has been set.
// Starting an already-running engine is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return fmt.Errorf("strategy: start: %w", domain.ErrNoStrategy)
	}
	if e.status == EngineRunning {
		return nil
	}
	e.status = EngineRunning
	e.logger.Info("engine started", slog.String("strategy", e.active.Name()))
	return nil
}

// Pause suspends processing without discarding strategy state. Only a running
// engine can pause.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != EngineRunning {
		return
	}
	e.status = EnginePaused
	e.logger.Info("engine paused")
}

// Resume returns a paused engine to running.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != EnginePaused {
		return
	}
	e.status = EngineRunning
	e.logger.Info("engine resumed")
}

// Stop halts processing and resets the active strategy's accumulated state.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == EngineStopped {
		return
	}
	e.status = EngineStopped
	if e.active != nil {
		e.active.Reset()
	}
	e.logger.Info("engine stopped")
}

// Process feeds one snapshot to the active strategy and emits the resulting
// signal when it is actionable. Snapshots arriving while the engine is not
// running are dropped.
func (e *Engine) Process(snap domain.OrderbookSnapshot) {
	e.mu.Lock()
	if e.status != EngineRunning || e.active == nil {
		e.mu.Unlock()
		return
	}
	active := e.active
	e.mu.Unlock()

	sig := active.Evaluate(snap)
	if !sig.Kind.Actionable() {
		return
	}

	sig.ID = uuid.New().String()
	e.emit(sig)
}

// RecentSignals returns up to limit most recent emitted signals, newest
// first.
func (e *Engine) RecentSignals(limit int) []domain.TradingSignal {
	if limit <= 0 {
		limit = 20
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.recentSignals)
	if limit > n {
		limit = n
	}
	out := make([]domain.TradingSignal, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.recentSignals[i])
	}
	return out
}

// emit forwards the signal to the executor channel. A full channel drops the
// signal rather than stalling the market data path.
func (e *Engine) emit(sig domain.TradingSignal) {
	select {
	case e.signalCh <- sig:
		e.rememberSignal(sig)
		e.logger.Debug("signal emitted",
			slog.String("signal_id", sig.ID),
			slog.String("kind", sig.Kind.String()),
			slog.String("symbol", sig.Symbol.String()),
		)
	default:
		e.logger.Warn("signal channel full, dropping signal",
			slog.String("signal_id", sig.ID),
			slog.String("symbol", sig.Symbol.String()),
		)
	}
}

func (e *Engine) rememberSignal(sig domain.TradingSignal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recentSignals = append(e.recentSignals, sig)
	if overflow := len(e.recentSignals) - e.recentLimit; overflow > 0 {
		e.recentSignals = append([]domain.TradingSignal(nil), e.recentSignals[overflow:]...)
	}
}
