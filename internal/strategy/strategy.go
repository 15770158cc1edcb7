// Package strategy contains the trading strategies and the engine that feeds
// them market data and forwards the signals they emit.
package strategy

import "github.com/quantfall/quantbot/internal/domain"

// Strategy is a self-contained trading rule. Implementations accumulate state
// from the snapshots passed to Evaluate and emit at most one signal per call.
//
// A strategy is driven by exactly one engine goroutine at a time;
// implementations do not need internal locking.
type Strategy interface {
	// Name returns the registry identifier, e.g. "mean_reversion".
	Name() string

	// Evaluate consumes one orderbook snapshot and returns a signal. A
	// signal with Kind SignalNone means no action.
	Evaluate(snap domain.OrderbookSnapshot) domain.TradingSignal

	// Configure replaces the strategy parameters. Accumulated price history
	// is kept.
	Configure(params domain.StrategyParams)

	// Reset discards accumulated state, returning the strategy to its
	// just-constructed condition.
	Reset()
}
