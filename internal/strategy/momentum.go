package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/quantfall/quantbot/internal/domain"
)

// Momentum compares a short moving average against a long one and follows the
// trend: a short average sufficiently above the long average is a buy, below
// it a sell. MomentumThreshold is the relative gap that triggers.
type Momentum struct {
	params  domain.StrategyParams
	history priceHistory
	logger  *slog.Logger
}

// NewMomentum creates a Momentum strategy using ShortPeriod and LongPeriod
// moving averages.
func NewMomentum(params domain.StrategyParams, logger *slog.Logger) *Momentum {
	return &Momentum{
		params: params,
		logger: logger.With(slog.String("strategy", "momentum")),
	}
}

// Name returns the strategy identifier.
func (m *Momentum) Name() string { return "momentum" }

// Configure replaces the parameters. History is kept.
func (m *Momentum) Configure(params domain.StrategyParams) {
	m.params = params
}

// Reset discards accumulated price history.
func (m *Momentum) Reset() {
	m.history.reset()
}

// Evaluate records the snapshot's mid price and compares the short and long
// moving averages over the most recent observations.
func (m *Momentum) Evaluate(snap domain.OrderbookSnapshot) domain.TradingSignal {
	if _, ok := m.history.observe(snap); !ok {
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	longWindow := m.history.window(snap.Symbol, m.params.LongPeriod)
	shortWindow := m.history.window(snap.Symbol, m.params.ShortPeriod)
	if longWindow == nil || shortWindow == nil {
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	shortMA := mean(shortWindow)
	longMA := mean(longWindow)
	if longMA == 0 {
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	momentum := (shortMA - longMA) / longMA
	threshold := m.params.MomentumThreshold

	var kind domain.SignalKind
	switch {
	case momentum > threshold:
		kind = domain.SignalBuy
	case momentum < -threshold:
		kind = domain.SignalSell
	default:
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	m.logger.Info("momentum trigger",
		slog.String("symbol", snap.Symbol.String()),
		slog.String("kind", kind.String()),
		slog.Float64("short_ma", shortMA),
		slog.Float64("long_ma", longMA),
		slog.Float64("momentum", momentum),
	)

	return domain.TradingSignal{
		Kind:       kind,
		Symbol:     snap.Symbol,
		Price:      shortMA,
		Quantity:   m.params.OrderQuantity,
		Confidence: math.Min(math.Abs(momentum)/threshold, 1.0),
		Reason:     fmt.Sprintf("momentum: short=%.4f long=%.4f m=%.4f", shortMA, longMA, momentum),
		Timestamp:  time.Now().UTC(),
	}
}
