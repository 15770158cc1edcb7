package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/quantfall/quantbot/internal/domain"
)

// MeanReversion sells when the mid price sits significantly above its recent
// mean and buys when it sits significantly below. "Significantly" is measured
// in multiples of the trailing population standard deviation (the
// z_score_threshold parameter).
type MeanReversion struct {
	params  domain.StrategyParams
	history priceHistory
	logger  *slog.Logger
}

// NewMeanReversion creates a MeanReversion strategy. LookbackPeriod controls
// how many mid prices feed the mean and deviation; ZScoreThreshold sets the
// trigger distance in standard deviations.
func NewMeanReversion(params domain.StrategyParams, logger *slog.Logger) *MeanReversion {
	return &MeanReversion{
		params: params,
		logger: logger.With(slog.String("strategy", "mean_reversion")),
	}
}

// Name returns the strategy identifier.
func (mr *MeanReversion) Name() string { return "mean_reversion" }

// Configure replaces the parameters. History is kept.
func (mr *MeanReversion) Configure(params domain.StrategyParams) {
	mr.params = params
}

// Reset discards accumulated price history.
func (mr *MeanReversion) Reset() {
	mr.history.reset()
}

// Evaluate records the snapshot's mid price and checks its deviation from the
// trailing mean.
func (mr *MeanReversion) Evaluate(snap domain.OrderbookSnapshot) domain.TradingSignal {
	mid, ok := mr.history.observe(snap)
	if !ok {
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	window := mr.history.window(snap.Symbol, mr.params.LookbackPeriod)
	if window == nil {
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	avg := mean(window)
	dev := stddev(window, avg)
	if dev == 0 {
		// Flat window, a z-score would divide by zero.
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	z := (mid - avg) / dev
	threshold := mr.params.ZScoreThreshold

	var kind domain.SignalKind
	switch {
	case z > threshold:
		kind = domain.SignalSell
	case z < -threshold:
		kind = domain.SignalBuy
	default:
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	mr.logger.Info("deviation trigger",
		slog.String("symbol", snap.Symbol.String()),
		slog.String("kind", kind.String()),
		slog.Float64("mid", mid),
		slog.Float64("mean", avg),
		slog.Float64("z", z),
	)

	return domain.TradingSignal{
		Kind:       kind,
		Symbol:     snap.Symbol,
		Price:      mid,
		Quantity:   mr.params.OrderQuantity,
		Confidence: math.Min(math.Abs(z)/threshold, 1.0),
		Reason:     fmt.Sprintf("mean reversion: mid=%.4f mean=%.4f z=%.2f", mid, avg, z),
		Timestamp:  time.Now().UTC(),
	}
}
