package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfall/quantbot/internal/domain"
)

// RSI trades on the relative strength index over a fixed window of mid-price
// changes. Readings below RSIOversold are buys, above RSIOverbought sells.
//
// Gains and losses are simple window averages; there is no Wilder smoothing.
type RSI struct {
	params  domain.StrategyParams
	history priceHistory
	logger  *slog.Logger
}

// NewRSI creates an RSI strategy over RSIPeriod price changes.
func NewRSI(params domain.StrategyParams, logger *slog.Logger) *RSI {
	return &RSI{
		params: params,
		logger: logger.With(slog.String("strategy", "rsi")),
	}
}

// Name returns the strategy identifier.
func (r *RSI) Name() string { return "rsi" }

// Configure replaces the parameters. History is kept.
func (r *RSI) Configure(params domain.StrategyParams) {
	r.params = params
}

// Reset discards accumulated price history.
func (r *RSI) Reset() {
	r.history.reset()
}

// Evaluate records the snapshot's mid price and computes the RSI once enough
// observations have accumulated.
func (r *RSI) Evaluate(snap domain.OrderbookSnapshot) domain.TradingSignal {
	mid, ok := r.history.observe(snap)
	if !ok {
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	// period diffs need period+1 prices.
	window := r.history.window(snap.Symbol, r.params.RSIPeriod+1)
	if window == nil {
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	rsi := computeRSI(window)

	var kind domain.SignalKind
	switch {
	case rsi < r.params.RSIOversold:
		kind = domain.SignalBuy
	case rsi > r.params.RSIOverbought:
		kind = domain.SignalSell
	default:
		return domain.TradingSignal{Kind: domain.SignalNone}
	}

	r.logger.Info("rsi trigger",
		slog.String("symbol", snap.Symbol.String()),
		slog.String("kind", kind.String()),
		slog.Float64("rsi", rsi),
	)

	confidence := rsi / 100
	if kind == domain.SignalBuy {
		confidence = 1 - confidence
	}

	return domain.TradingSignal{
		Kind:       kind,
		Symbol:     snap.Symbol,
		Price:      mid,
		Quantity:   r.params.OrderQuantity,
		Confidence: confidence,
		Reason:     fmt.Sprintf("rsi: value=%.2f", rsi),
		Timestamp:  time.Now().UTC(),
	}
}

// computeRSI returns the relative strength index of the window, in [0, 100].
// An all-gain window yields 100.
func computeRSI(window []float64) float64 {
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		diff := window[i] - window[i-1]
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}

	period := float64(len(window) - 1)
	avgGain := gains / period
	avgLoss := losses / period

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
