package strategy

import (
	"math"

	"github.com/quantfall/quantbot/internal/domain"
)

// historyCapacity is the number of mid prices retained per symbol. Old points
// are dropped FIFO once the window is full.
const historyCapacity = 100

// priceHistory keeps a bounded window of observed mid prices per symbol.
// Strategies share this type so the windowing behavior stays uniform.
type priceHistory struct {
	prices [domain.NumSymbols][]float64
}

// observe appends the snapshot's mid price to the symbol's window. Snapshots
// with an empty side contribute nothing.
func (h *priceHistory) observe(snap domain.OrderbookSnapshot) (mid float64, ok bool) {
	if !snap.Symbol.Valid() {
		return 0, false
	}
	mid = snap.MidPrice()
	if mid <= 0 {
		return 0, false
	}

	w := append(h.prices[snap.Symbol], mid)
	if len(w) > historyCapacity {
		w = w[len(w)-historyCapacity:]
	}
	h.prices[snap.Symbol] = w
	return mid, true
}

// window returns the most recent n prices for the symbol, or nil when fewer
// than n have been observed.
func (h *priceHistory) window(sym domain.Symbol, n int) []float64 {
	w := h.prices[sym]
	if n <= 0 || len(w) < n {
		return nil
	}
	return w[len(w)-n:]
}

// size returns the number of prices currently held for the symbol.
func (h *priceHistory) size(sym domain.Symbol) int {
	if !sym.Valid() {
		return 0
	}
	return len(h.prices[sym])
}

// reset discards all windows.
func (h *priceHistory) reset() {
	for i := range h.prices {
		h.prices[i] = nil
	}
}

// mean returns the arithmetic mean of the window.
func mean(window []float64) float64 {
	var sum float64
	for _, p := range window {
		sum += p
	}
	return sum / float64(len(window))
}

// stddev returns the population standard deviation of the window.
func stddev(window []float64, mean float64) float64 {
	var variance float64
	for _, p := range window {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(window))
	return math.Sqrt(variance)
}
