package domain

import "time"

// SignalKind is the directional outcome of a strategy evaluation.
type SignalKind int

const (
	SignalNone SignalKind = iota
	SignalBuy
	SignalSell
	SignalHold
)

// String returns the lowercase name of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalNone:
		return "none"
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	case SignalHold:
		return "hold"
	default:
		return "unknown"
	}
}

// Actionable reports whether the signal should reach the execution layer.
func (k SignalKind) Actionable() bool {
	return k == SignalBuy || k == SignalSell
}

// TradingSignal is emitted by a strategy when market state warrants action.
// Confidence is informational only; nothing in the execution path gates on it.
type TradingSignal struct {
	ID         string // UUID, assigned by the engine
	Kind       SignalKind
	Symbol     Symbol
	Price      float64
	Quantity   float64
	Confidence float64
	Reason     string
	Timestamp  time.Time
}
