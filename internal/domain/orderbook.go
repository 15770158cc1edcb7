package domain

// DepthLimit is the maximum number of levels kept per orderbook side. It is
// enforced where data enters the system (feed and REST parsing), not inside
// consumers.
const DepthLimit = 20

// PriceLevel is a single price+quantity entry in an orderbook side.
type PriceLevel struct {
	Price     float64
	Quantity  float64
	Timestamp uint64 // ms epoch
}

// OrderbookSnapshot is a point-in-time capture of the top levels of one
// symbol's book. Both sides are ordered best-first and are trusted to arrive
// already sorted from the feed; no component re-sorts them.
type OrderbookSnapshot struct {
	Symbol    Symbol
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp uint64 // ms epoch
}

// BestBid returns the top-of-book bid price, or 0 when the bid side is empty.
func (s OrderbookSnapshot) BestBid() float64 {
	if len(s.Bids) == 0 {
		return 0
	}
	return s.Bids[0].Price
}

// BestAsk returns the top-of-book ask price, or 0 when the ask side is empty.
func (s OrderbookSnapshot) BestAsk() float64 {
	if len(s.Asks) == 0 {
		return 0
	}
	return s.Asks[0].Price
}

// MidPrice returns (best_bid + best_ask) / 2, or 0 unless both sides are
// non-empty.
func (s OrderbookSnapshot) MidPrice() float64 {
	bid, ask := s.BestBid(), s.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread returns best_ask - best_bid, or 0 unless both sides are non-empty.
func (s OrderbookSnapshot) Spread() float64 {
	bid, ask := s.BestBid(), s.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return ask - bid
}

// Valid reports whether both sides are non-empty with strictly positive best
// prices.
func (s OrderbookSnapshot) Valid() bool {
	return len(s.Bids) > 0 && len(s.Asks) > 0 && s.Bids[0].Price > 0 && s.Asks[0].Price > 0
}

// ClampDepth truncates both sides to DepthLimit levels. Parsers call this so
// downstream code never sees more than DepthLimit entries per side.
func (s *OrderbookSnapshot) ClampDepth() {
	if len(s.Bids) > DepthLimit {
		s.Bids = s.Bids[:DepthLimit]
	}
	if len(s.Asks) > DepthLimit {
		s.Asks = s.Asks[:DepthLimit]
	}
}
