// Package orderbook holds the in-memory snapshot store shared by the feed,
// the strategy engine, and the operator-facing queries.
package orderbook

import (
	"fmt"
	"sync"

	"github.com/quantfall/quantbot/internal/domain"
)

// Store keeps the latest orderbook snapshot per symbol. Writers replace whole
// snapshots; readers always observe a complete book, never a partially
// written one.
type Store struct {
	mu    sync.RWMutex
	books map[domain.Symbol]domain.OrderbookSnapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{
		books: make(map[domain.Symbol]domain.OrderbookSnapshot, domain.NumSymbols),
	}
}

// Update replaces the stored snapshot for its symbol. Snapshots for unknown
// symbols are rejected.
func (s *Store) Update(snap domain.OrderbookSnapshot) error {
	if !snap.Symbol.Valid() {
		return fmt.Errorf("orderbook: update: invalid symbol %d", snap.Symbol)
	}
	snap.ClampDepth()

	s.mu.Lock()
	s.books[snap.Symbol] = snap
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the latest snapshot for the symbol.
func (s *Store) Get(sym domain.Symbol) (domain.OrderbookSnapshot, error) {
	s.mu.RLock()
	snap, ok := s.books[sym]
	s.mu.RUnlock()

	if !ok {
		return domain.OrderbookSnapshot{}, fmt.Errorf("orderbook: %s: %w", sym, domain.ErrNotFound)
	}
	return snap, nil
}

// BestBid returns the top bid price for the symbol, or 0 when absent.
func (s *Store) BestBid(sym domain.Symbol) float64 {
	snap, err := s.Get(sym)
	if err != nil {
		return 0
	}
	return snap.BestBid()
}

// BestAsk returns the top ask price for the symbol, or 0 when absent.
func (s *Store) BestAsk(sym domain.Symbol) float64 {
	snap, err := s.Get(sym)
	if err != nil {
		return 0
	}
	return snap.BestAsk()
}

// MidPrice returns the midpoint price for the symbol, or 0 unless both sides
// are populated.
func (s *Store) MidPrice(sym domain.Symbol) float64 {
	snap, err := s.Get(sym)
	if err != nil {
		return 0
	}
	return snap.MidPrice()
}

// Spread returns best ask minus best bid for the symbol, or 0 unless both
// sides are populated.
func (s *Store) Spread(sym domain.Symbol) float64 {
	snap, err := s.Get(sym)
	if err != nil {
		return 0
	}
	return snap.Spread()
}

// BidDepth sums the quantity over the top levels of the bid side, consuming
// at most the number of levels actually present.
func (s *Store) BidDepth(sym domain.Symbol, levels int) float64 {
	snap, err := s.Get(sym)
	if err != nil {
		return 0
	}
	return sumDepth(snap.Bids, levels)
}

// AskDepth sums the quantity over the top levels of the ask side, consuming
// at most the number of levels actually present.
func (s *Store) AskDepth(sym domain.Symbol, levels int) float64 {
	snap, err := s.Get(sym)
	if err != nil {
		return 0
	}
	return sumDepth(snap.Asks, levels)
}

// Timestamp returns the capture time (ms epoch) of the stored snapshot, or 0
// when absent.
func (s *Store) Timestamp(sym domain.Symbol) uint64 {
	snap, err := s.Get(sym)
	if err != nil {
		return 0
	}
	return snap.Timestamp
}

// Valid reports whether the symbol has a snapshot with both sides populated.
func (s *Store) Valid(sym domain.Symbol) bool {
	snap, err := s.Get(sym)
	if err != nil {
		return false
	}
	return snap.Valid()
}

func sumDepth(side []domain.PriceLevel, levels int) float64 {
	if levels > len(side) {
		levels = len(side)
	}
	var total float64
	for _, lvl := range side[:levels] {
		total += lvl.Quantity
	}
	return total
}
