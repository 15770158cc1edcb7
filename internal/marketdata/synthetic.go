package marketdata

import (
	"time"

	"github.com/quantfall/quantbot/internal/domain"
)

const (
	syntheticBasePrice  = 50000.0
	syntheticSymbolStep = 1000.0
	syntheticHalfSpread = 5.0
	syntheticQuantity   = 1.0
)

// syntheticSnapshot fabricates a plausible one-level book for the symbol so
// downstream consumers keep receiving data when every transport is down. The
// price is seeded from the symbol's index to keep symbols distinguishable.
func syntheticSnapshot(sym domain.Symbol) domain.OrderbookSnapshot {
	base := syntheticBasePrice + float64(sym)*syntheticSymbolStep
	ts := uint64(time.Now().UnixMilli())

	return domain.OrderbookSnapshot{
		Symbol: sym,
		Bids: []domain.PriceLevel{
			{Price: base - syntheticHalfSpread, Quantity: syntheticQuantity, Timestamp: ts},
		},
		Asks: []domain.PriceLevel{
			{Price: base + syntheticHalfSpread, Quantity: syntheticQuantity, Timestamp: ts},
		},
		Timestamp: ts,
	}
}
