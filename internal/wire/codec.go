// Package wire implements the fixed-size binary record used to ship
// orderbook snapshots to external collaborators.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/quantfall/quantbot/internal/domain"
)

const (
	// RecordSize is the exact length of one encoded snapshot.
	RecordSize = 980

	levelSize  = 24
	headerSize = 20
)

// Encode serializes a snapshot into a 980-byte record: symbol (1) + reserved
// (3) + bid_count (4) + ask_count (4) + timestamp (8) + 20 bid levels + 20
// ask levels of 24 bytes each. Integers are network byte order; floats travel
// as the byte-order-converted bit pattern of their IEEE-754 representation.
// Sides longer than 20 levels are truncated.
func Encode(snap domain.OrderbookSnapshot) []byte {
	buf := make([]byte, RecordSize)

	bids := snap.Bids
	if len(bids) > domain.DepthLimit {
		bids = bids[:domain.DepthLimit]
	}
	asks := snap.Asks
	if len(asks) > domain.DepthLimit {
		asks = asks[:domain.DepthLimit]
	}

	buf[0] = byte(snap.Symbol)
	// bytes 1-3 reserved, left zero
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(bids)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(asks)))
	binary.BigEndian.PutUint64(buf[12:20], snap.Timestamp)

	off := headerSize
	for i := 0; i < domain.DepthLimit; i++ {
		if i < len(bids) {
			putLevel(buf[off:off+levelSize], bids[i])
		}
		off += levelSize
	}
	for i := 0; i < domain.DepthLimit; i++ {
		if i < len(asks) {
			putLevel(buf[off:off+levelSize], asks[i])
		}
		off += levelSize
	}
	return buf
}

// Decode parses a 980-byte record back into a snapshot. Records of any other
// length, or carrying per-side counts above 20, are rejected.
func Decode(data []byte) (domain.OrderbookSnapshot, error) {
	if len(data) != RecordSize {
		return domain.OrderbookSnapshot{}, fmt.Errorf("wire: record length %d: %w", len(data), domain.ErrInvalidRecord)
	}

	bidCount := binary.BigEndian.Uint32(data[4:8])
	askCount := binary.BigEndian.Uint32(data[8:12])
	if bidCount > domain.DepthLimit || askCount > domain.DepthLimit {
		return domain.OrderbookSnapshot{}, fmt.Errorf("wire: level count %d/%d: %w", bidCount, askCount, domain.ErrInvalidRecord)
	}

	snap := domain.OrderbookSnapshot{
		Symbol:    domain.Symbol(data[0]),
		Timestamp: binary.BigEndian.Uint64(data[12:20]),
		Bids:      make([]domain.PriceLevel, bidCount),
		Asks:      make([]domain.PriceLevel, askCount),
	}

	off := headerSize
	for i := uint32(0); i < bidCount; i++ {
		snap.Bids[i] = getLevel(data[off+int(i)*levelSize:])
	}
	off += domain.DepthLimit * levelSize
	for i := uint32(0); i < askCount; i++ {
		snap.Asks[i] = getLevel(data[off+int(i)*levelSize:])
	}
	return snap, nil
}

func putLevel(buf []byte, lvl domain.PriceLevel) {
	binary.BigEndian.PutUint64(buf[0:8], math.Float64bits(lvl.Price))
	binary.BigEndian.PutUint64(buf[8:16], math.Float64bits(lvl.Quantity))
	binary.BigEndian.PutUint64(buf[16:24], lvl.Timestamp)
}

func getLevel(buf []byte) domain.PriceLevel {
	return domain.PriceLevel{
		Price:     math.Float64frombits(binary.BigEndian.Uint64(buf[0:8])),
		Quantity:  math.Float64frombits(binary.BigEndian.Uint64(buf[8:16])),
		Timestamp: binary.BigEndian.Uint64(buf[16:24]),
	}
}
