package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfall/quantbot/internal/domain"
)

// snapshotTTL expires mirrored books so a dead producer does not leave stale
// prices behind.
const snapshotTTL = 30 * time.Second

// SnapshotMirror publishes orderbook snapshots to Redis.
//
// Key schema:
//
//	book:{symbol}      - JSON-encoded snapshot, full depth
//	book:{symbol}:bbo  - hash with fields "bid", "ask", "ts"
type SnapshotMirror struct {
	rdb *redis.Client
}

// NewSnapshotMirror creates a SnapshotMirror backed by the given Client.
func NewSnapshotMirror(c *Client) *SnapshotMirror {
	return &SnapshotMirror{rdb: c.Underlying()}
}

func bookKey(sym domain.Symbol) string { return "book:" + sym.String() }
func bboKey(sym domain.Symbol) string  { return "book:" + sym.String() + ":bbo" }

// Publish replaces the mirrored snapshot and best-bid/offer hash for the
// snapshot's symbol in one pipeline round trip.
func (m *SnapshotMirror) Publish(ctx context.Context, snap domain.OrderbookSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.Symbol, err)
	}

	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, bookKey(snap.Symbol), payload, snapshotTTL)
	pipe.HSet(ctx, bboKey(snap.Symbol),
		"bid", strconv.FormatFloat(snap.BestBid(), 'f', -1, 64),
		"ask", strconv.FormatFloat(snap.BestAsk(), 'f', -1, 64),
		"ts", strconv.FormatUint(snap.Timestamp, 10),
	)
	pipe.Expire(ctx, bboKey(snap.Symbol), snapshotTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish snapshot %s: %w", snap.Symbol, err)
	}
	return nil
}

// Snapshot reads back the mirrored snapshot for a symbol.
func (m *SnapshotMirror) Snapshot(ctx context.Context, sym domain.Symbol) (domain.OrderbookSnapshot, error) {
	raw, err := m.rdb.Get(ctx, bookKey(sym)).Bytes()
	if err == redis.Nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("redis: snapshot %s: %w", sym, domain.ErrNotFound)
	}
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("redis: get snapshot %s: %w", sym, err)
	}

	var snap domain.OrderbookSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("redis: decode snapshot %s: %w", sym, err)
	}
	return snap, nil
}
