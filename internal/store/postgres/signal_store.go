package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfall/quantbot/internal/domain"
)

// SignalStore persists emitted trading signals for offline analysis.
type SignalStore struct {
	pool *pgxpool.Pool
}

// NewSignalStore creates a SignalStore backed by the given connection pool.
func NewSignalStore(pool *pgxpool.Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// EnsureSchema creates the signals table when it does not exist yet.
func (s *SignalStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS trading_signals (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			price       DOUBLE PRECISION NOT NULL,
			quantity    DOUBLE PRECISION NOT NULL,
			confidence  DOUBLE PRECISION NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL
		)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: ensure signals schema: %w", err)
	}
	return nil
}

// Insert stores one signal. Replayed signal IDs are skipped silently.
func (s *SignalStore) Insert(ctx context.Context, sig domain.TradingSignal) error {
	const query = `
		INSERT INTO trading_signals (id, kind, symbol, price, quantity, confidence, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		sig.ID, sig.Kind.String(), sig.Symbol.String(),
		sig.Price, sig.Quantity, sig.Confidence, sig.Reason, sig.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert signal %s: %w", sig.ID, err)
	}
	return nil
}

// Recent returns up to limit signals, newest first.
func (s *SignalStore) Recent(ctx context.Context, limit int) ([]domain.TradingSignal, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT id, kind, symbol, price, quantity, confidence, reason, created_at
		FROM trading_signals
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list signals: %w", err)
	}
	defer rows.Close()

	return scanSignalRows(rows)
}

func scanSignalRows(rows pgx.Rows) ([]domain.TradingSignal, error) {
	var signals []domain.TradingSignal
	for rows.Next() {
		var (
			sig    domain.TradingSignal
			kind   string
			symbol string
		)
		if err := rows.Scan(
			&sig.ID, &kind, &symbol,
			&sig.Price, &sig.Quantity, &sig.Confidence, &sig.Reason, &sig.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan signal: %w", err)
		}
		sig.Kind = parseKind(kind)
		if sym, ok := domain.ParseSymbol(symbol); ok {
			sig.Symbol = sym
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func parseKind(kind string) domain.SignalKind {
	switch kind {
	case "buy":
		return domain.SignalBuy
	case "sell":
		return domain.SignalSell
	case "hold":
		return domain.SignalHold
	default:
		return domain.SignalNone
	}
}
