package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TickerLocker serializes mutations per ticker. fn runs inside a single database transaction that is
// committed when fn returns nil and rolled back otherwise.
type TickerLocker interface {
	WithTickerLock(ctx context.Context, tickerID string, fn func(tx pgx.Tx) error) error
}

type tickerLocker struct {
	db *pgxpool.Pool
}

func NewTickerLocker(db *pgxpool.Pool) TickerLocker {
	return &tickerLocker{db: db}
}

func (l *tickerLocker) WithTickerLock(ctx context.Context, tickerID string, fn func(tx pgx.Tx) error) error {
	return withTx(ctx, l.db, nil, func(tx pgx.Tx) error {
		// Held until commit or rollback, across every process sharing the database
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, tickerID); err != nil {
			return err
		}
		return fn(tx)
	})
}
