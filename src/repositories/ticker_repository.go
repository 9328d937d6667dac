package repositories

import (
	"context"
	"time"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TickerRepository interface {
	GetAll(ctx context.Context) ([]models.Ticker, error)
	Exists(ctx context.Context, tickerID string) (bool, error)
	// Create registers the ticker and reports whether a new row was inserted.
	Create(ctx context.Context, t *models.Ticker, tx pgx.Tx) (bool, error)
	Delete(ctx context.Context, tickerID string) error
}

type tickerRepo struct {
	db *pgxpool.Pool
}

func NewTickerRepository(db *pgxpool.Pool) TickerRepository {
	return &tickerRepo{db: db}
}

func (r *tickerRepo) GetAll(ctx context.Context) ([]models.Ticker, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ticker_id, created_at FROM tickers ORDER BY ticker_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []models.Ticker
	for rows.Next() {
		var t models.Ticker
		if err := rows.Scan(&t.TickerID, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func (r *tickerRepo) Exists(ctx context.Context, tickerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickers WHERE ticker_id = $1)`, tickerID).Scan(&exists)
	return exists, err
}

func (r *tickerRepo) Create(ctx context.Context, t *models.Ticker, tx pgx.Tx) (bool, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	var created bool
	err := withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO tickers (ticker_id, created_at)
			VALUES ($1, $2)
			ON CONFLICT (ticker_id) DO NOTHING`,
			t.TickerID, t.CreatedAt)
		if err != nil {
			return err
		}
		created = tag.RowsAffected() == 1
		return nil
	})
	return created, err
}

func (r *tickerRepo) Delete(ctx context.Context, tickerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tickers WHERE ticker_id = $1`, tickerID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
