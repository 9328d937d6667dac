package repositories

import (
	"context"
	"errors"
	"time"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TickerDataRepository interface {
	// GetByTickerID returns the stored history oldest first.
	GetByTickerID(ctx context.Context, tickerID string) ([]models.TickerDataPoint, error)
	GetLatest(ctx context.Context, tickerID string) (*models.TickerDataPoint, error)
	// GetClose returns the cached close for the trading day starting at date; ok is false on a miss.
	GetClose(ctx context.Context, tickerID string, date time.Time, tx pgx.Tx) (close float64, ok bool, err error)
	// Upsert writes the point keyed on (ticker_id, date), replacing any previous values.
	Upsert(ctx context.Context, d *models.TickerDataPoint, tx pgx.Tx) error
	DeleteByTickerID(ctx context.Context, tickerID string, tx pgx.Tx) error
}

type tickerDataRepo struct {
	db *pgxpool.Pool
}

func NewTickerDataRepository(db *pgxpool.Pool) TickerDataRepository {
	return &tickerDataRepo{db: db}
}

const tickerDataColumns = `ticker_id, date, open, high, low, close, volume, abs_profit, percent_profit`

func scanTickerData(row pgx.Row, d *models.TickerDataPoint) error {
	return row.Scan(&d.TickerID, &d.Date, &d.Open, &d.High, &d.Low, &d.Close, &d.Volume, &d.AbsProfit, &d.PercentProfit)
}

func (r *tickerDataRepo) GetByTickerID(ctx context.Context, tickerID string) ([]models.TickerDataPoint, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tickerDataColumns+`
		FROM ticker_data
		WHERE ticker_id = $1
		ORDER BY date ASC`,
		tickerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.TickerDataPoint
	for rows.Next() {
		var d models.TickerDataPoint
		if err := scanTickerData(rows, &d); err != nil {
			return nil, err
		}
		points = append(points, d)
	}
	return points, rows.Err()
}

func (r *tickerDataRepo) GetLatest(ctx context.Context, tickerID string) (*models.TickerDataPoint, error) {
	var d models.TickerDataPoint
	err := scanTickerData(r.db.QueryRow(ctx,
		`SELECT `+tickerDataColumns+`
		FROM ticker_data
		WHERE ticker_id = $1
		ORDER BY date DESC
		LIMIT 1`,
		tickerID), &d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *tickerDataRepo) GetClose(ctx context.Context, tickerID string, date time.Time, tx pgx.Tx) (float64, bool, error) {
	var close float64
	err := conn(r.db, tx).QueryRow(ctx,
		`SELECT close FROM ticker_data WHERE ticker_id = $1 AND date = $2`,
		tickerID, date.UTC()).Scan(&close)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return close, true, nil
}

func (r *tickerDataRepo) Upsert(ctx context.Context, d *models.TickerDataPoint, tx pgx.Tx) error {
	query := `
		INSERT INTO ticker_data (ticker_id, date, open, high, low, close, volume, abs_profit, percent_profit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker_id, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			abs_profit = EXCLUDED.abs_profit,
			percent_profit = EXCLUDED.percent_profit`

	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			d.TickerID, d.Date.UTC(), d.Open, d.High, d.Low, d.Close, d.Volume, d.AbsProfit, d.PercentProfit)
		return err
	})
}

func (r *tickerDataRepo) DeleteByTickerID(ctx context.Context, tickerID string, tx pgx.Tx) error {
	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM ticker_data WHERE ticker_id = $1`, tickerID)
		return err
	})
}
