package repositories

import (
	"context"
	"errors"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PositionRepository interface {
	GetAll(ctx context.Context) ([]models.Position, error)
	// GetByTickerID returns nil when the ticker is not held. Inside a transaction the row is locked FOR UPDATE.
	GetByTickerID(ctx context.Context, tickerID string, tx pgx.Tx) (*models.Position, error)
	Create(ctx context.Context, p *models.Position, tx pgx.Tx) error
	UpdateShares(ctx context.Context, tickerID string, totalShares float64, tx pgx.Tx) error
	UpdateTotalReturn(ctx context.Context, tickerID string, totalReturn float64, tx pgx.Tx) error
	Delete(ctx context.Context, tickerID string, tx pgx.Tx) error
}

type positionRepo struct {
	db *pgxpool.Pool
}

func NewPositionRepository(db *pgxpool.Pool) PositionRepository {
	return &positionRepo{db: db}
}

func (r *positionRepo) GetAll(ctx context.Context) ([]models.Position, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ticker_id, total_shares, total_return, asset_type
		FROM portfolio
		ORDER BY total_shares DESC, ticker_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.TickerID, &p.TotalShares, &p.TotalReturn, &p.AssetType); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (r *positionRepo) GetByTickerID(ctx context.Context, tickerID string, tx pgx.Tx) (*models.Position, error) {
	query := `SELECT ticker_id, total_shares, total_return, asset_type
		FROM portfolio
		WHERE ticker_id = $1`
	if tx != nil {
		query += ` FOR UPDATE`
	}

	var p models.Position
	err := conn(r.db, tx).QueryRow(ctx, query, tickerID).
		Scan(&p.TickerID, &p.TotalShares, &p.TotalReturn, &p.AssetType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *positionRepo) Create(ctx context.Context, p *models.Position, tx pgx.Tx) error {
	if p.AssetType == "" {
		p.AssetType = models.AssetTypeUnknown
	}
	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO portfolio (ticker_id, total_shares, total_return, asset_type)
			VALUES ($1, $2, $3, $4)`,
			p.TickerID, p.TotalShares, p.TotalReturn, p.AssetType)
		return err
	})
}

func (r *positionRepo) UpdateShares(ctx context.Context, tickerID string, totalShares float64, tx pgx.Tx) error {
	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE portfolio SET total_shares = $2 WHERE ticker_id = $1`,
			tickerID, totalShares)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *positionRepo) UpdateTotalReturn(ctx context.Context, tickerID string, totalReturn float64, tx pgx.Tx) error {
	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE portfolio SET total_return = $2 WHERE ticker_id = $1`,
			tickerID, totalReturn)
		return err
	})
}

func (r *positionRepo) Delete(ctx context.Context, tickerID string, tx pgx.Tx) error {
	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM portfolio WHERE ticker_id = $1`, tickerID)
		return err
	})
}
