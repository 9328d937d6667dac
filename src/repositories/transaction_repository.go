package repositories

import (
	"context"
	"time"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository interface {
	// GetAll returns the log most recent first.
	GetAll(ctx context.Context) ([]models.Transaction, error)
	// GetByTickerID returns the ticker's log most recent first.
	GetByTickerID(ctx context.Context, tickerID string) ([]models.Transaction, error)
	// GetByTickerIDUntil returns the ticker's entries dated at or before until, oldest first.
	GetByTickerIDUntil(ctx context.Context, tickerID string, until time.Time, tx pgx.Tx) ([]models.Transaction, error)
	Create(ctx context.Context, t *models.Transaction, tx pgx.Tx) error
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

const transactionColumns = `transaction_num, ticker_id, num_shares, price, transaction_type, date`

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var transactionType string
		if err := rows.Scan(&t.TransactionNum, &t.TickerID, &t.NumShares, &t.Price, &transactionType, &t.Date); err != nil {
			return nil, err
		}
		t.TransactionType = models.TransactionType(transactionType)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *transactionRepo) GetAll(ctx context.Context) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY date DESC, transaction_num DESC`)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *transactionRepo) GetByTickerID(ctx context.Context, tickerID string) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+transactionColumns+`
		FROM transactions
		WHERE ticker_id = $1
		ORDER BY date DESC, transaction_num DESC`,
		tickerID)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *transactionRepo) GetByTickerIDUntil(ctx context.Context, tickerID string, until time.Time, tx pgx.Tx) ([]models.Transaction, error) {
	rows, err := conn(r.db, tx).Query(ctx,
		`SELECT `+transactionColumns+`
		FROM transactions
		WHERE ticker_id = $1 AND date <= $2
		ORDER BY date ASC, transaction_num ASC`,
		tickerID, until.UTC())
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *transactionRepo) Create(ctx context.Context, t *models.Transaction, tx pgx.Tx) error {
	query := `
		INSERT INTO transactions (ticker_id, num_shares, price, transaction_type, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING transaction_num`

	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			t.TickerID, t.NumShares, t.Price, string(t.TransactionType), t.Date.UTC(),
		).Scan(&t.TransactionNum)
	})
}
