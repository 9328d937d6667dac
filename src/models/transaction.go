package models

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// Transaction is an append-only ledger entry. NumShares is always positive; Price is negative for sells
// so that NumShares*Price is the signed cash flow of the trade.
type Transaction struct {
	TransactionNum  int64           `db:"transaction_num" json:"transaction_num"`
	TickerID        string          `db:"ticker_id" json:"ticker_id"`
	NumShares       float64         `db:"num_shares" json:"num_shares"`
	Price           float64         `db:"price" json:"price"`
	TransactionType TransactionType `db:"transaction_type" json:"transaction_type"`
	Date            time.Time       `db:"date" json:"date"`
}
