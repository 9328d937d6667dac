package models

import (
	"time"
)

type Ticker struct {
	TickerID  string    `db:"ticker_id" json:"ticker_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
