package models

import (
	"time"
)

// TickerDataPoint is one trading day of price history plus the position's profit as of that day's close.
type TickerDataPoint struct {
	TickerID      string    `db:"ticker_id" json:"ticker_id"`
	Date          time.Time `db:"date" json:"date"`
	Open          float64   `db:"open" json:"open"`
	High          float64   `db:"high" json:"high"`
	Low           float64   `db:"low" json:"low"`
	Close         float64   `db:"close" json:"close"`
	Volume        int64     `db:"volume" json:"volume"`
	AbsProfit     float64   `db:"abs_profit" json:"abs_profit"`
	PercentProfit float64   `db:"percent_profit" json:"percent_profit"`
}
