package schemas

import (
	"time"

	"tracker/src/models"
)

// PositionSummary is one row of the portfolio listing.
type PositionSummary struct {
	TickerID          string  `json:"ticker_id"`
	NumShares         float64 `json:"num_shares"`
	AssetType         string  `json:"asset_type"`
	PriceAvailable    bool    `json:"price_available"`
	CurrentPriceValue float64 `json:"current_price_value"`
	MarketValueValue  float64 `json:"market_value_value"`
	CurrentPrice      string  `json:"current_price"`
	MarketValue       string  `json:"market_value"`
	TotalReturn       string  `json:"total_return"`
	Error             string  `json:"error,omitempty"`
}

// TransactionEntry is one display row of the transaction history.
type TransactionEntry struct {
	TransactionNum  int64     `json:"transaction_num"`
	TickerID        string    `json:"ticker_id"`
	NumShares       float64   `json:"num_shares"`
	Price           string    `json:"price"`
	Total           string    `json:"total"`
	PriceValue      float64   `json:"price_value"`
	TotalValue      float64   `json:"total_value"`
	TransactionType string    `json:"transaction_type"`
	Date            time.Time `json:"date"`
	Timestamp       string    `json:"timestamp"`
}

// PositionDetail combines a held position with its current profit and latest stored history point.
type PositionDetail struct {
	Position models.Position         `json:"position"`
	Profit   *Profit                 `json:"profit,omitempty"`
	Latest   *models.TickerDataPoint `json:"latest,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Dashboard feeds the HTML overview page and the PDF report.
type Dashboard struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Positions   []PositionSummary  `json:"positions"`
	Allocation  map[string]float64 `json:"allocation"`
	TotalValue  string             `json:"total_value"`
}
