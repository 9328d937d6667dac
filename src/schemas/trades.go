package schemas

import "time"

// TradeRequest is the body accepted by the buy and sell endpoints.
type TradeRequest struct {
	Ticker    string  `json:"ticker"`
	Quantity  float64 `json:"quantity"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// TradeConfirmation describes a committed buy or sell.
type TradeConfirmation struct {
	Action         string    `json:"action"`
	TickerID       string    `json:"ticker_id"`
	Quantity       float64   `json:"quantity"`
	Requested      float64   `json:"requested"`
	Price          float64   `json:"price"`
	Date           time.Time `json:"date"`
	TransactionNum int64     `json:"transaction_num"`
	Message        string    `json:"message"`
	// Warning is set when a sale asked for more shares than were held and was clamped.
	Warning string `json:"warning,omitempty"`
}

// Profit is the mark-to-market result of a position at a point in time.
type Profit struct {
	TickerID      string    `json:"ticker_id"`
	AsOf          time.Time `json:"as_of"`
	SharesHeld    float64   `json:"shares_held"`
	CostBasis     float64   `json:"cost_basis"`
	ClosePrice    float64   `json:"close_price"`
	MarketValue   float64   `json:"market_value"`
	AbsProfit     float64   `json:"abs_profit"`
	PercentProfit float64   `json:"percent_profit"`
}

type BackfillResult struct {
	TickerID string     `json:"ticker_id"`
	Days     int        `json:"days"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
}

type RefreshResult struct {
	Refreshed []string          `json:"refreshed"`
	Failed    map[string]string `json:"failed"`
}

type RegisterTickersRequest struct {
	Tickers []string `json:"tickers"`
}

type RegisterResult struct {
	Registered []string `json:"registered"`
	Existing   []string `json:"existing"`
	Invalid    []string `json:"invalid"`
}

// TickerInfo is what the market-data provider knows about a symbol.
type TickerInfo struct {
	TickerID  string  `json:"ticker_id"`
	Valid     bool    `json:"valid"`
	AssetType string  `json:"asset_type"`
	Name      string  `json:"name,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Price     float64 `json:"price,omitempty"`
}
