package models

// AssetTypeUnknown is stored when the market-data provider has no classification for a symbol.
const AssetTypeUnknown = "unknown"

// ShareScale is the number of decimal places kept for share quantities (NUMERIC(20, 6)).
const ShareScale = 6

// Position is the current holding for one ticker. A row exists only while TotalShares > 0.
type Position struct {
	TickerID    string  `db:"ticker_id" json:"ticker_id"`
	TotalShares float64 `db:"total_shares" json:"total_shares"`
	TotalReturn float64 `db:"total_return" json:"total_return"`
	AssetType   string  `db:"asset_type" json:"asset_type"`
}
