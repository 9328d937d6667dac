package controllers

import (
	"context"

	"tracker/src/models"
	"tracker/src/schemas"
	"tracker/src/utils"
)

func (c *Controller) GetTickers(ctx context.Context) ([]models.Ticker, error) {
	return c.Portfolio.Tickers(ctx)
}

func (c *Controller) RegisterTickers(ctx context.Context, tickers []string) (*schemas.RegisterResult, error) {
	return c.Ledger.RegisterTickers(ctx, tickers)
}

// GetTicker reports what the market-data provider knows about a symbol. A provider failure is a 503, an
// unknown symbol a 404.
func (c *Controller) GetTicker(ctx context.Context, tickerID string) (*schemas.TickerInfo, error) {
	info, err := c.Valuation.LookupTicker(ctx, tickerID)
	if err != nil {
		return nil, utils.ServiceUnavailable(err.Error())
	}
	if !info.Valid {
		return nil, utils.NotFound("unknown ticker " + info.TickerID)
	}
	return info, nil
}

func (c *Controller) DeleteTicker(ctx context.Context, tickerID string) error {
	return c.Ledger.RemoveTicker(ctx, tickerID)
}
