package controllers

import (
	"context"
	"time"

	"tracker/src/schemas"
)

func (c *Controller) Buy(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error) {
	return c.Ledger.Buy(ctx, tickerID, quantity, at)
}

func (c *Controller) Sell(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error) {
	return c.Ledger.Sell(ctx, tickerID, quantity, at)
}

func (c *Controller) GetProfit(ctx context.Context, tickerID string, at *time.Time) (*schemas.Profit, error) {
	return c.Ledger.CalcProfit(ctx, tickerID, at)
}
