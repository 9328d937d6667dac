package controllers

import (
	"context"

	"tracker/src/models"
	"tracker/src/schemas"
)

func (c *Controller) GetPositions(ctx context.Context) ([]schemas.PositionSummary, error) {
	return c.Portfolio.ListPositions(ctx)
}

func (c *Controller) GetAllocation(ctx context.Context) (map[string]float64, error) {
	return c.Portfolio.AssetAllocation(ctx)
}

func (c *Controller) GetPositionDetail(ctx context.Context, tickerID string) (*schemas.PositionDetail, error) {
	return c.Portfolio.PositionDetail(ctx, tickerID)
}

func (c *Controller) GetTickerHistory(ctx context.Context, tickerID string) ([]models.TickerDataPoint, error) {
	return c.Portfolio.TickerHistory(ctx, tickerID)
}

func (c *Controller) GetTransactions(ctx context.Context, tickerID *string) ([]schemas.TransactionEntry, error) {
	return c.Portfolio.TransactionHistory(ctx, tickerID)
}
