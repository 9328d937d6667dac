package controllers

import (
	"bytes"
	"context"

	"tracker/src/services"
	"tracker/src/utils/render"
)

func (c *Controller) RenderDashboard(ctx context.Context) (*bytes.Buffer, error) {
	dashboard, err := c.Portfolio.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := render.RenderDashboard(&buf, dashboard); err != nil {
		return nil, err
	}
	return &buf, nil
}

// RenderTransactions renders the history page, filtered to one ticker when tickerID is not empty.
func (c *Controller) RenderTransactions(ctx context.Context, tickerID string) (*bytes.Buffer, error) {
	var filter *string
	tickerID = services.NormalizeTicker(tickerID)
	if tickerID != "" {
		filter = &tickerID
	}

	entries, err := c.Portfolio.TransactionHistory(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := render.RenderTransactions(&buf, tickerID, entries); err != nil {
		return nil, err
	}
	return &buf, nil
}
