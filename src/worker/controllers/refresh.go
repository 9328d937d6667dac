package controllers

import (
	"context"
	"strings"
	"time"

	"tracker/src/schemas"
	"tracker/src/utils"
)

// RefreshAll pulls the latest trading day for every held ticker and updates cached returns.
func (c *Controller) RefreshAll(ctx context.Context) (*schemas.RefreshResult, error) {
	return c.Ledger.RefreshTickerData(ctx)
}

// BackfillTicker rebuilds a ticker's history. since is either a date/timestamp or a look-back interval
// such as "1m:2w"; without it only the last trading day is loaded.
func (c *Controller) BackfillTicker(ctx context.Context, tickerID string, since string) (*schemas.BackfillResult, error) {
	start, err := parseSince(since, c.now().UTC())
	if err != nil {
		return nil, err
	}
	return c.Ledger.BackfillHistory(ctx, tickerID, start)
}

func parseSince(value string, now time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := utils.ParseTimestamp(value); err == nil {
		return &t, nil
	}
	interval, err := utils.ParseTimeInterval(value)
	if err != nil {
		return nil, utils.BadRequest("since must be a date or an interval like 1m:2w:3d")
	}
	t := interval.Before(now)
	return &t, nil
}
