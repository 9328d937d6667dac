package controllers

import (
	"context"
	"time"

	"tracker/src/schemas"
	"tracker/src/services"
)

type IController interface {
	RefreshAll(ctx context.Context) (*schemas.RefreshResult, error)
	BackfillTicker(ctx context.Context, tickerID string, since string) (*schemas.BackfillResult, error)
}

type Controller struct {
	Ledger services.LedgerServiceI
	now    func() time.Time
}

func NewController(ledger services.LedgerServiceI) *Controller {
	return &Controller{Ledger: ledger, now: time.Now}
}
