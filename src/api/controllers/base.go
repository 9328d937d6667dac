package controllers

import (
	"bytes"
	"context"
	"time"

	"tracker/src/models"
	"tracker/src/schemas"
	"tracker/src/services"

	"github.com/xuri/excelize/v2"
)

type IController interface {
	Buy(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error)
	Sell(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error)
	GetProfit(ctx context.Context, tickerID string, at *time.Time) (*schemas.Profit, error)

	GetPositions(ctx context.Context) ([]schemas.PositionSummary, error)
	GetAllocation(ctx context.Context) (map[string]float64, error)
	GetPositionDetail(ctx context.Context, tickerID string) (*schemas.PositionDetail, error)
	GetTickerHistory(ctx context.Context, tickerID string) ([]models.TickerDataPoint, error)
	GetTransactions(ctx context.Context, tickerID *string) ([]schemas.TransactionEntry, error)

	GetTickers(ctx context.Context) ([]models.Ticker, error)
	RegisterTickers(ctx context.Context, tickers []string) (*schemas.RegisterResult, error)
	GetTicker(ctx context.Context, tickerID string) (*schemas.TickerInfo, error)
	DeleteTicker(ctx context.Context, tickerID string) error

	GenerateTransactionsXLSX(ctx context.Context, tickerID *string) (*excelize.File, error)
	GeneratePortfolioPDF(ctx context.Context) (*bytes.Buffer, error)
	GetAllocationChart(ctx context.Context) (*bytes.Buffer, error)
	RenderDashboard(ctx context.Context) (*bytes.Buffer, error)
	RenderTransactions(ctx context.Context, tickerID string) (*bytes.Buffer, error)
}

type Controller struct {
	Ledger    services.LedgerServiceI
	Portfolio services.PortfolioServiceI
	Valuation services.ValuationServiceI
}

func NewController(
	ledger services.LedgerServiceI,
	portfolio services.PortfolioServiceI,
	valuation services.ValuationServiceI,
) *Controller {
	return &Controller{Ledger: ledger, Portfolio: portfolio, Valuation: valuation}
}
