package controllers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"tracker/src/api/controllers"
	"tracker/src/clients/yahoo/yahootest"
	"tracker/src/config"
	"tracker/src/repositories/repotest"
	"tracker/src/services"
	"tracker/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	client     *yahootest.YahooServiceClientMock
	ledger     *services.LedgerService
	controller *controllers.Controller
}

func newFixture() *fixture {
	now := time.Date(2024, 1, 4, 18, 0, 0, 0, time.UTC)
	store := repotest.NewStore()
	client := yahootest.NewMockClient()
	valuation := services.NewValuationService(client, &config.Config{}).WithClock(func() time.Time { return now })
	ledger := services.NewLedgerService(store.Tickers(), store.Positions(), store.Transactions(), store.TickerData(),
		store.Locker(), valuation, false, "USD").WithClock(func() time.Time { return now })
	portfolio := services.NewPortfolioService(store.Tickers(), store.Positions(), store.Transactions(), store.TickerData(),
		valuation, ledger, 4, "USD")
	return &fixture{
		client:     client,
		ledger:     ledger,
		controller: controllers.NewController(ledger, portfolio, valuation),
	}
}

// seed buys AAPL 10 @ 150, MSFT 5 @ 300 and SPY 25 @ 450, then sells 4 AAPL @ 160.
func (f *fixture) seed(t *testing.T) {
	ctx := context.Background()
	f.client.SetQuote("AAPL", 150, "EQUITY").
		SetQuote("MSFT", 300, "EQUITY").
		SetQuote("SPY", 450, "ETF")

	for ticker, quantity := range map[string]float64{"AAPL": 10, "MSFT": 5, "SPY": 25} {
		_, err := f.ledger.Buy(ctx, ticker, quantity, nil)
		require.NoError(t, err)
	}
	f.client.SetQuote("AAPL", 160, "EQUITY")
	_, err := f.ledger.Sell(ctx, "AAPL", 4, nil)
	require.NoError(t, err)
}

func requireHTTPError(t *testing.T, err error, code int) {
	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, code, httpErr.Code)
}

func TestGenerateTransactionsXLSX(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t)

	t.Run("all transactions", func(t *testing.T) {
		file, err := f.controller.GenerateTransactionsXLSX(ctx, nil)
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, []string{"Transactions"}, file.GetSheetList())

		rows, err := file.GetRows("Transactions")
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, []string{"#", "Date", "Ticker", "Type", "Shares", "Price", "Total"}, rows[0])
	})

	t.Run("filtered by ticker", func(t *testing.T) {
		ticker := "AAPL"
		file, err := f.controller.GenerateTransactionsXLSX(ctx, &ticker)
		require.NoError(t, err)
		defer file.Close()

		raw := excelize.Options{RawCellValue: true}
		cell := func(name string) string {
			value, err := file.GetCellValue("Transactions", name, raw)
			require.NoError(t, err)
			return value
		}

		assert.Equal(t, "AAPL", cell("C2"))
		assert.Equal(t, "Sell", cell("D2"))
		assert.Equal(t, "4", cell("E2"))
		assert.Equal(t, "-160", cell("F2"))
		assert.Equal(t, "-640", cell("G2"))
		assert.Equal(t, "Buy", cell("D3"))
		assert.Equal(t, "1500", cell("G3"))
		assert.Equal(t, "", cell("A4"))
	})
}

func TestRenderDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("with positions", func(t *testing.T) {
		f := newFixture()
		f.seed(t)

		html, err := f.controller.RenderDashboard(ctx)
		require.NoError(t, err)
		body := html.String()
		assert.Contains(t, body, "AAPL")
		assert.Contains(t, body, "$960.00")
		assert.Contains(t, body, "data:text/html;base64,")
	})

	t.Run("empty portfolio", func(t *testing.T) {
		html, err := newFixture().controller.RenderDashboard(ctx)
		require.NoError(t, err)
		assert.Contains(t, html.String(), "No positions held.")
	})
}

func TestGetAllocationChart(t *testing.T) {
	ctx := context.Background()

	t.Run("empty portfolio", func(t *testing.T) {
		_, err := newFixture().controller.GetAllocationChart(ctx)
		requireHTTPError(t, err, http.StatusNotFound)
	})

	t.Run("one slice per asset type", func(t *testing.T) {
		f := newFixture()
		f.seed(t)

		chart, err := f.controller.GetAllocationChart(ctx)
		require.NoError(t, err)
		body := chart.String()
		assert.Contains(t, body, "Asset allocation")
		assert.Contains(t, body, "EQUITY")
		assert.Contains(t, body, "ETF")
	})
}

func TestRenderTransactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t)

	page, err := f.controller.RenderTransactions(ctx, " aapl ")
	require.NoError(t, err)
	body := page.String()
	assert.Contains(t, body, "Transactions for AAPL")
	assert.Contains(t, body, "-$640.00")
	assert.NotContains(t, body, "MSFT")
}

func TestGetTicker(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.client.SetQuote("AAPL", 150, "EQUITY").
		SetQuote("DOWN", 10, "EQUITY").
		Fail("DOWN", errors.New("timeout"))

	info, err := f.controller.GetTicker(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", info.TickerID)
	assert.Equal(t, "EQUITY", info.AssetType)

	_, err = f.controller.GetTicker(ctx, "ZZZINVALID")
	requireHTTPError(t, err, http.StatusNotFound)

	_, err = f.controller.GetTicker(ctx, "DOWN")
	requireHTTPError(t, err, http.StatusServiceUnavailable)
}
