package services_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"tracker/src/clients/yahoo/yahootest"
	"tracker/src/models"
	"tracker/src/repositories/repotest"
	"tracker/src/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	store     *repotest.Store
	client    *yahootest.YahooServiceClientMock
	valuation *services.ValuationService
	ledger    *services.LedgerService
}

// newLedgerFixture builds a ledger over an in-memory store with the clock frozen at day3 18:00 UTC.
func newLedgerFixture(backfillOnBuy bool) *ledgerFixture {
	now := day3.Add(18 * time.Hour)
	store := repotest.NewStore()
	client := yahootest.NewMockClient()
	valuation := newValuation(client, now)
	ledger := services.NewLedgerService(
		store.Tickers(),
		store.Positions(),
		store.Transactions(),
		store.TickerData(),
		store.Locker(),
		valuation,
		backfillOnBuy,
		"USD",
	).WithClock(func() time.Time { return now })
	return &ledgerFixture{store: store, client: client, valuation: valuation, ledger: ledger}
}

func (f *ledgerFixture) position(t *testing.T, tickerID string) *models.Position {
	position, err := f.store.Positions().GetByTickerID(context.Background(), tickerID, nil)
	require.NoError(t, err)
	return position
}

func TestBuySellScenario(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(false)
	f.client.SetQuote("AAPL", 150, "EQUITY")

	bought, err := f.ledger.Buy(ctx, "AAPL", 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "buy", bought.Action)
	assert.Equal(t, 150.0, bought.Price)
	assert.Equal(t, "Success! Purchased 10 shares of AAPL for $150.00 each.", bought.Message)

	position := f.position(t, "AAPL")
	require.NotNil(t, position)
	assert.Equal(t, 10.0, position.TotalShares)
	assert.Equal(t, 0.0, position.TotalReturn)
	assert.Equal(t, "EQUITY", position.AssetType)

	f.client.SetQuote("AAPL", 160, "EQUITY")
	sold, err := f.ledger.Sell(ctx, "AAPL", 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 4.0, sold.Quantity)
	assert.Empty(t, sold.Warning)
	assert.Equal(t, "Success! Sold 4 shares of AAPL for $160.00 each.", sold.Message)
	assert.Equal(t, 6.0, f.position(t, "AAPL").TotalShares)

	transactions, err := f.store.Transactions().GetByTickerID(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, models.TransactionTypeSell, transactions[0].TransactionType)
	assert.Equal(t, -160.0, transactions[0].Price)
	assert.Equal(t, 4.0, transactions[0].NumShares)
	assert.Equal(t, models.TransactionTypeBuy, transactions[1].TransactionType)
	assert.Equal(t, 150.0, transactions[1].Price)
	assert.Equal(t, 10.0, transactions[1].NumShares)

	f.client.SetQuote("AAPL", 170, "EQUITY")
	profit, err := f.ledger.CalcProfit(ctx, "AAPL", nil)
	require.NoError(t, err)
	assert.Equal(t, 6.0, profit.SharesHeld)
	assert.InDelta(t, 860.0, profit.CostBasis, 1e-9)
	assert.InDelta(t, 1020.0, profit.MarketValue, 1e-9)
	assert.InDelta(t, 160.0, profit.AbsProfit, 1e-9)
	assert.InDelta(t, 18.604651, profit.PercentProfit, 1e-6)
}

func TestBuyValidation(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(false)
	f.client.SetQuote("AAPL", 150, "EQUITY")

	t.Run("invalid ticker performs no writes", func(t *testing.T) {
		assert.False(t, f.valuation.IsValidTicker(ctx, "ZZZINVALID"))

		_, err := f.ledger.Buy(ctx, "ZZZINVALID", 5, nil)
		assert.ErrorIs(t, err, services.ErrInvalidTicker)
		assert.Equal(t, 0, f.store.TransactionCount())
		assert.Nil(t, f.position(t, "ZZZINVALID"))

		exists, err := f.store.Tickers().Exists(ctx, "ZZZINVALID")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		for _, quantity := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			_, err := f.ledger.Buy(ctx, "AAPL", quantity, nil)
			assert.ErrorIs(t, err, services.ErrInvalidQuantity)
			_, err = f.ledger.Sell(ctx, "AAPL", quantity, nil)
			assert.ErrorIs(t, err, services.ErrInvalidQuantity)
		}
		assert.Equal(t, 0, f.store.TransactionCount())
	})

	t.Run("price unavailable", func(t *testing.T) {
		f.client.Fail("AAPL", errors.New("connection refused"))
		defer f.client.Fail("AAPL", nil)

		_, err := f.ledger.Buy(ctx, "AAPL", 1, nil)
		assert.ErrorIs(t, err, services.ErrPriceUnavailable)
		assert.Equal(t, 0, f.store.TransactionCount())
	})

	t.Run("store failure rolls back", func(t *testing.T) {
		f.store.FailWrites = errors.New("disk full")
		defer func() { f.store.FailWrites = nil }()

		_, err := f.ledger.Buy(ctx, "AAPL", 1, nil)
		assert.ErrorIs(t, err, services.ErrStore)
		assert.Equal(t, 0, f.store.TransactionCount())
		assert.Nil(t, f.position(t, "AAPL"))
	})

	t.Run("symbol is normalized", func(t *testing.T) {
		confirmation, err := f.ledger.Buy(ctx, " aapl ", 2, nil)
		require.NoError(t, err)
		assert.Equal(t, "AAPL", confirmation.TickerID)
		assert.Equal(t, 2.0, f.position(t, "AAPL").TotalShares)
	})
}

func TestSell(t *testing.T) {
	ctx := context.Background()

	t.Run("not held", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 150, "EQUITY")

		_, err := f.ledger.Sell(ctx, "AAPL", 1, nil)
		assert.ErrorIs(t, err, services.ErrNotHeld)
		assert.Equal(t, 0, f.store.TransactionCount())
	})

	t.Run("invalid ticker", func(t *testing.T) {
		f := newLedgerFixture(false)
		_, err := f.ledger.Sell(ctx, "ZZZINVALID", 1, nil)
		assert.ErrorIs(t, err, services.ErrInvalidTicker)
	})

	t.Run("full exit removes position and history", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 150, "EQUITY").AddCandle("AAPL", day3, 155)

		_, err := f.ledger.Buy(ctx, "AAPL", 5, nil)
		require.NoError(t, err)
		_, err = f.ledger.BackfillHistory(ctx, "AAPL", nil)
		require.NoError(t, err)
		require.Equal(t, 1, f.store.TickerDataCount("AAPL"))

		sold, err := f.ledger.Sell(ctx, "AAPL", 5, nil)
		require.NoError(t, err)
		assert.Equal(t, 5.0, sold.Quantity)
		assert.Nil(t, f.position(t, "AAPL"))
		assert.Equal(t, 0, f.store.TickerDataCount("AAPL"))
		assert.Equal(t, 2, f.store.TransactionCount())

		_, err = f.ledger.Sell(ctx, "AAPL", 1, nil)
		assert.ErrorIs(t, err, services.ErrNotHeld)
	})

	t.Run("oversell is clamped", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 150, "EQUITY")

		_, err := f.ledger.Buy(ctx, "AAPL", 3, nil)
		require.NoError(t, err)

		sold, err := f.ledger.Sell(ctx, "AAPL", 10, nil)
		require.NoError(t, err)
		assert.Equal(t, 3.0, sold.Quantity)
		assert.Equal(t, 10.0, sold.Requested)
		assert.NotEmpty(t, sold.Warning)
		assert.Nil(t, f.position(t, "AAPL"))

		transactions, err := f.store.Transactions().GetByTickerID(ctx, "AAPL")
		require.NoError(t, err)
		require.Len(t, transactions, 2)
		assert.Equal(t, 3.0, transactions[0].NumShares)
	})
}

func TestShareScale(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity below the stored scale is rejected", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 150, "EQUITY")

		_, err := f.ledger.Buy(ctx, "AAPL", 1e-7, nil)
		assert.ErrorIs(t, err, services.ErrInvalidQuantity)
		_, err = f.ledger.Sell(ctx, "AAPL", 4e-7, nil)
		assert.ErrorIs(t, err, services.ErrInvalidQuantity)
		assert.Equal(t, 0, f.store.TransactionCount())
		assert.Nil(t, f.position(t, "AAPL"))
	})

	t.Run("quantity is rounded before it is recorded", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 150, "EQUITY")

		bought, err := f.ledger.Buy(ctx, "AAPL", 1.0000004, nil)
		require.NoError(t, err)
		assert.Equal(t, 1.0, bought.Quantity)
		assert.Equal(t, 1.0000004, bought.Requested)
		assert.Equal(t, "Success! Purchased 1 shares of AAPL for $150.00 each.", bought.Message)
		assert.Equal(t, 1.0, f.position(t, "AAPL").TotalShares)

		transactions, err := f.store.Transactions().GetByTickerID(ctx, "AAPL")
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.Equal(t, 1.0, transactions[0].NumShares)
	})

	t.Run("remainder below the stored scale closes the position", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 150, "EQUITY")

		_, err := f.ledger.Buy(ctx, "AAPL", 1, nil)
		require.NoError(t, err)

		sold, err := f.ledger.Sell(ctx, "AAPL", 0.9999996, nil)
		require.NoError(t, err)
		assert.Equal(t, 1.0, sold.Quantity)
		assert.Empty(t, sold.Warning)
		assert.Equal(t, "Success! Sold 1 shares of AAPL for $150.00 each.", sold.Message)
		assert.Nil(t, f.position(t, "AAPL"))
		assert.Equal(t, 2, f.store.TransactionCount())
	})

	t.Run("fractional sell keeps the rounded remainder", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 150, "EQUITY")

		_, err := f.ledger.Buy(ctx, "AAPL", 1, nil)
		require.NoError(t, err)

		sold, err := f.ledger.Sell(ctx, "AAPL", 0.3333334, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.333333, sold.Quantity, 1e-12)

		position := f.position(t, "AAPL")
		require.NotNil(t, position)
		assert.InDelta(t, 0.666667, position.TotalShares, 1e-12)
	})
}

func TestReconciliation(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(false)
	f.client.SetQuote("MSFT", 300, "EQUITY")

	steps := []struct {
		buy      bool
		quantity float64
	}{
		{true, 10},
		{true, 2.5},
		{false, 4},
		{true, 1},
		{false, 0.5},
		{false, 3},
	}

	bought, sold := 0.0, 0.0
	for _, step := range steps {
		if step.buy {
			_, err := f.ledger.Buy(ctx, "MSFT", step.quantity, nil)
			require.NoError(t, err)
			bought += step.quantity
		} else {
			_, err := f.ledger.Sell(ctx, "MSFT", step.quantity, nil)
			require.NoError(t, err)
			sold += step.quantity
		}
		position := f.position(t, "MSFT")
		require.NotNil(t, position)
		assert.InDelta(t, bought-sold, position.TotalShares, 1e-9)
	}
	assert.Equal(t, len(steps), f.store.TransactionCount())
}

func TestConcurrentBuys(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(false)
	f.client.SetQuote("AAPL", 150, "EQUITY")

	const buyers = 20
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Buy(ctx, "AAPL", 1, nil); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, float64(buyers), f.position(t, "AAPL").TotalShares)
	assert.Equal(t, buyers, f.store.TransactionCount())
}

func TestCalcProfit(t *testing.T) {
	ctx := context.Background()

	t.Run("zero cost basis", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 100, "EQUITY")

		_, err := f.ledger.Buy(ctx, "AAPL", 10, nil)
		require.NoError(t, err)
		_, err = f.ledger.Sell(ctx, "AAPL", 10, nil)
		require.NoError(t, err)

		profit, err := f.ledger.CalcProfit(ctx, "AAPL", nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, profit.CostBasis)
		assert.Equal(t, 0.0, profit.AbsProfit)
		assert.Equal(t, 0.0, profit.PercentProfit)
	})

	t.Run("replays only transactions up to the date", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 170, "EQUITY").
			AddCandle("AAPL", day1, 150).
			AddCandle("AAPL", day2, 155)

		first := day1.Add(20 * time.Hour)
		second := day2.Add(20 * time.Hour)
		confirmation, err := f.ledger.Buy(ctx, "AAPL", 10, &first)
		require.NoError(t, err)
		assert.Equal(t, 150.0, confirmation.Price)
		_, err = f.ledger.Buy(ctx, "AAPL", 5, &second)
		require.NoError(t, err)

		at := day1.Add(22 * time.Hour)
		profit, err := f.ledger.CalcProfit(ctx, "AAPL", &at)
		require.NoError(t, err)
		assert.Equal(t, 10.0, profit.SharesHeld)
		assert.Equal(t, 150.0, profit.ClosePrice)
		assert.InDelta(t, 0.0, profit.AbsProfit, 1e-9)

		at = day2.Add(22 * time.Hour)
		profit, err = f.ledger.CalcProfit(ctx, "AAPL", &at)
		require.NoError(t, err)
		assert.Equal(t, 15.0, profit.SharesHeld)
		assert.InDelta(t, 50.0, profit.AbsProfit, 1e-9)
	})

	t.Run("prefers the cached close", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 100, "EQUITY")

		_, err := f.ledger.Buy(ctx, "AAPL", 1, nil)
		require.NoError(t, err)
		require.NoError(t, f.store.TickerData().Upsert(ctx, &models.TickerDataPoint{
			TickerID: "AAPL",
			Date:     day3,
			Close:    200,
		}, nil))

		profit, err := f.ledger.CalcProfit(ctx, "AAPL", nil)
		require.NoError(t, err)
		assert.Equal(t, 200.0, profit.ClosePrice)
		assert.InDelta(t, 100.0, profit.PercentProfit, 1e-9)
	})

	t.Run("price unavailable", func(t *testing.T) {
		f := newLedgerFixture(false)
		_, err := f.ledger.CalcProfit(ctx, "ZZZINVALID", nil)
		assert.ErrorIs(t, err, services.ErrPriceUnavailable)
	})
}

func TestBackfillHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 160, "EQUITY").
			AddCandle("AAPL", day1, 150).
			AddCandle("AAPL", day2, 155)

		bought := day1.Add(20 * time.Hour)
		_, err := f.ledger.Buy(ctx, "AAPL", 10, &bought)
		require.NoError(t, err)

		result, err := f.ledger.BackfillHistory(ctx, "AAPL", &bought)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Days)
		require.NotNil(t, result.From)
		require.NotNil(t, result.To)
		assert.Equal(t, day1, *result.From)
		assert.Equal(t, day2, *result.To)

		first, err := f.store.TickerData().GetByTickerID(ctx, "AAPL")
		require.NoError(t, err)

		_, err = f.ledger.BackfillHistory(ctx, "AAPL", &bought)
		require.NoError(t, err)
		second, err := f.store.TickerData().GetByTickerID(ctx, "AAPL")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		require.Len(t, second, 2)
		assert.Equal(t, 150.0, second[0].Close)
		assert.InDelta(t, 0.0, second[0].AbsProfit, 1e-9)
		assert.InDelta(t, 50.0, second[1].AbsProfit, 1e-9)
		assert.InDelta(t, 3.333333, second[1].PercentProfit, 1e-6)
	})

	t.Run("runs after a purchase when enabled", func(t *testing.T) {
		f := newLedgerFixture(true)
		f.client.SetQuote("AAPL", 160, "EQUITY").
			AddCandle("AAPL", day1, 150).
			AddCandle("AAPL", day2, 155)

		bought := day1.Add(20 * time.Hour)
		_, err := f.ledger.Buy(ctx, "AAPL", 10, &bought)
		require.NoError(t, err)
		assert.Equal(t, 2, f.store.TickerDataCount("AAPL"))
	})

	t.Run("requires a held position", func(t *testing.T) {
		f := newLedgerFixture(false)
		f.client.SetQuote("AAPL", 160, "EQUITY").AddCandle("AAPL", day3, 155)

		_, err := f.ledger.BackfillHistory(ctx, "AAPL", nil)
		assert.ErrorIs(t, err, services.ErrNotHeld)
		assert.Equal(t, 0, f.store.TickerDataCount("AAPL"))
	})

	t.Run("invalid ticker", func(t *testing.T) {
		f := newLedgerFixture(false)
		_, err := f.ledger.BackfillHistory(ctx, "ZZZINVALID", nil)
		assert.ErrorIs(t, err, services.ErrInvalidTicker)
	})
}

func TestRefreshTickerData(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(false)
	f.client.SetQuote("AAPL", 150, "EQUITY").
		SetQuote("MSFT", 300, "EQUITY").
		AddCandle("AAPL", day3, 165)

	_, err := f.ledger.Buy(ctx, "AAPL", 10, nil)
	require.NoError(t, err)
	_, err = f.ledger.Buy(ctx, "MSFT", 1, nil)
	require.NoError(t, err)
	f.client.Fail("MSFT", errors.New("service unavailable"))

	result, err := f.ledger.RefreshTickerData(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, result.Refreshed)
	assert.Contains(t, result.Failed, "MSFT")

	assert.Equal(t, 1, f.store.TickerDataCount("AAPL"))
	assert.InDelta(t, 10.0, f.position(t, "AAPL").TotalReturn, 1e-9)
}

func TestUpdateTotalReturn(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(false)
	f.client.SetQuote("AAPL", 150, "EQUITY")

	_, err := f.ledger.Buy(ctx, "AAPL", 10, nil)
	require.NoError(t, err)

	f.client.SetQuote("AAPL", 135, "EQUITY")
	profit, err := f.ledger.UpdateTotalReturn(ctx, "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, -10.0, profit.PercentProfit, 1e-9)
	assert.InDelta(t, -10.0, f.position(t, "AAPL").TotalReturn, 1e-9)

	f.client.SetQuote("MSFT", 300, "EQUITY")
	_, err = f.ledger.UpdateTotalReturn(ctx, "MSFT")
	assert.ErrorIs(t, err, services.ErrNotHeld)
}

func TestTickerRegistration(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(false)
	f.client.SetQuote("AAPL", 150, "EQUITY").SetQuote("SPY", 450, "ETF")

	result, err := f.ledger.RegisterTickers(ctx, []string{"aapl", "AAPL", "ZZZINVALID", " spy ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "SPY"}, result.Registered)
	assert.Empty(t, result.Existing)
	assert.Equal(t, []string{"ZZZINVALID"}, result.Invalid)

	result, err = f.ledger.RegisterTickers(ctx, []string{"AAPL"})
	require.NoError(t, err)
	assert.Empty(t, result.Registered)
	assert.Equal(t, []string{"AAPL"}, result.Existing)

	t.Run("remove unused ticker", func(t *testing.T) {
		require.NoError(t, f.ledger.RemoveTicker(ctx, "spy"))
		exists, err := f.store.Tickers().Exists(ctx, "SPY")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("remove missing ticker", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.RemoveTicker(ctx, "NOPE"), services.ErrNotFound)
	})

	t.Run("missing ticker is reported without attempting a delete", func(t *testing.T) {
		f.store.FailWrites = errors.New("read-only")
		defer func() { f.store.FailWrites = nil }()

		err := f.ledger.RemoveTicker(ctx, "NOPE")
		assert.ErrorIs(t, err, services.ErrNotFound)
		assert.NotErrorIs(t, err, services.ErrStore)
	})

	t.Run("remove ticker with history", func(t *testing.T) {
		_, err := f.ledger.Buy(ctx, "AAPL", 1, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, f.ledger.RemoveTicker(ctx, "AAPL"), services.ErrTickerInUse)
	})
}
