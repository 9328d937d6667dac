package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"tracker/src/models"
	"tracker/src/repositories"
	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type LedgerServiceI interface {
	Buy(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error)
	Sell(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error)
	CalcProfit(ctx context.Context, tickerID string, at *time.Time) (*schemas.Profit, error)
	BackfillHistory(ctx context.Context, tickerID string, since *time.Time) (*schemas.BackfillResult, error)
	UpdateTotalReturn(ctx context.Context, tickerID string) (*schemas.Profit, error)
	RefreshTickerData(ctx context.Context) (*schemas.RefreshResult, error)
	RegisterTickers(ctx context.Context, tickers []string) (*schemas.RegisterResult, error)
	RemoveTicker(ctx context.Context, tickerID string) error
}

type LedgerService struct {
	tickerRepo      repositories.TickerRepository
	positionRepo    repositories.PositionRepository
	transactionRepo repositories.TransactionRepository
	tickerDataRepo  repositories.TickerDataRepository
	locker          repositories.TickerLocker
	valuation       ValuationServiceI
	backfillOnBuy   bool
	currency        string
	now             func() time.Time
}

func NewLedgerService(
	tickerRepo repositories.TickerRepository,
	positionRepo repositories.PositionRepository,
	transactionRepo repositories.TransactionRepository,
	tickerDataRepo repositories.TickerDataRepository,
	locker repositories.TickerLocker,
	valuation ValuationServiceI,
	backfillOnBuy bool,
	currency string,
) *LedgerService {
	if currency == "" {
		currency = "USD"
	}
	return &LedgerService{
		tickerRepo:      tickerRepo,
		positionRepo:    positionRepo,
		transactionRepo: transactionRepo,
		tickerDataRepo:  tickerDataRepo,
		locker:          locker,
		valuation:       valuation,
		backfillOnBuy:   backfillOnBuy,
		currency:        currency,
		now:             time.Now,
	}
}

// WithClock replaces the wall clock used for default trade dates and profit calculations.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// normalizeQuantity rounds quantity to the stored share scale. Anything that is not positive after
// rounding is rejected, since it could not be written.
func normalizeQuantity(quantity float64) (decimal.Decimal, error) {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return decimal.Zero, fmt.Errorf("%w: got %v", ErrInvalidQuantity, quantity)
	}
	rounded := decimal.NewFromFloat(quantity).Round(models.ShareScale)
	if rounded.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: got %v", ErrInvalidQuantity, quantity)
	}
	return rounded, nil
}

func shareDecimal(shares float64) decimal.Decimal {
	return decimal.NewFromFloat(shares).Round(models.ShareScale)
}

// tradePrice fetches the execution price, mapping an unknown symbol to ErrInvalidTicker.
func (s *LedgerService) tradePrice(ctx context.Context, tickerID string, at *time.Time) (float64, error) {
	price, err := s.valuation.GetMarketValue(ctx, tickerID, at)
	if err != nil {
		if errors.Is(err, ErrInvalidTicker) {
			return 0, fmt.Errorf("%w: %s", ErrInvalidTicker, tickerID)
		}
		return 0, err
	}
	return price, nil
}

func (s *LedgerService) lookupValid(ctx context.Context, tickerID string) (*schemas.TickerInfo, error) {
	info, err := s.valuation.LookupTicker(ctx, tickerID)
	if err != nil || info == nil || !info.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTicker, tickerID)
	}
	return info, nil
}

func (s *LedgerService) tradeDate(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return s.now().UTC()
}

func (s *LedgerService) Buy(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error) {
	tickerID = NormalizeTicker(tickerID)
	shares, err := normalizeQuantity(quantity)
	if err != nil {
		return nil, err
	}
	if tickerID == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidTicker)
	}

	price, err := s.tradePrice(ctx, tickerID, at)
	if err != nil {
		return nil, err
	}
	info, err := s.lookupValid(ctx, tickerID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		TickerID:        tickerID,
		NumShares:       shares.InexactFloat64(),
		Price:           price,
		TransactionType: models.TransactionTypeBuy,
		Date:            s.tradeDate(at),
	}

	err = s.locker.WithTickerLock(ctx, tickerID, func(tx pgx.Tx) error {
		position, err := s.positionRepo.GetByTickerID(ctx, tickerID, tx)
		if err != nil {
			return err
		}

		if position != nil {
			total := shareDecimal(position.TotalShares).Add(shares)
			if err := s.positionRepo.UpdateShares(ctx, tickerID, total.InexactFloat64(), tx); err != nil {
				return err
			}
		} else {
			if _, err := s.tickerRepo.Create(ctx, &models.Ticker{TickerID: tickerID}, tx); err != nil {
				return err
			}
			newPosition := &models.Position{
				TickerID:    tickerID,
				TotalShares: shares.InexactFloat64(),
				AssetType:   info.AssetType,
			}
			if err := s.positionRepo.Create(ctx, newPosition, tx); err != nil {
				return err
			}
		}

		return s.transactionRepo.Create(ctx, transaction, tx)
	})
	if err != nil {
		return nil, storeError(err)
	}

	logger := utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"ticker":          tickerID,
		"quantity":        transaction.NumShares,
		"price":           price,
		"transaction_num": transaction.TransactionNum,
	})
	logger.Info("purchase recorded")

	if s.backfillOnBuy {
		if _, err := s.BackfillHistory(ctx, tickerID, at); err != nil {
			logger.WithError(err).Warn("history backfill after purchase failed")
		}
	}

	return &schemas.TradeConfirmation{
		Action:         string(models.TransactionTypeBuy),
		TickerID:       tickerID,
		Quantity:       transaction.NumShares,
		Requested:      quantity,
		Price:          price,
		Date:           transaction.Date,
		TransactionNum: transaction.TransactionNum,
		Message: fmt.Sprintf("Success! Purchased %s shares of %s for %s each.",
			shares.String(), tickerID, utils.FormatCurrency(price, s.currency)),
	}, nil
}

func (s *LedgerService) Sell(ctx context.Context, tickerID string, quantity float64, at *time.Time) (*schemas.TradeConfirmation, error) {
	tickerID = NormalizeTicker(tickerID)
	shares, err := normalizeQuantity(quantity)
	if err != nil {
		return nil, err
	}
	if tickerID == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidTicker)
	}

	price, err := s.tradePrice(ctx, tickerID, at)
	if err != nil {
		return nil, err
	}
	if _, err := s.lookupValid(ctx, tickerID); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		TickerID:        tickerID,
		Price:           -price,
		TransactionType: models.TransactionTypeSell,
		Date:            s.tradeDate(at),
	}
	var held, toSell decimal.Decimal
	closed := false

	err = s.locker.WithTickerLock(ctx, tickerID, func(tx pgx.Tx) error {
		position, err := s.positionRepo.GetByTickerID(ctx, tickerID, tx)
		if err != nil {
			return err
		}
		if position == nil {
			return fmt.Errorf("%w: %s", ErrNotHeld, tickerID)
		}

		held = shareDecimal(position.TotalShares)
		toSell = decimal.Min(shares, held)
		// Both operands are at share scale, so a remainder below one unit of scale is zero here.
		remaining := held.Sub(toSell)

		if remaining.Sign() <= 0 {
			closed = true
			if err := s.positionRepo.Delete(ctx, tickerID, tx); err != nil {
				return err
			}
			if err := s.tickerDataRepo.DeleteByTickerID(ctx, tickerID, tx); err != nil {
				return err
			}
		} else {
			if err := s.positionRepo.UpdateShares(ctx, tickerID, remaining.InexactFloat64(), tx); err != nil {
				return err
			}
		}

		transaction.NumShares = toSell.InexactFloat64()
		return s.transactionRepo.Create(ctx, transaction, tx)
	})
	if err != nil {
		if errors.Is(err, ErrNotHeld) {
			return nil, err
		}
		return nil, storeError(err)
	}

	logger := utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"ticker":          tickerID,
		"quantity":        transaction.NumShares,
		"price":           price,
		"closed":          closed,
		"transaction_num": transaction.TransactionNum,
	})

	confirmation := &schemas.TradeConfirmation{
		Action:         string(models.TransactionTypeSell),
		TickerID:       tickerID,
		Quantity:       transaction.NumShares,
		Requested:      quantity,
		Price:          price,
		Date:           transaction.Date,
		TransactionNum: transaction.TransactionNum,
		Message: fmt.Sprintf("Success! Sold %s shares of %s for %s each.",
			toSell.String(), tickerID, utils.FormatCurrency(price, s.currency)),
	}
	if shares.GreaterThan(held) {
		confirmation.Warning = fmt.Sprintf("Requested %s shares of %s but only %s were held; sold %s.",
			shares.String(), tickerID, held.String(), held.String())
		logger.Warn(confirmation.Warning)
	}
	logger.Info("sale recorded")

	return confirmation, nil
}

// computeProfit replays the ledger in date order. Sell prices are stored negative, so cost is the net
// signed cash flow into the position.
func computeProfit(tickerID string, asOf time.Time, closePrice float64, transactions []models.Transaction) *schemas.Profit {
	ordered := append([]models.Transaction(nil), transactions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].TransactionNum < ordered[j].TransactionNum
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})

	shares := decimal.Zero
	cost := decimal.Zero
	for _, t := range ordered {
		quantity := decimal.NewFromFloat(t.NumShares)
		switch t.TransactionType {
		case models.TransactionTypeBuy:
			shares = shares.Add(quantity)
		case models.TransactionTypeSell:
			shares = shares.Sub(quantity)
		}
		cost = cost.Add(quantity.Mul(decimal.NewFromFloat(t.Price)))
	}

	value := shares.Mul(decimal.NewFromFloat(closePrice))
	absProfit := value.Sub(cost)
	percentProfit := decimal.Zero
	if !cost.IsZero() {
		percentProfit = absProfit.Div(cost).Mul(decimal.NewFromInt(100))
	}

	return &schemas.Profit{
		TickerID:      tickerID,
		AsOf:          asOf,
		SharesHeld:    shares.InexactFloat64(),
		CostBasis:     cost.InexactFloat64(),
		ClosePrice:    closePrice,
		MarketValue:   value.InexactFloat64(),
		AbsProfit:     absProfit.InexactFloat64(),
		PercentProfit: percentProfit.Round(6).InexactFloat64(),
	}
}

func (s *LedgerService) CalcProfit(ctx context.Context, tickerID string, at *time.Time) (*schemas.Profit, error) {
	tickerID = NormalizeTicker(tickerID)
	asOf := s.tradeDate(at)

	closePrice, ok, err := s.tickerDataRepo.GetClose(ctx, tickerID, utils.TruncateToDay(asOf), nil)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		closePrice, err = s.valuation.GetMarketValue(ctx, tickerID, at)
		if err != nil {
			return nil, err
		}
	}

	transactions, err := s.transactionRepo.GetByTickerIDUntil(ctx, tickerID, asOf, nil)
	if err != nil {
		return nil, storeError(err)
	}
	return computeProfit(tickerID, asOf, closePrice, transactions), nil
}

// BackfillHistory stores one ticker_data row per trading day since since. Each day commits on its own, so a
// failed run can simply be repeated. Candles are fetched before any lock is taken.
func (s *LedgerService) BackfillHistory(ctx context.Context, tickerID string, since *time.Time) (*schemas.BackfillResult, error) {
	tickerID = NormalizeTicker(tickerID)
	candles, err := s.valuation.GetDailyHistory(ctx, tickerID, since)
	if err != nil {
		return nil, err
	}

	result := &schemas.BackfillResult{TickerID: tickerID}
	for _, candle := range candles {
		err := s.locker.WithTickerLock(ctx, tickerID, func(tx pgx.Tx) error {
			position, err := s.positionRepo.GetByTickerID(ctx, tickerID, tx)
			if err != nil {
				return err
			}
			if position == nil {
				return fmt.Errorf("%w: %s", ErrNotHeld, tickerID)
			}

			transactions, err := s.transactionRepo.GetByTickerIDUntil(ctx, tickerID, utils.EndOfDay(candle.Date), tx)
			if err != nil {
				return err
			}
			profit := computeProfit(tickerID, candle.Date, candle.Close, transactions)

			return s.tickerDataRepo.Upsert(ctx, &models.TickerDataPoint{
				TickerID:      tickerID,
				Date:          candle.Date,
				Open:          candle.Open,
				High:          candle.High,
				Low:           candle.Low,
				Close:         candle.Close,
				Volume:        candle.Volume,
				AbsProfit:     profit.AbsProfit,
				PercentProfit: profit.PercentProfit,
			}, tx)
		})
		if err != nil {
			if errors.Is(err, ErrNotHeld) {
				return result, err
			}
			return result, storeError(err)
		}

		day := candle.Date
		if result.From == nil || day.Before(*result.From) {
			result.From = &day
		}
		if result.To == nil || day.After(*result.To) {
			result.To = &day
		}
		result.Days++
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"ticker": tickerID,
		"days":   result.Days,
	}).Info("history backfilled")
	return result, nil
}

// UpdateTotalReturn caches the position's current percent profit on the portfolio row.
func (s *LedgerService) UpdateTotalReturn(ctx context.Context, tickerID string) (*schemas.Profit, error) {
	tickerID = NormalizeTicker(tickerID)
	profit, err := s.CalcProfit(ctx, tickerID, nil)
	if err != nil {
		return nil, err
	}
	err = s.locker.WithTickerLock(ctx, tickerID, func(tx pgx.Tx) error {
		position, err := s.positionRepo.GetByTickerID(ctx, tickerID, tx)
		if err != nil {
			return err
		}
		if position == nil {
			return fmt.Errorf("%w: %s", ErrNotHeld, tickerID)
		}
		return s.positionRepo.UpdateTotalReturn(ctx, tickerID, profit.PercentProfit, tx)
	})
	if err != nil {
		if errors.Is(err, ErrNotHeld) {
			return nil, err
		}
		return nil, storeError(err)
	}
	return profit, nil
}

// RefreshTickerData pulls the latest trading day for every held ticker and refreshes its cached return.
// A failing ticker is reported in the result and does not stop the others.
func (s *LedgerService) RefreshTickerData(ctx context.Context) (*schemas.RefreshResult, error) {
	positions, err := s.positionRepo.GetAll(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	logger := utils.LoggerFromContext(ctx)
	result := &schemas.RefreshResult{Refreshed: []string{}, Failed: map[string]string{}}
	for _, position := range positions {
		if _, err := s.BackfillHistory(ctx, position.TickerID, nil); err != nil {
			logger.WithError(err).WithField("ticker", position.TickerID).Warn("ticker data refresh failed")
			result.Failed[position.TickerID] = err.Error()
			continue
		}
		if _, err := s.UpdateTotalReturn(ctx, position.TickerID); err != nil {
			logger.WithError(err).WithField("ticker", position.TickerID).Warn("total return refresh failed")
			result.Failed[position.TickerID] = err.Error()
			continue
		}
		result.Refreshed = append(result.Refreshed, position.TickerID)
	}
	return result, nil
}

// RegisterTickers validates and registers each symbol. Unknown symbols are reported, not fatal.
func (s *LedgerService) RegisterTickers(ctx context.Context, tickers []string) (*schemas.RegisterResult, error) {
	result := &schemas.RegisterResult{Registered: []string{}, Existing: []string{}, Invalid: []string{}}
	seen := map[string]bool{}
	for _, raw := range tickers {
		tickerID := NormalizeTicker(raw)
		if tickerID == "" || seen[tickerID] {
			continue
		}
		seen[tickerID] = true

		if !s.valuation.IsValidTicker(ctx, tickerID) {
			result.Invalid = append(result.Invalid, tickerID)
			continue
		}
		created, err := s.tickerRepo.Create(ctx, &models.Ticker{TickerID: tickerID}, nil)
		if err != nil {
			return nil, storeError(err)
		}
		if created {
			result.Registered = append(result.Registered, tickerID)
		} else {
			result.Existing = append(result.Existing, tickerID)
		}
	}
	return result, nil
}

// RemoveTicker unregisters a symbol that no position or transaction refers to.
func (s *LedgerService) RemoveTicker(ctx context.Context, tickerID string) error {
	tickerID = NormalizeTicker(tickerID)
	exists, err := s.tickerRepo.Exists(ctx, tickerID)
	if err != nil {
		return storeError(err)
	}
	if !exists {
		return fmt.Errorf("%w: ticker %s", ErrNotFound, tickerID)
	}

	err = s.tickerRepo.Delete(ctx, tickerID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: ticker %s", ErrNotFound, tickerID)
	case errors.Is(err, repositories.ErrReferenced):
		return fmt.Errorf("%w: %s", ErrTickerInUse, tickerID)
	default:
		return storeError(err)
	}
}
