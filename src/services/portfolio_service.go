package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tracker/src/models"
	"tracker/src/repositories"
	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type PortfolioServiceI interface {
	ListPositions(ctx context.Context) ([]schemas.PositionSummary, error)
	AssetAllocation(ctx context.Context) (map[string]float64, error)
	TransactionHistory(ctx context.Context, tickerID *string) ([]schemas.TransactionEntry, error)
	PositionDetail(ctx context.Context, tickerID string) (*schemas.PositionDetail, error)
	TickerHistory(ctx context.Context, tickerID string) ([]models.TickerDataPoint, error)
	Tickers(ctx context.Context) ([]models.Ticker, error)
	Dashboard(ctx context.Context) (*schemas.Dashboard, error)
}

type PortfolioService struct {
	tickerRepo      repositories.TickerRepository
	positionRepo    repositories.PositionRepository
	transactionRepo repositories.TransactionRepository
	tickerDataRepo  repositories.TickerDataRepository
	valuation       ValuationServiceI
	ledger          LedgerServiceI
	concurrency     int
	currency        string
}

func NewPortfolioService(
	tickerRepo repositories.TickerRepository,
	positionRepo repositories.PositionRepository,
	transactionRepo repositories.TransactionRepository,
	tickerDataRepo repositories.TickerDataRepository,
	valuation ValuationServiceI,
	ledger LedgerServiceI,
	concurrency int,
	currency string,
) *PortfolioService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if currency == "" {
		currency = "USD"
	}
	return &PortfolioService{
		tickerRepo:      tickerRepo,
		positionRepo:    positionRepo,
		transactionRepo: transactionRepo,
		tickerDataRepo:  tickerDataRepo,
		valuation:       valuation,
		ledger:          ledger,
		concurrency:     concurrency,
		currency:        currency,
	}
}

const notAvailable = "N/A"

func (s *PortfolioService) summarize(ctx context.Context, position models.Position) schemas.PositionSummary {
	summary := schemas.PositionSummary{
		TickerID:     strings.ToUpper(position.TickerID),
		NumShares:    position.TotalShares,
		AssetType:    strings.ToUpper(position.AssetType),
		CurrentPrice: notAvailable,
		MarketValue:  notAvailable,
		TotalReturn:  utils.FormatPercent(position.TotalReturn),
	}

	price, err := s.valuation.GetMarketValue(ctx, position.TickerID, nil)
	if err != nil {
		utils.LoggerFromContext(ctx).WithError(err).WithField("ticker", position.TickerID).Warn("current price unavailable")
		summary.Error = err.Error()
		return summary
	}

	value := decimal.NewFromFloat(position.TotalShares).Mul(decimal.NewFromFloat(price)).InexactFloat64()
	summary.PriceAvailable = true
	summary.CurrentPriceValue = price
	summary.MarketValueValue = value
	summary.CurrentPrice = utils.FormatCurrency(price, s.currency)
	summary.MarketValue = utils.FormatCurrency(value, s.currency)
	return summary
}

// ListPositions prices every position concurrently. A failed lookup marks that entry unavailable and the
// listing carries on.
func (s *PortfolioService) ListPositions(ctx context.Context) ([]schemas.PositionSummary, error) {
	positions, err := s.positionRepo.GetAll(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	summaries := make([]schemas.PositionSummary, len(positions))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, position := range positions {
		g.Go(func() error {
			summaries[i] = s.summarize(ctx, position)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].NumShares > summaries[j].NumShares
	})
	return summaries, nil
}

// AssetAllocation returns the share-count fraction held per upper-cased asset type. The map is empty when
// nothing is held.
func (s *PortfolioService) AssetAllocation(ctx context.Context) (map[string]float64, error) {
	positions, err := s.positionRepo.GetAll(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	totals := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, position := range positions {
		shares := decimal.NewFromFloat(position.TotalShares)
		assetType := strings.ToUpper(position.AssetType)
		totals[assetType] = totals[assetType].Add(shares)
		total = total.Add(shares)
	}

	allocation := map[string]float64{}
	if total.IsZero() {
		return allocation, nil
	}
	for assetType, shares := range totals {
		allocation[assetType] = shares.Div(total).InexactFloat64()
	}
	return allocation, nil
}

func (s *PortfolioService) TransactionHistory(ctx context.Context, tickerID *string) ([]schemas.TransactionEntry, error) {
	var (
		transactions []models.Transaction
		err          error
	)
	if tickerID != nil && NormalizeTicker(*tickerID) != "" {
		transactions, err = s.transactionRepo.GetByTickerID(ctx, NormalizeTicker(*tickerID))
	} else {
		transactions, err = s.transactionRepo.GetAll(ctx)
	}
	if err != nil {
		return nil, storeError(err)
	}

	entries := make([]schemas.TransactionEntry, 0, len(transactions))
	for _, t := range transactions {
		total := decimal.NewFromFloat(t.NumShares).Mul(decimal.NewFromFloat(t.Price)).InexactFloat64()
		entries = append(entries, schemas.TransactionEntry{
			TransactionNum:  t.TransactionNum,
			TickerID:        t.TickerID,
			NumShares:       t.NumShares,
			Price:           utils.FormatCurrency(t.Price, s.currency),
			Total:           utils.FormatCurrency(total, s.currency),
			PriceValue:      t.Price,
			TotalValue:      total,
			TransactionType: displayTransactionType(t.TransactionType),
			Date:            t.Date,
			Timestamp:       t.Date.Format(utils.TimestampLayout),
		})
	}
	return entries, nil
}

func displayTransactionType(t models.TransactionType) string {
	switch t {
	case models.TransactionTypeBuy:
		return "Buy"
	case models.TransactionTypeSell:
		return "Sell"
	default:
		return string(t)
	}
}

// PositionDetail reports a held position together with its current profit. A failed profit calculation is
// reported in Error rather than failing the lookup.
func (s *PortfolioService) PositionDetail(ctx context.Context, tickerID string) (*schemas.PositionDetail, error) {
	tickerID = NormalizeTicker(tickerID)
	position, err := s.positionRepo.GetByTickerID(ctx, tickerID, nil)
	if err != nil {
		return nil, storeError(err)
	}
	if position == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotHeld, tickerID)
	}

	detail := &schemas.PositionDetail{Position: *position}
	profit, err := s.ledger.CalcProfit(ctx, tickerID, nil)
	if err != nil {
		detail.Error = err.Error()
	} else {
		detail.Profit = profit
	}

	latest, err := s.tickerDataRepo.GetLatest(ctx, tickerID)
	if err != nil {
		return nil, storeError(err)
	}
	detail.Latest = latest
	return detail, nil
}

func (s *PortfolioService) TickerHistory(ctx context.Context, tickerID string) ([]models.TickerDataPoint, error) {
	points, err := s.tickerDataRepo.GetByTickerID(ctx, NormalizeTicker(tickerID))
	if err != nil {
		return nil, storeError(err)
	}
	if points == nil {
		points = []models.TickerDataPoint{}
	}
	return points, nil
}

func (s *PortfolioService) Tickers(ctx context.Context) ([]models.Ticker, error) {
	tickers, err := s.tickerRepo.GetAll(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if tickers == nil {
		tickers = []models.Ticker{}
	}
	return tickers, nil
}

func (s *PortfolioService) Dashboard(ctx context.Context) (*schemas.Dashboard, error) {
	positions, err := s.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	allocation, err := s.AssetAllocation(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, position := range positions {
		if position.PriceAvailable {
			total = total.Add(decimal.NewFromFloat(position.MarketValueValue))
		}
	}

	return &schemas.Dashboard{
		GeneratedAt: time.Now().UTC(),
		Positions:   positions,
		Allocation:  allocation,
		TotalValue:  utils.FormatCurrency(total.InexactFloat64(), s.currency),
	}, nil
}
