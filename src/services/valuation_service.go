package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracker/src/clients/yahoo"
	"tracker/src/config"
	"tracker/src/models"
	"tracker/src/schemas"
	"tracker/src/utils"
)

const (
	defaultProviderTimeout = 10 * time.Second
	defaultPriceWindow     = 12 * time.Hour
)

type ValuationServiceI interface {
	// GetMarketValue returns the current price when at is nil, otherwise the most recent daily close in the
	// trailing window ending at at.
	GetMarketValue(ctx context.Context, tickerID string, at *time.Time) (float64, error)
	IsValidTicker(ctx context.Context, tickerID string) bool
	GetAssetType(ctx context.Context, tickerID string) string
	LookupTicker(ctx context.Context, tickerID string) (*schemas.TickerInfo, error)
	// GetDailyHistory returns daily candles from the start of since's day until now, or the last
	// available trading day when since is nil.
	GetDailyHistory(ctx context.Context, tickerID string, since *time.Time) ([]yahoo.Candle, error)
}

type ValuationService struct {
	client  yahoo.YahooServiceClientI
	timeout time.Duration
	window  time.Duration
	now     func() time.Time
}

func NewValuationService(client yahoo.YahooServiceClientI, cfg *config.Config) *ValuationService {
	timeout := time.Duration(cfg.ExternalClients.Yahoo.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	window := time.Duration(cfg.Ledger.PriceWindowHours) * time.Hour
	if window <= 0 {
		window = defaultPriceWindow
	}
	return &ValuationService{
		client:  client,
		timeout: timeout,
		window:  window,
		now:     time.Now,
	}
}

// WithClock replaces the wall clock, used to anchor history requests.
func (s *ValuationService) WithClock(now func() time.Time) *ValuationService {
	s.now = now
	return s
}

// NormalizeTicker trims and upper-cases a symbol.
func NormalizeTicker(tickerID string) string {
	return strings.ToUpper(strings.TrimSpace(tickerID))
}

func (s *ValuationService) quote(ctx context.Context, tickerID string) (*yahoo.ChartMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.GetQuote(ctx, tickerID)
}

func invalidTickerPrice(tickerID string) error {
	return fmt.Errorf("%w: %w: %s", ErrPriceUnavailable, ErrInvalidTicker, tickerID)
}

func priceUnavailable(tickerID string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: no price data for %s", ErrPriceUnavailable, tickerID)
	}
	return fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, tickerID, cause)
}

func (s *ValuationService) GetMarketValue(ctx context.Context, tickerID string, at *time.Time) (float64, error) {
	tickerID = NormalizeTicker(tickerID)
	if tickerID == "" {
		return 0, invalidTickerPrice(tickerID)
	}
	logger := utils.LoggerFromContext(ctx).WithField("ticker", tickerID)

	meta, err := s.quote(ctx, tickerID)
	if err != nil {
		if errors.Is(err, yahoo.ErrSymbolNotFound) {
			return 0, invalidTickerPrice(tickerID)
		}
		logger.WithError(err).Warn("quote lookup failed")
	} else if meta.Symbol == "" {
		return 0, invalidTickerPrice(tickerID)
	}

	if at == nil {
		if meta != nil && meta.RegularMarketPrice > 0 {
			return meta.RegularMarketPrice, nil
		}
		return s.latestClose(ctx, tickerID)
	}
	return s.closeAt(ctx, tickerID, at.UTC())
}

// latestClose reads the most recent close from the one-day history download.
func (s *ValuationService) latestClose(ctx context.Context, tickerID string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	candles, err := s.client.GetRecentHistory(ctx, tickerID, "1d")
	if err != nil {
		return 0, priceUnavailable(tickerID, err)
	}
	if len(candles) == 0 {
		return 0, priceUnavailable(tickerID, nil)
	}
	return candles[len(candles)-1].Close, nil
}

// closeAt returns the latest close whose bar falls inside [at-window, at].
func (s *ValuationService) closeAt(ctx context.Context, tickerID string, at time.Time) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := at.Add(-s.window)
	candles, err := s.client.GetHistory(ctx, tickerID, start, at)
	if err != nil {
		return 0, priceUnavailable(tickerID, err)
	}

	var latest *yahoo.Candle
	for i := range candles {
		c := &candles[i]
		if c.Time.Before(start) || c.Time.After(at) {
			continue
		}
		if latest == nil || c.Time.After(latest.Time) {
			latest = c
		}
	}
	if latest == nil {
		return 0, priceUnavailable(tickerID, nil)
	}
	return latest.Close, nil
}

func (s *ValuationService) IsValidTicker(ctx context.Context, tickerID string) bool {
	info, err := s.LookupTicker(ctx, tickerID)
	return err == nil && info.Valid
}

func (s *ValuationService) GetAssetType(ctx context.Context, tickerID string) string {
	info, err := s.LookupTicker(ctx, tickerID)
	if err != nil || !info.Valid {
		return models.AssetTypeUnknown
	}
	return info.AssetType
}

// LookupTicker reports Valid=false with a nil error when the provider does not know the symbol, and a
// non-nil error when the provider could not be asked.
func (s *ValuationService) LookupTicker(ctx context.Context, tickerID string) (*schemas.TickerInfo, error) {
	tickerID = NormalizeTicker(tickerID)
	info := &schemas.TickerInfo{TickerID: tickerID, AssetType: models.AssetTypeUnknown}
	if tickerID == "" {
		return info, nil
	}

	meta, err := s.quote(ctx, tickerID)
	if err != nil {
		if errors.Is(err, yahoo.ErrSymbolNotFound) {
			return info, nil
		}
		return info, err
	}
	if meta.Symbol == "" {
		return info, nil
	}

	info.Valid = true
	if meta.InstrumentType != "" {
		info.AssetType = meta.InstrumentType
	}
	info.Name = meta.LongName
	if info.Name == "" {
		info.Name = meta.ShortName
	}
	info.Currency = meta.Currency
	info.Price = meta.RegularMarketPrice
	return info, nil
}

func (s *ValuationService) GetDailyHistory(ctx context.Context, tickerID string, since *time.Time) ([]yahoo.Candle, error) {
	tickerID = NormalizeTicker(tickerID)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		candles []yahoo.Candle
		err     error
	)
	if since == nil {
		candles, err = s.client.GetRecentHistory(ctx, tickerID, "1d")
	} else {
		start := utils.TruncateToDay(since.UTC())
		end := s.now().UTC()
		if end.Before(start) {
			return nil, fmt.Errorf("%w: history start %s is in the future", ErrPriceUnavailable, start.Format(utils.ShortDashDateLayout))
		}
		candles, err = s.client.GetHistory(ctx, tickerID, start, end)
	}
	if err != nil {
		if errors.Is(err, yahoo.ErrSymbolNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTicker, tickerID)
		}
		return nil, priceUnavailable(tickerID, err)
	}
	return candles, nil
}
