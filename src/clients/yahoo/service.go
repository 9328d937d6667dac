package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracker/src/config"
	"tracker/src/utils"
	"tracker/src/utils/requests"
)

// ErrSymbolNotFound is returned when the provider has no data for the requested symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// APIError represents a non-successful provider response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo Finance API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type YahooServiceClientI interface {
	// GetQuote returns the symbol's current metadata, including its live price and instrument type.
	GetQuote(ctx context.Context, symbol string) (*ChartMeta, error)
	// GetHistory returns the daily candles whose bar time falls within [start, end].
	GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]Candle, error)
	// GetRecentHistory returns the daily candles for a provider range such as "1d" or "5d".
	GetRecentHistory(ctx context.Context, symbol string, period string) ([]Candle, error)
}

type YahooServiceClient struct {
	API     *requests.ExternalAPIService
	BaseURL string
}

// NewClient creates a new instance of YahooServiceClient
func NewClient(cfg *config.Config) (*YahooServiceClient, error) {
	yahooCfg := cfg.ExternalClients.Yahoo
	if yahooCfg.BaseURL == "" {
		return nil, errors.New("externalClients.yahoo.baseUrl is required")
	}
	api := requests.NewExternalAPIService(
		requests.WithTimeout(time.Duration(yahooCfg.TimeoutSeconds)*time.Second),
		requests.WithRateLimit(yahooCfg.RateLimit),
		requests.WithHeader("User-Agent", yahooCfg.UserAgent),
	)
	return &YahooServiceClient{
		API:     api,
		BaseURL: strings.TrimRight(yahooCfg.BaseURL, "/"),
	}, nil
}

func (c *YahooServiceClient) GetQuote(ctx context.Context, symbol string) (*ChartMeta, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	result, err := c.getChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	if result.Meta.Symbol == "" {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return &result.Meta, nil
}

func (c *YahooServiceClient) GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]Candle, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")

	result, err := c.getChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	candles := result.Candles()
	inRange := candles[:0]
	for _, candle := range candles {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}
		inRange = append(inRange, candle)
	}
	return inRange, nil
}

func (c *YahooServiceClient) GetRecentHistory(ctx context.Context, symbol string, period string) ([]Candle, error) {
	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", "1d")

	result, err := c.getChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	return result.Candles(), nil
}

func (c *YahooServiceClient) getChart(ctx context.Context, symbol string, params url.Values) (*ChartResult, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))
	endpoint := c.BaseURL + path

	resp, err := c.API.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(responseBody),
			Endpoint:   path,
		}
	}

	var chartResponse ChartResponse
	err = json.Unmarshal(responseBody, &chartResponse)
	if err != nil {
		return nil, err
	}

	if chartResponse.Chart.Error != nil {
		if chartResponse.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    chartResponse.Chart.Error.Description,
			Endpoint:   path,
		}
	}
	if len(chartResponse.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return &chartResponse.Chart.Result[0], nil
}

// Candles zips the timestamp and quote arrays, skipping bars without a close.
func (r *ChartResult) Candles() []Candle {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	quote := r.Indicators.Quote[0]
	location := time.FixedZone(r.Meta.ExchangeTimezoneName, r.Meta.GMTOffset)

	candles := make([]Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePrice, ok := valueAt(quote.Close, i)
		if !ok {
			continue
		}
		barTime := time.Unix(ts, 0).In(location)
		open, _ := valueAt(quote.Open, i)
		high, _ := valueAt(quote.High, i)
		low, _ := valueAt(quote.Low, i)
		volume, _ := valueAt(quote.Volume, i)
		candles = append(candles, Candle{
			Date:   utils.TruncateToDay(barTime),
			Time:   barTime.UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: int64(volume),
		})
	}
	return candles
}

func valueAt(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}
