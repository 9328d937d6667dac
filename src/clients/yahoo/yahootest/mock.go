package yahootest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tracker/src/clients/yahoo"
)

// YahooServiceClientMock is an in-memory implementation of YahooServiceClientI. Symbols without a quote are
// reported as not found.
type YahooServiceClientMock struct {
	mu       sync.Mutex
	quotes   map[string]yahoo.ChartMeta
	candles  map[string][]yahoo.Candle
	failures map[string]error
	calls    map[string]int
}

func NewMockClient() *YahooServiceClientMock {
	return &YahooServiceClientMock{
		quotes:   map[string]yahoo.ChartMeta{},
		candles:  map[string][]yahoo.Candle{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

// SetQuote registers symbol with a live price and instrument type.
func (m *YahooServiceClientMock) SetQuote(symbol string, price float64, instrumentType string) *YahooServiceClientMock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[symbol] = yahoo.ChartMeta{
		Currency:           "USD",
		Symbol:             symbol,
		InstrumentType:     instrumentType,
		ShortName:          symbol + " Inc.",
		RegularMarketPrice: price,
	}
	return m
}

// AddCandle stores a daily bar closing at 16:00 UTC on day.
func (m *YahooServiceClientMock) AddCandle(symbol string, day time.Time, closePrice float64) *YahooServiceClientMock {
	m.mu.Lock()
	defer m.mu.Unlock()
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	m.candles[symbol] = append(m.candles[symbol], yahoo.Candle{
		Date:   date,
		Time:   date.Add(16 * time.Hour),
		Open:   closePrice,
		High:   closePrice,
		Low:    closePrice,
		Close:  closePrice,
		Volume: 1000,
	})
	sort.Slice(m.candles[symbol], func(i, j int) bool {
		return m.candles[symbol][i].Time.Before(m.candles[symbol][j].Time)
	})
	return m
}

// Fail makes every call for symbol return err. A nil err clears the failure.
func (m *YahooServiceClientMock) Fail(symbol string, err error) *YahooServiceClientMock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, symbol)
	} else {
		m.failures[symbol] = err
	}
	return m
}

// Calls returns how many requests were made for symbol.
func (m *YahooServiceClientMock) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *YahooServiceClientMock) check(symbol string) error {
	m.calls[symbol]++
	if err, ok := m.failures[symbol]; ok {
		return err
	}
	if _, ok := m.quotes[symbol]; !ok {
		return fmt.Errorf("%w: %s", yahoo.ErrSymbolNotFound, symbol)
	}
	return nil
}

func (m *YahooServiceClientMock) GetQuote(_ context.Context, symbol string) (*yahoo.ChartMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(symbol); err != nil {
		return nil, err
	}
	meta := m.quotes[symbol]
	return &meta, nil
}

func (m *YahooServiceClientMock) GetHistory(_ context.Context, symbol string, start, end time.Time) ([]yahoo.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(symbol); err != nil {
		return nil, err
	}
	var candles []yahoo.Candle
	for _, candle := range m.candles[symbol] {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// GetRecentHistory returns the last stored bar for "1d" and every stored bar otherwise.
func (m *YahooServiceClientMock) GetRecentHistory(_ context.Context, symbol string, period string) ([]yahoo.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(symbol); err != nil {
		return nil, err
	}
	candles := m.candles[symbol]
	if period == "1d" && len(candles) > 0 {
		return []yahoo.Candle{candles[len(candles)-1]}, nil
	}
	return append([]yahoo.Candle(nil), candles...), nil
}
