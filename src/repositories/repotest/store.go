// Package repotest provides an in-memory implementation of the ledger repositories for tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"tracker/src/models"
	"tracker/src/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Store keeps every table in memory. The repositories returned by its accessors share state, and
// WithTickerLock restores the previous state when fn fails.
type Store struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	tickers      map[string]models.Ticker
	positions    map[string]models.Position
	transactions []models.Transaction
	tickerData   map[string]map[time.Time]models.TickerDataPoint
	nextTxNum    int64

	// FailWrites makes every write return this error when set.
	FailWrites error
}

// atShareScale rounds shares the way the NUMERIC(20, 6) columns do on write.
func atShareScale(shares float64) float64 {
	return decimal.NewFromFloat(shares).Round(models.ShareScale).InexactFloat64()
}

func NewStore() *Store {
	return &Store{
		tickers:    map[string]models.Ticker{},
		positions:  map[string]models.Position{},
		tickerData: map[string]map[time.Time]models.TickerDataPoint{},
		nextTxNum:  1,
	}
}

func (s *Store) Tickers() repositories.TickerRepository           { return &tickerRepo{s} }
func (s *Store) Positions() repositories.PositionRepository       { return &positionRepo{s} }
func (s *Store) Transactions() repositories.TransactionRepository { return &transactionRepo{s} }
func (s *Store) TickerData() repositories.TickerDataRepository    { return &tickerDataRepo{s} }
func (s *Store) Locker() repositories.TickerLocker                { return &locker{s} }

// TransactionCount reports how many ledger entries have been written.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// TickerDataCount reports how many history points are stored for tickerID.
func (s *Store) TickerDataCount(tickerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickerData[tickerID])
}

type snapshot struct {
	tickers      map[string]models.Ticker
	positions    map[string]models.Position
	transactions []models.Transaction
	tickerData   map[string]map[time.Time]models.TickerDataPoint
	nextTxNum    int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		tickers:      make(map[string]models.Ticker, len(s.tickers)),
		positions:    make(map[string]models.Position, len(s.positions)),
		transactions: append([]models.Transaction(nil), s.transactions...),
		tickerData:   make(map[string]map[time.Time]models.TickerDataPoint, len(s.tickerData)),
		nextTxNum:    s.nextTxNum,
	}
	for k, v := range s.tickers {
		snap.tickers[k] = v
	}
	for k, v := range s.positions {
		snap.positions[k] = v
	}
	for k, days := range s.tickerData {
		copied := make(map[time.Time]models.TickerDataPoint, len(days))
		for d, p := range days {
			copied[d] = p
		}
		snap.tickerData[k] = copied
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickers = snap.tickers
	s.positions = snap.positions
	s.transactions = snap.transactions
	s.tickerData = snap.tickerData
	s.nextTxNum = snap.nextTxNum
}

type locker struct{ s *Store }

func (l *locker) WithTickerLock(_ context.Context, _ string, fn func(tx pgx.Tx) error) error {
	l.s.txMu.Lock()
	defer l.s.txMu.Unlock()

	snap := l.s.snapshot()
	if err := fn(nil); err != nil {
		l.s.restore(snap)
		return err
	}
	return nil
}

type tickerRepo struct{ s *Store }

func (r *tickerRepo) GetAll(_ context.Context) ([]models.Ticker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tickers := make([]models.Ticker, 0, len(r.s.tickers))
	for _, t := range r.s.tickers {
		tickers = append(tickers, t)
	}
	sort.Slice(tickers, func(i, j int) bool { return tickers[i].TickerID < tickers[j].TickerID })
	return tickers, nil
}

func (r *tickerRepo) Exists(_ context.Context, tickerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.tickers[tickerID]
	return ok, nil
}

func (r *tickerRepo) Create(_ context.Context, t *models.Ticker, _ pgx.Tx) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return false, r.s.FailWrites
	}
	if _, ok := r.s.tickers[t.TickerID]; ok {
		return false, nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	r.s.tickers[t.TickerID] = *t
	return true, nil
}

func (r *tickerRepo) Delete(_ context.Context, tickerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	if _, ok := r.s.tickers[tickerID]; !ok {
		return pgx.ErrNoRows
	}
	if _, held := r.s.positions[tickerID]; held {
		return repositories.ErrReferenced
	}
	for _, t := range r.s.transactions {
		if t.TickerID == tickerID {
			return repositories.ErrReferenced
		}
	}
	delete(r.s.tickers, tickerID)
	return nil
}

type positionRepo struct{ s *Store }

func (r *positionRepo) GetAll(_ context.Context) ([]models.Position, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	positions := make([]models.Position, 0, len(r.s.positions))
	for _, p := range r.s.positions {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].TickerID < positions[j].TickerID })
	return positions, nil
}

func (r *positionRepo) GetByTickerID(_ context.Context, tickerID string, _ pgx.Tx) (*models.Position, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.positions[tickerID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *positionRepo) Create(_ context.Context, p *models.Position, _ pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	if _, ok := r.s.tickers[p.TickerID]; !ok {
		return errors.New("portfolio.ticker_id references a missing ticker")
	}
	if _, ok := r.s.positions[p.TickerID]; ok {
		return errors.New("duplicate key value violates unique constraint \"portfolio_pkey\"")
	}
	p.TotalShares = atShareScale(p.TotalShares)
	if p.TotalShares <= 0 {
		return errors.New("total_shares must be positive")
	}
	if p.AssetType == "" {
		p.AssetType = models.AssetTypeUnknown
	}
	r.s.positions[p.TickerID] = *p
	return nil
}

func (r *positionRepo) UpdateShares(_ context.Context, tickerID string, totalShares float64, _ pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	p, ok := r.s.positions[tickerID]
	if !ok {
		return pgx.ErrNoRows
	}
	totalShares = atShareScale(totalShares)
	if totalShares <= 0 {
		return errors.New("total_shares must be positive")
	}
	p.TotalShares = totalShares
	r.s.positions[tickerID] = p
	return nil
}

func (r *positionRepo) UpdateTotalReturn(_ context.Context, tickerID string, totalReturn float64, _ pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	if p, ok := r.s.positions[tickerID]; ok {
		p.TotalReturn = totalReturn
		r.s.positions[tickerID] = p
	}
	return nil
}

func (r *positionRepo) Delete(_ context.Context, tickerID string, _ pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	delete(r.s.positions, tickerID)
	return nil
}

type transactionRepo struct{ s *Store }

func (r *transactionRepo) filter(keep func(models.Transaction) bool, newestFirst bool) []models.Transaction {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Transaction
	for _, t := range r.s.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			if newestFirst {
				return a.Date.After(b.Date)
			}
			return a.Date.Before(b.Date)
		}
		if newestFirst {
			return a.TransactionNum > b.TransactionNum
		}
		return a.TransactionNum < b.TransactionNum
	})
	return out
}

func (r *transactionRepo) GetAll(_ context.Context) ([]models.Transaction, error) {
	return r.filter(func(models.Transaction) bool { return true }, true), nil
}

func (r *transactionRepo) GetByTickerID(_ context.Context, tickerID string) ([]models.Transaction, error) {
	return r.filter(func(t models.Transaction) bool { return t.TickerID == tickerID }, true), nil
}

func (r *transactionRepo) GetByTickerIDUntil(_ context.Context, tickerID string, until time.Time, _ pgx.Tx) ([]models.Transaction, error) {
	return r.filter(func(t models.Transaction) bool {
		return t.TickerID == tickerID && !t.Date.After(until)
	}, false), nil
}

func (r *transactionRepo) Create(_ context.Context, t *models.Transaction, _ pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	if _, ok := r.s.tickers[t.TickerID]; !ok {
		return errors.New("transactions.ticker_id references a missing ticker")
	}
	t.NumShares = atShareScale(t.NumShares)
	if t.NumShares <= 0 {
		return errors.New("num_shares must be positive")
	}
	t.TransactionNum = r.s.nextTxNum
	r.s.nextTxNum++
	r.s.transactions = append(r.s.transactions, *t)
	return nil
}

type tickerDataRepo struct{ s *Store }

func (r *tickerDataRepo) GetByTickerID(_ context.Context, tickerID string) ([]models.TickerDataPoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var points []models.TickerDataPoint
	for _, p := range r.s.tickerData[tickerID] {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (r *tickerDataRepo) GetLatest(ctx context.Context, tickerID string) (*models.TickerDataPoint, error) {
	points, _ := r.GetByTickerID(ctx, tickerID)
	if len(points) == 0 {
		return nil, nil
	}
	latest := points[len(points)-1]
	return &latest, nil
}

func (r *tickerDataRepo) GetClose(_ context.Context, tickerID string, date time.Time, _ pgx.Tx) (float64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.tickerData[tickerID][date.UTC()]
	if !ok {
		return 0, false, nil
	}
	return p.Close, true, nil
}

func (r *tickerDataRepo) Upsert(_ context.Context, d *models.TickerDataPoint, _ pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	days, ok := r.s.tickerData[d.TickerID]
	if !ok {
		days = map[time.Time]models.TickerDataPoint{}
		r.s.tickerData[d.TickerID] = days
	}
	point := *d
	point.Date = d.Date.UTC()
	days[point.Date] = point
	return nil
}

func (r *tickerDataRepo) DeleteByTickerID(_ context.Context, tickerID string, _ pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	delete(r.s.tickerData, tickerID)
	return nil
}
