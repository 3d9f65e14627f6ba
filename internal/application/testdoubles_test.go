package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"tickerboard/internal/domain"
)

var errUpstream = errors.New("upstream down")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeAdapter struct {
	mu    sync.Mutex
	id    domain.SourceID
	out   []domain.Ticker
	err   error
	calls int
	clock Clock
}

func (f *fakeAdapter) ID() domain.SourceID { return f.id }

func (f *fakeAdapter) Fetch(context.Context) (domain.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.FetchResult{}, domain.NewUpstreamError(f.id, "tickers", f.err)
	}
	return domain.RankByVolume(f.out, domain.DefaultTopN, f.clock.Now()), nil
}

func (f *fakeAdapter) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveRefresh(_ domain.SourceID, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

func (r *recordingObserver) ObserveState(domain.SourceID, int, int) {}

func sampleTickers() []domain.Ticker {
	return []domain.Ticker{
		{Symbol: "ETHUSDT", LastPrice: 3000, PriceChangePercent: 1.5, QuoteVolume: 500},
		{Symbol: "BTCUSDT", LastPrice: 60000, PriceChangePercent: -0.4, QuoteVolume: 900},
		{Symbol: "SOLUSDT", LastPrice: 150, PriceChangePercent: 3.1, QuoteVolume: 120},
	}
}

func strPtr(s string) *string { return &s }
