package httpserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/worker"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubAdapter struct {
	id  domain.SourceID
	out []domain.Ticker
}

func (a stubAdapter) ID() domain.SourceID { return a.id }

func (a stubAdapter) Fetch(context.Context) (domain.FetchResult, error) {
	return domain.RankByVolume(a.out, domain.DefaultTopN, t0), nil
}

type fakeQueue struct {
	mu   sync.Mutex
	msgs []worker.RefreshMsg
	full bool
}

func (q *fakeQueue) Enqueue(m worker.RefreshMsg) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.msgs = append(q.msgs, m)
	return true
}

type fakeSched struct {
	ready bool
	state worker.State
}

func (s *fakeSched) Ready() bool         { return s.ready }
func (s *fakeSched) State() worker.State { return s.state }

type memIdem struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memIdem) TryReserve(_ context.Context, k string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[k] {
		return false, nil
	}
	m.seen[k] = true
	return true, nil
}

type fixture struct {
	svc   *application.TickerService
	srv   *Server
	queue *fakeQueue
	sched *fakeSched
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := fixedClock{now: t0}
	adapters := []application.SourceAdapter{
		stubAdapter{id: domain.SourceBinance, out: []domain.Ticker{
			{Symbol: "BTCUSDT", LastPrice: 65000, PriceChangePercent: 1.5, QuoteVolume: 900},
			{Symbol: "ETHUSDT", LastPrice: 3000, PriceChangePercent: -0.5, QuoteVolume: 500},
			{Symbol: "SOLUSDT", DisplayName: "Solana", LastPrice: 150, QuoteVolume: 100},
		}},
		stubAdapter{id: domain.SourceOKX},
	}
	store := application.NewSnapshotStore(domain.DefaultHistoryDepth, time.UTC, clock)
	state, err := application.NewPipelineState(adapters, time.Minute, store, clock)
	require.NoError(t, err)
	svc := application.NewTickerService(state, application.WithClock(clock), application.WithIdempotency(&memIdem{}))

	f := &fixture{svc: svc, queue: &fakeQueue{}, sched: &fakeSched{}}
	f.srv = NewServer(svc, f.queue, f.sched)
	f.srv.now = func() time.Time { return t0.Add(90 * time.Second) }
	return f
}
