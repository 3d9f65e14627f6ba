package application

import (
	"context"
	"fmt"
	"time"

	"tickerboard/internal/domain"

	"go.uber.org/zap"
)

const maxIdempotencyKey = 128

type TickerService struct {
	state     *PipelineState
	idem      IdempotencyStore
	observer  RefreshObserver
	clock     Clock
	log       *zap.Logger
	startedAt time.Time
}

type Option func(*TickerService)

func WithClock(c Clock) Option                  { return func(s *TickerService) { s.clock = c } }
func WithLogger(l *zap.Logger) Option           { return func(s *TickerService) { s.log = l } }
func WithIdempotency(i IdempotencyStore) Option { return func(s *TickerService) { s.idem = i } }
func WithObserver(o RefreshObserver) Option     { return func(s *TickerService) { s.observer = o } }

func NewTickerService(state *PipelineState, opts ...Option) *TickerService {
	s := &TickerService{state: state}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	s.startedAt = s.clock.Now()
	return s
}

// SourceView is what the query surface serves for one source.
type SourceView struct {
	Source    domain.SourceID
	Result    domain.FetchResult
	Snapshots []domain.Snapshot
}

type SourceHealth struct {
	Source        domain.SourceID
	HasData       bool
	SnapshotCount int
	LastUpdate    time.Time
}

func (s *TickerService) Sources() []domain.SourceID { return s.state.Sources() }

func (s *TickerService) StartedAt() time.Time { return s.startedAt }

// Refresh brings the cached result of id up to date. The upstream is only
// called when the cached result is outside its validity window. With
// snapshot set, the current result is also appended to the source's
// history; only scheduled passes do that.
//
// When the fetch fails the previous result (if any) is returned together with
// the error so callers can keep serving it.
func (s *TickerService) Refresh(ctx context.Context, id domain.SourceID, snapshot bool) (domain.FetchResult, error) {
	st, err := s.state.source(id)
	if err != nil {
		return domain.FetchResult{}, err
	}
	log := s.log.With(zap.String("source", string(id)))

	st.refreshMu.Lock()
	defer st.refreshMu.Unlock()

	start := s.clock.Now()
	prev, _, hasPrev := st.cache.Get()
	if st.cache.IsValid() {
		if snapshot {
			s.commit(id, st, prev, false, true)
		}
		s.observer.ObserveRefresh(id, OutcomeCached, s.clock.Now().Sub(start))
		log.Debug("refresh.cached")
		return prev, nil
	}

	res, err := st.adapter.Fetch(ctx)
	took := s.clock.Now().Sub(start)
	if err != nil {
		s.observer.ObserveRefresh(id, OutcomeFailed, took)
		if hasPrev {
			log.Warn("refresh.failed_serving_stale",
				zap.Error(err),
				zap.Time("stale_since", prev.FetchedAt),
			)
			return prev, err
		}
		log.Warn("refresh.failed", zap.Error(err))
		return domain.FetchResult{}, err
	}

	s.commit(id, st, res, true, snapshot)
	s.observer.ObserveRefresh(id, OutcomeFetched, took)
	log.Info("refresh.done",
		zap.Int("records", len(res.Records)),
		zap.Int("total", res.TotalConsidered),
		zap.Bool("snapshot", snapshot),
		zap.Duration("took", took),
	)
	return res, nil
}

func (s *TickerService) commit(id domain.SourceID, st *sourceState, res domain.FetchResult, store, snapshot bool) {
	st.viewMu.Lock()
	if store {
		st.cache.Set(res)
	}
	if snapshot {
		s.state.snapshots.Record(id, res)
	}
	n := s.state.snapshots.Len(id)
	st.viewMu.Unlock()
	s.observer.ObserveState(id, len(res.Records), n)
}

// Latest returns the last good result of id with its snapshot history. It
// never contacts the upstream.
func (s *TickerService) Latest(_ context.Context, id domain.SourceID) (SourceView, error) {
	st, err := s.state.source(id)
	if err != nil {
		return SourceView{}, err
	}
	st.viewMu.RLock()
	defer st.viewMu.RUnlock()
	res, _, ok := st.cache.Get()
	if !ok {
		return SourceView{}, fmt.Errorf("%w: %s", domain.ErrNoDataAvailable, id)
	}
	return SourceView{
		Source:    id,
		Result:    res,
		Snapshots: s.state.snapshots.History(id),
	}, nil
}

// ReserveRefresh validates a manual refresh request. A non-empty key that was
// already used yields ErrConflict.
func (s *TickerService) ReserveRefresh(ctx context.Context, id domain.SourceID, idemKey *string) error {
	if _, err := s.state.source(id); err != nil {
		return err
	}
	if idemKey == nil || *idemKey == "" {
		return nil
	}
	if len(*idemKey) > maxIdempotencyKey {
		return fmt.Errorf("%w: idempotency key longer than %d bytes", ErrBadRequest, maxIdempotencyKey)
	}
	ok, err := s.idem.TryReserve(ctx, string(id)+":"+*idemKey)
	if err != nil {
		return fmt.Errorf("reserve refresh: %w", err)
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *TickerService) Health(_ context.Context) []SourceHealth {
	out := make([]SourceHealth, 0, len(s.state.order))
	for _, id := range s.state.order {
		st := s.state.sources[id]
		st.viewMu.RLock()
		res, _, ok := st.cache.Get()
		h := SourceHealth{
			Source:        id,
			HasData:       ok,
			SnapshotCount: s.state.snapshots.Len(id),
		}
		st.viewMu.RUnlock()
		if ok {
			h.LastUpdate = res.FetchedAt
		}
		out = append(out, h)
	}
	return out
}
