package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var _ application.Worker = (*Scheduler)(nil)

// Refresher is the part of the ticker service the workers drive.
type Refresher interface {
	Sources() []domain.SourceID
	Refresh(ctx context.Context, id domain.SourceID, snapshot bool) (domain.FetchResult, error)
}

// Timer is the scheduler's view of time.
type Timer interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realTimer struct{}

func (realTimer) Now() time.Time                         { return time.Now() }
func (realTimer) After(d time.Duration) <-chan time.Time { return time.After(d) }

type State int32

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	if s == StateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// PassReport summarizes one refresh pass over all sources.
type PassReport struct {
	Reason    string
	StartedAt time.Time
	Took      time.Duration
	Refreshed []domain.SourceID
	Failed    map[domain.SourceID]error
}

// Scheduler runs a snapshotting refresh pass at startup and then at every
// schedule boundary (the top of each hour by default). Sources are refreshed
// one at a time in configured order, each awaited before the next; a failing
// source is logged and the pass moves on. Spacing between upstream calls is
// left to the UpstreamGate around the adapters.
type Scheduler struct {
	svc      Refresher
	schedule cron.Schedule
	loc      *time.Location
	timer    Timer
	log      *zap.Logger

	passMu sync.Mutex
	state  atomic.Int32
	ready  atomic.Bool
	last   atomic.Pointer[PassReport]
}

type SchedulerOption func(*Scheduler)

func WithTimer(t Timer) SchedulerOption             { return func(s *Scheduler) { s.timer = t } }
func WithLocation(l *time.Location) SchedulerOption { return func(s *Scheduler) { s.loc = l } }
func WithLogger(l *zap.Logger) SchedulerOption      { return func(s *Scheduler) { s.log = l } }

// NewScheduler parses spec as a standard five-field cron expression.
func NewScheduler(svc Refresher, spec string, opts ...SchedulerOption) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	s := &Scheduler{svc: svc, schedule: sched}
	for _, opt := range opts {
		opt(s)
	}
	if s.timer == nil {
		s.timer = realTimer{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

// Ready reports whether the startup pass has completed.
func (s *Scheduler) Ready() bool { return s.ready.Load() }

func (s *Scheduler) State() State { return State(s.state.Load()) }

// LastPass returns the most recent pass report, or nil before the first.
func (s *Scheduler) LastPass() *PassReport { return s.last.Load() }

// Next returns the first boundary strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

func (s *Scheduler) Start(ctx context.Context) {
	log := s.log.With(zap.String("worker", "scheduler"))
	log.Info("scheduler.start", zap.Strings("sources", sourceNames(s.svc.Sources())))

	s.RunPass(ctx, "startup")
	s.ready.Store(true)

	for {
		now := s.timer.Now()
		next := s.Next(now)
		log.Debug("scheduler.sleep", zap.Time("next", next))
		select {
		case <-ctx.Done():
			log.Info("scheduler.stop")
			return
		case <-s.timer.After(next.Sub(now)):
			s.RunPass(ctx, "scheduled")
		}
	}
}

// RunPass refreshes every source in order and appends a snapshot for each one
// that has data. Passes never overlap.
func (s *Scheduler) RunPass(ctx context.Context, reason string) PassReport {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	s.state.Store(int32(StateRefreshing))
	defer s.state.Store(int32(StateIdle))

	rep := PassReport{Reason: reason, StartedAt: s.timer.Now(), Failed: map[domain.SourceID]error{}}
	for _, id := range s.svc.Sources() {
		if err := ctx.Err(); err != nil {
			rep.Failed[id] = err
			break
		}
		if _, err := s.svc.Refresh(ctx, id, true); err != nil {
			rep.Failed[id] = err
			s.log.Warn("scheduler.source_failed",
				zap.String("reason", reason),
				zap.String("source", string(id)),
				zap.Bool("upstream", domain.IsUpstream(err)),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		rep.Refreshed = append(rep.Refreshed, id)
	}
	rep.Took = s.timer.Now().Sub(rep.StartedAt)
	s.last.Store(&rep)
	s.log.Info("scheduler.pass_done",
		zap.String("reason", reason),
		zap.Int("refreshed", len(rep.Refreshed)),
		zap.Int("failed", len(rep.Failed)),
		zap.Duration("took", rep.Took),
	)
	return rep
}

func sourceNames(ids []domain.SourceID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
