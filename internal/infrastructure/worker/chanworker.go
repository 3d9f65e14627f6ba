package worker

import (
	"context"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/logx"

	"go.uber.org/zap"
)

var _ application.Worker = (*ChanWorker)(nil)

// RefreshMsg is one queued manual refresh.
type RefreshMsg struct {
	Source    domain.SourceID
	RequestID string
	TraceID   string
}

// ChanWorker drains manual refresh requests one at a time. Manual refreshes
// honor the freshness cache and never take snapshots; a refresh is not timed
// out and runs until it succeeds or its retries are exhausted.
type ChanWorker struct {
	svc  Refresher
	jobs chan RefreshMsg
}

func NewChanWorker(svc Refresher, size int) *ChanWorker {
	if size <= 0 {
		size = 1
	}
	return &ChanWorker{svc: svc, jobs: make(chan RefreshMsg, size)}
}

// Enqueue queues m without blocking; it returns false when the queue is full.
func (w *ChanWorker) Enqueue(m RefreshMsg) bool {
	select {
	case w.jobs <- m:
		return true
	default:
		return false
	}
}

func (w *ChanWorker) Start(ctx context.Context) {
	log := logx.L().With(zap.String("worker", "chan"))
	for {
		select {
		case <-ctx.Done():
			log.Info("chan_worker.stop")
			return
		case m := <-w.jobs:
			w.processOne(ctx, m)
		}
	}
}

func (w *ChanWorker) processOne(ctx context.Context, m RefreshMsg) {
	ctx = logx.WithRequest(ctx, m.RequestID, m.TraceID)
	log := logx.WithFields(ctx).With(zap.String("worker", "chan"), zap.String("source", string(m.Source)))
	defer func() {
		if r := recover(); r != nil {
			log.Warn("chan_worker.panic", zap.Any("r", r))
		}
	}()
	res, err := w.svc.Refresh(ctx, m.Source, false)
	if err != nil {
		log.Warn("chan_worker.refresh_failed", zap.Error(err))
		return
	}
	log.Info("chan_worker.refreshed", zap.Time("fetched_at", res.FetchedAt), zap.Int("records", len(res.Records)))
}
