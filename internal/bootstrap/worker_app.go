package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/worker"
)

var ErrAllSourcesFailed = errors.New("every source failed")

// OneShot performs a single snapshotting pass for operational debugging.
type OneShot struct {
	svc   *application.TickerService
	sched *worker.Scheduler
}

// SourceResult is one source's outcome of a one-shot pass.
type SourceResult struct {
	Source  domain.SourceID `json:"source"`
	Error   string          `json:"error,omitempty"`
	Total   int             `json:"total,omitempty"`
	Records []domain.Ticker `json:"records,omitempty"`
}

// Run refreshes every source once. It fails only when no source succeeded.
func (o *OneShot) Run(ctx context.Context) ([]SourceResult, error) {
	rep := o.sched.RunPass(ctx, "oneshot")
	out := make([]SourceResult, 0, len(o.svc.Sources()))
	for _, id := range o.svc.Sources() {
		r := SourceResult{Source: id}
		if err, failed := rep.Failed[id]; failed {
			r.Error = err.Error()
		} else if v, err := o.svc.Latest(ctx, id); err == nil {
			r.Total = v.Result.TotalConsidered
			r.Records = v.Result.Records
		}
		out = append(out, r)
	}
	if len(rep.Refreshed) == 0 {
		return out, fmt.Errorf("%w (%d sources)", ErrAllSourcesFailed, len(rep.Failed))
	}
	return out, nil
}
