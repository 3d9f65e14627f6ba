package worker

import (
	"context"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"

	"golang.org/x/time/rate"
)

// UpstreamGate lets one upstream fetch run at a time, across the scheduler
// and the manual worker, and keeps at least interval between the end of one
// fetch and the start of the next. Cache hits never reach the gate.
type UpstreamGate struct {
	sem      chan struct{}
	interval time.Duration
	// lim is replaced after every fetch; guarded by sem.
	lim *rate.Limiter
}

// NewUpstreamGate returns a gate; a zero interval only serializes.
func NewUpstreamGate(interval time.Duration) *UpstreamGate {
	return &UpstreamGate{sem: make(chan struct{}, 1), interval: interval}
}

// Do runs fn once the gate is free and the spacing since the previous fetch
// has elapsed. It gives up with ctx's error while waiting.
func (g *UpstreamGate) Do(ctx context.Context, fn func(context.Context) error) error {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.sem }()

	if g.lim != nil {
		if err := g.lim.Wait(ctx); err != nil {
			return err
		}
	}
	err := fn(ctx)
	if g.interval > 0 {
		// burst 1, drained at the end of the fetch: the next token is one
		// interval away from now
		g.lim = rate.NewLimiter(rate.Every(g.interval), 1)
		g.lim.Allow()
	}
	return err
}

// Wrap routes every adapter's Fetch through the gate.
func (g *UpstreamGate) Wrap(adapters []application.SourceAdapter) []application.SourceAdapter {
	out := make([]application.SourceAdapter, len(adapters))
	for i, a := range adapters {
		out[i] = gatedAdapter{SourceAdapter: a, gate: g}
	}
	return out
}

type gatedAdapter struct {
	application.SourceAdapter
	gate *UpstreamGate
}

func (a gatedAdapter) Fetch(ctx context.Context) (domain.FetchResult, error) {
	var res domain.FetchResult
	err := a.gate.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = a.SourceAdapter.Fetch(ctx)
		return err
	})
	return res, err
}
