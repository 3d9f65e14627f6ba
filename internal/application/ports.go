package application

import (
	"context"
	"time"

	"tickerboard/internal/domain"
)

// SourceAdapter fetches and normalizes one exchange's tickers.
type SourceAdapter interface {
	ID() domain.SourceID
	Fetch(ctx context.Context) (domain.FetchResult, error)
}

// RefreshObserver receives refresh outcomes, e.g. for metrics.
type RefreshObserver interface {
	ObserveRefresh(src domain.SourceID, outcome string, took time.Duration)
	ObserveState(src domain.SourceID, records, snapshots int)
}

const (
	OutcomeFetched = "fetched"
	OutcomeCached  = "cached"
	OutcomeFailed  = "failed"
)

type noopObserver struct{}

func (noopObserver) ObserveRefresh(domain.SourceID, string, time.Duration) {}
func (noopObserver) ObserveState(domain.SourceID, int, int)                {}
