package application

import (
	"fmt"
	"sync"
	"time"

	"tickerboard/internal/domain"
)

type sourceState struct {
	adapter SourceAdapter
	cache   *Freshness[domain.FetchResult]

	// refreshMu serializes refreshes of this source.
	refreshMu sync.Mutex
	// viewMu makes a cache write and its snapshot append visible together.
	viewMu sync.RWMutex
}

// PipelineState owns the freshness cache and snapshot history of every
// configured source. It is built once at startup.
type PipelineState struct {
	order     []domain.SourceID
	sources   map[domain.SourceID]*sourceState
	snapshots *SnapshotStore
}

// NewPipelineState keeps adapters in the given order, which becomes the
// refresh order.
func NewPipelineState(adapters []SourceAdapter, ttl time.Duration, snapshots *SnapshotStore, clock Clock) (*PipelineState, error) {
	if len(adapters) == 0 {
		return nil, fmt.Errorf("pipeline: no sources configured")
	}
	if snapshots == nil {
		snapshots = NewSnapshotStore(domain.DefaultHistoryDepth, nil, clock)
	}
	p := &PipelineState{
		sources:   make(map[domain.SourceID]*sourceState, len(adapters)),
		snapshots: snapshots,
	}
	for _, a := range adapters {
		id := a.ID()
		if _, dup := p.sources[id]; dup {
			return nil, fmt.Errorf("pipeline: duplicate source %q", id)
		}
		p.order = append(p.order, id)
		p.sources[id] = &sourceState{
			adapter: a,
			cache:   NewFreshness[domain.FetchResult](ttl, clock),
		}
	}
	return p, nil
}

func (p *PipelineState) Sources() []domain.SourceID {
	out := make([]domain.SourceID, len(p.order))
	copy(out, p.order)
	return out
}

func (p *PipelineState) source(id domain.SourceID) (*sourceState, error) {
	st, ok := p.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, id)
	}
	return st, nil
}
