package application

import (
	"sync"
	"time"

	"tickerboard/internal/domain"
)

// SnapshotStore keeps a bounded FIFO history of snapshots per source.
type SnapshotStore struct {
	mu      sync.RWMutex
	depth   int
	loc     *time.Location
	clock   Clock
	history map[domain.SourceID][]domain.Snapshot
}

func NewSnapshotStore(depth int, loc *time.Location, clock Clock) *SnapshotStore {
	if depth <= 0 {
		depth = domain.DefaultHistoryDepth
	}
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = realClock{}
	}
	return &SnapshotStore{
		depth:   depth,
		loc:     loc,
		clock:   clock,
		history: make(map[domain.SourceID][]domain.Snapshot),
	}
}

// Record derives a snapshot from res, labelled with the current local time,
// and appends it, dropping the oldest entry once the depth is exceeded.
func (s *SnapshotStore) Record(src domain.SourceID, res domain.FetchResult) domain.Snapshot {
	snap := domain.NewSnapshot(res, s.clock.Now().In(s.loc))

	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.history[src], snap)
	if len(h) > s.depth {
		// copy so slices handed out by History never see the shift
		h = append([]domain.Snapshot(nil), h[len(h)-s.depth:]...)
	}
	s.history[src] = h
	return snap
}

// History returns the snapshots of src, oldest first.
func (s *SnapshotStore) History(src domain.SourceID) []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history[src]
	out := make([]domain.Snapshot, len(h))
	copy(out, h)
	return out
}

func (s *SnapshotStore) Len(src domain.SourceID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history[src])
}

