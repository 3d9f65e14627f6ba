package application

import (
	"sync"
	"time"
)

// Freshness is a single-slot cache remembering when its value was stored.
// A value stays readable after it expires; IsValid tells whether it is still
// inside the validity window.
type Freshness[T any] struct {
	mu       sync.RWMutex
	validity time.Duration
	clock    Clock
	value    T
	storedAt time.Time
	present  bool
}

func NewFreshness[T any](validity time.Duration, clock Clock) *Freshness[T] {
	if clock == nil {
		clock = realClock{}
	}
	return &Freshness[T]{validity: validity, clock: clock}
}

func (f *Freshness[T]) Get() (T, time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value, f.storedAt, f.present
}

func (f *Freshness[T]) Set(v T) {
	f.mu.Lock()
	f.value, f.storedAt, f.present = v, f.clock.Now(), true
	f.mu.Unlock()
}

func (f *Freshness[T]) IsValid() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.present && f.clock.Now().Sub(f.storedAt) < f.validity
}
