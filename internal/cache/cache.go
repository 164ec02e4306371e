// Package cache provides the process-wide report cache shared by the
// aggregator and the deep probes. One entry per operation, no per-caller or
// per-argument variation.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store holds one cached value per operation identifier. Entries live for the
// process lifetime and are overwritten, never torn down.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group

	// nowFunc is swappable for tests.
	nowFunc func() time.Time
}

type entry struct {
	value      any
	computedAt time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the clock. Test use only.
func (s *Store) SetNowFunc(f func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f == nil {
		f = time.Now
	}
	s.nowFunc = f
}

// Reset drops every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

func (s *Store) now() time.Time {
	s.mu.Lock()
	f := s.nowFunc
	s.mu.Unlock()
	return f()
}

// Get returns the entry for op if it is still within ttl.
func (s *Store) Get(op string, ttl time.Duration) (any, time.Time, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[op]
	if !ok || now.Sub(e.computedAt) >= ttl {
		return nil, time.Time{}, false
	}
	return e.value, e.computedAt, true
}

func (s *Store) set(op string, value any, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[op] = entry{value: value, computedAt: at}
}

type computed struct {
	value      any
	computedAt time.Time
}

// GetOrCompute returns the cached value for op when fresh, otherwise runs
// compute exactly once even under concurrent misses (coalesced via
// singleflight) and stores the result. The returned time is when the value
// was computed; cached true means no fresh computation happened for this
// caller.
func (s *Store) GetOrCompute(op string, ttl time.Duration, compute func() (any, error)) (value any, computedAt time.Time, cached bool, err error) {
	if v, at, ok := s.Get(op, ttl); ok {
		return v, at, true, nil
	}

	res, err, shared := s.group.Do(op, func() (any, error) {
		// A concurrent caller may have refreshed the entry while this one
		// was waiting on the flight lock.
		if v, at, ok := s.Get(op, ttl); ok {
			return computed{value: v, computedAt: at}, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		at := s.now()
		s.set(op, v, at)
		return computed{value: v, computedAt: at}, nil
	})
	if err != nil {
		return nil, time.Time{}, false, err
	}

	c := res.(computed)
	return c.value, c.computedAt, shared, nil
}
