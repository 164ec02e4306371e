package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetMissOnEmptyStore(t *testing.T) {
	s := New()
	if _, _, ok := s.Get("op", time.Second); ok {
		t.Fatal("expected miss on empty store")
	}
}

func TestGetOrComputeStoresAndReuses(t *testing.T) {
	s := New()
	now := time.Unix(1700000000, 0)
	s.SetNowFunc(func() time.Time { return now })

	calls := 0
	compute := func() (any, error) {
		calls++
		return "value", nil
	}

	v, at, cached, err := s.GetOrCompute("op", 3*time.Second, compute)
	if err != nil {
		t.Fatal(err)
	}
	if v != "value" || cached {
		t.Errorf("first call: value=%v cached=%v", v, cached)
	}
	if !at.Equal(now) {
		t.Errorf("computedAt = %v, want %v", at, now)
	}

	now = now.Add(2 * time.Second)
	v, at2, cached, err := s.GetOrCompute("op", 3*time.Second, compute)
	if err != nil {
		t.Fatal(err)
	}
	if !cached || v != "value" {
		t.Errorf("second call within TTL: value=%v cached=%v", v, cached)
	}
	if !at2.Equal(at) {
		t.Errorf("cached computedAt changed: %v vs %v", at2, at)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	now = now.Add(2 * time.Second)
	_, at3, _, err := s.GetOrCompute("op", 3*time.Second, compute)
	if err != nil {
		t.Fatal(err)
	}
	if !at3.After(at) {
		t.Errorf("post-expiry computedAt %v not after %v", at3, at)
	}
	if calls != 2 {
		t.Errorf("compute ran %d times after expiry, want 2", calls)
	}
}

func TestGetOrComputeSeparateOperations(t *testing.T) {
	s := New()

	if _, _, _, err := s.GetOrCompute("a", time.Minute, func() (any, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	v, _, cached, err := s.GetOrCompute("b", time.Minute, func() (any, error) { return 2, nil })
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("operation b must not hit operation a's entry")
	}
	if v != 2 {
		t.Errorf("value = %v, want 2", v)
	}
}

func TestGetOrComputeError(t *testing.T) {
	s := New()
	wantErr := errors.New("compute failed")

	_, _, _, err := s.GetOrCompute("op", time.Minute, func() (any, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	// A failed computation must not poison the entry.
	v, _, _, err := s.GetOrCompute("op", time.Minute, func() (any, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("after failure: value=%v err=%v", v, err)
	}
}

func TestGetOrComputeCoalescesConcurrentMisses(t *testing.T) {
	s := New()
	var calls atomic.Int64

	compute := func() (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "shared", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, _, err := s.GetOrCompute("op", time.Minute, compute)
			if err != nil || v != "shared" {
				t.Errorf("value=%v err=%v", v, err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("compute ran %d times under concurrent misses, want 1", got)
	}
}

func TestReset(t *testing.T) {
	s := New()
	if _, _, _, err := s.GetOrCompute("op", time.Minute, func() (any, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if _, _, ok := s.Get("op", time.Minute); ok {
		t.Error("expected miss after Reset")
	}
}
