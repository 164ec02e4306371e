// Package collect provides narrow, swappable readers for single host metrics.
// Every reader converts its failures into an explicit Unavailable reading at
// the lowest layer; callers never see an error from a Fetch.
package collect

import (
	"context"
	"fmt"
	"time"
)

// Reading is the result of one metric fetch: either a numeric value or an
// explicit unavailable marker with the reason. The zero value is unavailable
// with no reason.
type Reading struct {
	Value     float64
	Available bool
	Reason    string
}

// Value returns an available reading.
func Value(v float64) Reading {
	return Reading{Value: v, Available: true}
}

// Unavailable returns an unavailable reading with a human-readable reason.
func Unavailable(reason string) Reading {
	return Reading{Reason: reason}
}

// UnavailableErr folds a collector error into an unavailable reading.
func UnavailableErr(err error) Reading {
	if err == nil {
		return Unavailable("no data")
	}
	return Unavailable(err.Error())
}

func (r Reading) String() string {
	if !r.Available {
		if r.Reason == "" {
			return "unavailable"
		}
		return "unavailable: " + r.Reason
	}
	return fmt.Sprintf("%.1f", r.Value)
}

// Collector reads one host metric. Implementations may be slow (subprocess or
// OS query) and must honor ctx cancellation. They never return an error:
// failure is an unavailable Reading.
type Collector interface {
	Fetch(ctx context.Context) Reading
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func(ctx context.Context) Reading

func (f CollectorFunc) Fetch(ctx context.Context) Reading {
	return f(ctx)
}

// WithTimeout bounds a collector so a hung OS query surfaces as unavailable
// instead of stalling the whole fan-out.
func WithTimeout(c Collector, d time.Duration) Collector {
	return CollectorFunc(func(ctx context.Context) Reading {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan Reading, 1)
		go func() {
			done <- c.Fetch(ctx)
		}()

		select {
		case r := <-done:
			return r
		case <-ctx.Done():
			return Unavailable("timed out")
		}
	})
}
