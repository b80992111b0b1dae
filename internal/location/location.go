// Package location acquires a single device location fix with a bounded wait.
//
// A fix is a best-effort signal. Timeouts, permission denials and locator
// errors all come back as an absent geo.Fix so the calling workflow carries on
// with manual-only resolution. Fixes are never cached between calls.
package location

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fieldline/ops-backend/internal/geo"
)

// DefaultTimeout bounds how long Acquire waits for a fix.
const DefaultTimeout = 10 * time.Second

var (
	ErrDenied      = errors.New("location permission denied")
	ErrUnavailable = errors.New("location unavailable")
)

// Locator produces one location sample.
type Locator interface {
	Locate(ctx context.Context) (geo.Point, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (geo.Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (geo.Point, error) {
	return f(ctx)
}

// Acquire asks l for a fix and waits at most timeout (DefaultTimeout when
// timeout <= 0). A result that arrives after the deadline is discarded.
func Acquire(ctx context.Context, l Locator, timeout time.Duration) geo.Fix {
	if l == nil {
		return geo.None()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type sample struct {
		point geo.Point
		err   error
	}
	// Buffered so a late locator can always deliver and exit.
	results := make(chan sample, 1)
	go func() {
		p, err := l.Locate(ctx)
		results <- sample{point: p, err: err}
	}()

	select {
	case s := <-results:
		if s.err != nil {
			log.Printf("[location] no fix: %v", s.err)
			return geo.None()
		}
		return geo.Some(s.point)
	case <-ctx.Done():
		log.Printf("[location] no fix: %v", ctx.Err())
		return geo.None()
	}
}

// Static reports a fix that was sampled elsewhere, such as coordinates a device
// attached to an upload. A nil point behaves like a denied permission.
func Static(p *geo.Point) Locator {
	return LocatorFunc(func(context.Context) (geo.Point, error) {
		if p == nil {
			return geo.Point{}, ErrDenied
		}
		return *p, nil
	})
}
