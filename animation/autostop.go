package animation

import (
	"context"
	"fmt"
	"time"
)

// Predicate reports whether an animation should keep running. It is
// polled from its own goroutine, independent of the ticker, and may do
// blocking work such as querying the controller. The context expires
// after one poll interval.
type Predicate func(ctx context.Context) (bool, error)

// minPollInterval is the floor for predicate polling, short cycles are
// not worth checking more often than this.
const minPollInterval = 200 * time.Millisecond

func pollInterval(d time.Duration) time.Duration {
	if half := d / 2; half > minPollInterval {
		return half
	}
	return minPollInterval
}

// pollPredicate evaluates keep until it reports false, fails or the
// context is canceled. A false result stops the animation. Stopping
// the animation in turn cancels the context, so the loop never
// outlives its registry entry.
func (e *Engine) pollPredicate(ctx context.Context, id ID, keep Predicate, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.evaluate(ctx, keep, interval) {
				e.Stop(id)
				return
			}
		}
	}
}

// evaluate runs one predicate poll. Errors and panics count as a false
// result and are reported through the error handler.
func (e *Engine) evaluate(ctx context.Context, keep Predicate, timeout time.Duration) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.reportError(fmt.Errorf("animation predicate panicked: %v", r))
			ok = false
		}
	}()
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	keepGoing, err := keep(pctx)
	if err != nil {
		e.reportError(fmt.Errorf("animation predicate failed: %w", err))
		return false
	}
	return keepGoing
}
