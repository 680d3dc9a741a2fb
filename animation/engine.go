// Package animation runs tick driven button animations. A single
// engine owns one shared ticker that serves every active animation:
// each tick recomputes the current color of every live animation,
// drops the ones that did not change since the last dispatch, and
// sends the rest to the style transport as one batched call. The
// ticker only runs while at least one animation is registered.
package animation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/flokli/deckctl/button"
)

// Frame rate bounds for the shared ticker.
const (
	MinFrameRate = 1
	MaxFrameRate = 60
)

// dispatchTimeout bounds a single batched transport call so a stalled
// network write cannot accumulate goroutines behind a fast ticker.
const dispatchTimeout = 2 * time.Second

// ID identifies a registered animation. IDs are assigned
// monotonically and never reused by the same engine.
type ID uint64

// StyleUpdate pairs a button address with the partial style to apply
// to it.
type StyleUpdate struct {
	Address button.Address
	Style   button.Style
}

// StyleTransport delivers batched style updates to the controller.
// Calls are best effort: the engine reports failures through its
// error handler and keeps ticking. Implementations must be safe for
// concurrent use.
type StyleTransport interface {
	ApplyStyles(ctx context.Context, updates []StyleUpdate) error
}

// animation is one registry entry. It is owned exclusively by the
// engine and only ever touched under the engine mutex.
type animation struct {
	id       ID
	addr     button.Address
	eff      effect
	duration time.Duration
	loop     bool
	// startedAt comes from the engine clock. time.Now carries a
	// monotonic reading, so elapsed time is immune to wall clock
	// adjustments.
	startedAt time.Time
	// lastSent is the last background color actually dispatched,
	// "" until the first frame goes out.
	lastSent string
	// stopPoll cancels the predicate poll loop, nil when the
	// animation has no predicate.
	stopPoll context.CancelFunc
}

// Engine schedules and dispatches button animations.
type Engine struct {
	transport StyleTransport
	interval  time.Duration
	clock     clock
	wg        sync.WaitGroup

	mu      sync.Mutex
	nextID  ID
	anims   map[ID]*animation
	order   []ID
	done    chan struct{}
	onError func(error)
}

// New creates an engine dispatching through the given transport at the
// given frame rate. Rates outside [MinFrameRate, MaxFrameRate] are
// clamped.
func New(transport StyleTransport, fps int) *Engine {
	if fps < MinFrameRate {
		fps = MinFrameRate
	}
	if fps > MaxFrameRate {
		fps = MaxFrameRate
	}
	return &Engine{
		transport: transport,
		interval:  time.Duration(math.Round(1000/float64(fps))) * time.Millisecond,
		clock:     systemClock{},
		anims:     make(map[ID]*animation),
	}
}

// SetErrorHandler installs a callback invoked whenever a frame
// dispatch or a predicate poll fails. Without a handler, failures are
// logged. Animations keep running either way.
func (e *Engine) SetErrorHandler(fn func(error)) {
	e.mu.Lock()
	e.onError = fn
	e.mu.Unlock()
}

// Stop removes one animation. Stopping an unknown or already finished
// id is a no-op. The ticker shuts down when the last animation goes.
func (e *Engine) Stop(id ID) {
	e.mu.Lock()
	e.removeLocked(id)
	e.mu.Unlock()
}

// StopAll removes every animation and stops the ticker.
func (e *Engine) StopAll() {
	e.mu.Lock()
	for _, a := range e.anims {
		if a.stopPoll != nil {
			a.stopPoll()
		}
	}
	e.anims = make(map[ID]*animation)
	e.order = e.order[:0]
	e.stopTickerLocked()
	e.mu.Unlock()
}

// Active returns the number of registered animations.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.anims)
}

// Close stops all animations and waits for in-flight frame dispatches
// to finish.
func (e *Engine) Close() {
	e.StopAll()
	e.wg.Wait()
}

// register validates the duration, stores the entry and makes sure the
// ticker runs. The first frame goes out on the next tick, never
// synchronously.
func (e *Engine) register(addr button.Address, eff effect, d time.Duration, loop bool, while Predicate) (ID, error) {
	if d <= 0 {
		return 0, fmt.Errorf("animation duration must be positive, got %s", d)
	}

	e.mu.Lock()
	e.nextID++
	a := &animation{
		id:        e.nextID,
		addr:      addr,
		eff:       eff,
		duration:  d,
		loop:      loop,
		startedAt: e.clock.Now(),
	}

	var pollCtx context.Context
	if while != nil {
		pollCtx, a.stopPoll = context.WithCancel(context.Background())
	}

	e.anims[a.id] = a
	e.order = append(e.order, a.id)
	e.startTickerLocked()
	e.mu.Unlock()

	if while != nil {
		go e.pollPredicate(pollCtx, a.id, while, pollInterval(d))
	}

	log.WithFields(log.Fields{
		"id":       a.id,
		"button":   addr.String(),
		"kind":     eff.kind(),
		"duration": d,
		"loop":     loop,
	}).Debug("animation registered")

	return a.id, nil
}

// removeLocked deletes one entry, cancels its predicate poll loop and
// stops the ticker once the registry is empty. Callers hold e.mu.
func (e *Engine) removeLocked(id ID) {
	a, ok := e.anims[id]
	if !ok {
		return
	}
	delete(e.anims, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if a.stopPoll != nil {
		a.stopPoll()
	}
	if len(e.anims) == 0 {
		e.stopTickerLocked()
	}
}

func (e *Engine) startTickerLocked() {
	if e.done != nil {
		return
	}
	e.done = make(chan struct{})
	go e.run(time.NewTicker(e.interval), e.done)
}

func (e *Engine) stopTickerLocked() {
	if e.done == nil {
		return
	}
	close(e.done)
	e.done = nil
}

func (e *Engine) run(ticker *time.Ticker, done chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			e.step(e.clock.Now())
		}
	}
}

// step advances every animation to now, collects the changed colors in
// registration order and dispatches them as one batch. Non-looping
// animations past their duration contribute a final frame and are
// retired afterwards.
func (e *Engine) step(now time.Time) {
	e.mu.Lock()
	var batch []StyleUpdate
	var retired []ID
	for _, id := range e.order {
		a := e.anims[id]
		elapsed := now.Sub(a.startedAt)
		next := a.eff.colorAt(progress(elapsed, a.duration, a.loop))
		if next != a.lastSent {
			batch = append(batch, StyleUpdate{
				Address: a.addr,
				Style:   button.Style{}.WithBackground(next),
			})
			a.lastSent = next
		}
		if !a.loop && elapsed >= a.duration {
			retired = append(retired, id)
		}
	}
	for _, id := range retired {
		log.WithField("id", id).Debug("animation finished")
		e.removeLocked(id)
	}
	e.mu.Unlock()

	if len(batch) > 0 {
		e.dispatch(batch)
	}
}

// dispatch sends one batch without blocking the ticker. Failures go to
// the error handler, never to the scheduler.
func (e *Engine) dispatch(batch []StyleUpdate) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.reportError(fmt.Errorf("style transport panicked: %v", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := e.transport.ApplyStyles(ctx, batch); err != nil {
			e.reportError(fmt.Errorf("unable to apply animation frame: %w", err))
		}
	}()
}

func (e *Engine) reportError(err error) {
	e.mu.Lock()
	fn := e.onError
	e.mu.Unlock()
	if fn != nil {
		fn(err)
		return
	}
	log.WithError(err).Warn("animation error")
}

// progress maps elapsed time to a position in [0, 1]. Looping
// animations wrap modulo the duration, finite ones saturate at 1.
func progress(elapsed, duration time.Duration, loop bool) float64 {
	if elapsed <= 0 {
		return 0
	}
	if loop {
		return float64(elapsed%duration) / float64(duration)
	}
	if elapsed >= duration {
		return 1
	}
	return float64(elapsed) / float64(duration)
}
