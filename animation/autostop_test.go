package animation

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flokli/deckctl/button"
)

func TestPollInterval(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     time.Duration
	}{
		{msec(100), msec(200)},
		{msec(400), msec(200)},
		{time.Second, msec(500)},
		{10 * time.Second, 5 * time.Second},
	}
	for _, tc := range tests {
		if got := pollInterval(tc.duration); got != tc.want {
			t.Errorf("pollInterval(%v) = %v, want %v", tc.duration, got, tc.want)
		}
	}
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPredicateFalseStopsAnimation(t *testing.T) {
	e := New(&spyTransport{}, 1)
	t.Cleanup(e.Close)
	addr := button.Address{Page: 1, Row: 0, Column: 0}

	_, err := e.Flash(addr, button.Style{}, FlashOptions{
		Duration: msec(100),
		Loop:     true,
		While: func(ctx context.Context) (bool, error) {
			return false, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, "the predicate to stop the animation", func() bool {
		return e.Active() == 0
	})
	if tickerRunning(e) {
		t.Error("ticker still running after the predicate stop")
	}
}

func TestPredicateErrorStopsAnimation(t *testing.T) {
	e := New(&spyTransport{}, 1)
	t.Cleanup(e.Close)
	var collected errCollector
	e.SetErrorHandler(collected.add)
	addr := button.Address{Page: 1, Row: 0, Column: 0}

	_, err := e.Fade(addr, button.Style{}, FadeOptions{
		To:       "#FFFFFF",
		Duration: msec(100),
		Loop:     true,
		While: func(ctx context.Context) (bool, error) {
			return true, errors.New("variable lookup failed")
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, "the failing predicate to stop the animation", func() bool {
		return e.Active() == 0
	})
	if got := collected.last(); got == nil || !strings.Contains(got.Error(), "variable lookup failed") {
		t.Errorf("handler error = %v, want the predicate error wrapped", got)
	}
}

func TestPredicatePanicStopsAnimation(t *testing.T) {
	e := New(&spyTransport{}, 1)
	t.Cleanup(e.Close)
	var collected errCollector
	e.SetErrorHandler(collected.add)
	addr := button.Address{Page: 1, Row: 0, Column: 0}

	_, err := e.HueRotate(addr, HueRotateOptions{
		Duration: msec(100),
		Loop:     true,
		While: func(ctx context.Context) (bool, error) {
			panic("no such variable")
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, "the panicking predicate to stop the animation", func() bool {
		return e.Active() == 0
	})
	if got := collected.last(); got == nil || !strings.Contains(got.Error(), "no such variable") {
		t.Errorf("handler error = %v, want the panic value", got)
	}
}

func TestStopEndsPolling(t *testing.T) {
	e := New(&spyTransport{}, 1)
	t.Cleanup(e.Close)
	addr := button.Address{Page: 1, Row: 0, Column: 0}

	var polls atomic.Int64
	id, err := e.Flash(addr, button.Style{}, FlashOptions{
		Duration: msec(100),
		Loop:     true,
		While: func(ctx context.Context) (bool, error) {
			polls.Add(1)
			return true, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	e.Stop(id)
	time.Sleep(350 * time.Millisecond)
	if got := polls.Load(); got != 0 {
		t.Errorf("predicate polled %d times after stop, want 0", got)
	}
}
