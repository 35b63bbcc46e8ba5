package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTimer struct {
	requested time.Duration
	created   bool
	stopped   bool
	fire      chan time.Time
}

func stubTimer(t *testing.T, fires bool) *fakeTimer {
	t.Helper()

	ft := &fakeTimer{fire: make(chan time.Time, 1)}
	original := newTimer
	newTimer = func(d time.Duration) (<-chan time.Time, func() bool) {
		ft.created = true
		ft.requested = d
		if fires {
			ft.fire <- time.Time{}
		}
		return ft.fire, func() bool { ft.stopped = true; return true }
	}
	t.Cleanup(func() { newTimer = original })

	return ft
}

func TestWaitForSkipsNonPositive(t *testing.T) {
	ft := stubTimer(t, true)

	for _, d := range []time.Duration{0, -time.Second} {
		if err := WaitFor(context.Background(), d); err != nil {
			t.Fatalf("unexpected error for %s: %v", d, err)
		}
	}
	if ft.created {
		t.Fatal("no timer expected for a non-positive pause")
	}
}

func TestWaitForRetryPause(t *testing.T) {
	ft := stubTimer(t, true)

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.requested != 3*time.Second {
		t.Fatalf("expected a 3s timer, got %s", ft.requested)
	}
	if !ft.stopped {
		t.Fatal("timer must be stopped")
	}
}

func TestWaitForHonorsCancel(t *testing.T) {
	ft := stubTimer(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitFor(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !ft.stopped {
		t.Fatal("timer must be released on cancellation")
	}
}

func TestWaitForRealTimer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := WaitFor(ctx, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
