package broker

import (
	"context"
	"testing"
	"time"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	t.Parallel()

	b := newBackoff()
	want := []time.Duration{1, 2, 4, 8, 16, 32, 32}
	for i, w := range want {
		if got := b.next(); got != w*time.Second {
			t.Fatalf("step %d: expected %s, got %s", i, w*time.Second, got)
		}
	}
	b.reset()
	if got := b.next(); got != time.Second {
		t.Fatalf("expected reset to start from 1s, got %s", got)
	}
}

func TestSleepStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if sleep(ctx, time.Minute) {
		t.Fatalf("expected sleep to report cancellation")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("sleep ignored cancellation")
	}
}
