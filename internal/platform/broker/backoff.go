package broker

import (
	"context"
	"time"
)

const (
	minReconnectBackoff = time.Second
	maxReconnectBackoff = 32 * time.Second
)

// backoff doubles the wait after each consecutive failure, up to max.
type backoff struct {
	min, max time.Duration
	current  time.Duration
}

func newBackoff() *backoff {
	return &backoff{min: minReconnectBackoff, max: maxReconnectBackoff}
}

func (b *backoff) next() time.Duration {
	if b.current == 0 {
		b.current = b.min
		return b.current
	}
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return b.current
}

func (b *backoff) reset() { b.current = 0 }

// sleep waits for d or until ctx is done. It reports false when ctx ended the wait.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
