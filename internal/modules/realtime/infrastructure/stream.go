package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"toolEaseRt/internal/modules/realtime/domain"
)

// DefaultIdleInterval caps how long a stream waits before rechecking its queue.
const DefaultIdleInterval = time.Second

// Stream is one client's handle on a role queue. It yields events in append order
// until it is closed or its context is cancelled.
type Stream struct {
	id    string
	queue *RoleQueue
	cur   *cursor
	idle  time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

func newStream(queue *RoleQueue, idle time.Duration) *Stream {
	if idle <= 0 {
		idle = DefaultIdleInterval
	}
	return &Stream{
		id:    uuid.NewString(),
		queue: queue,
		cur:   queue.attach(),
		idle:  idle,
		done:  make(chan struct{}),
	}
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Role() string { return s.queue.Role() }

// Next returns the oldest pending event, waiting for one if the queue is empty.
// A wait wakes on append, on ctx cancellation, on Close, or after the idle interval.
func (s *Stream) Next(ctx context.Context) (domain.Event, error) {
	for {
		select {
		case <-s.done:
			return domain.Event{}, domain.ErrStreamClosed
		default:
		}
		ev, signal, ok := s.queue.poll(s.cur)
		if ok {
			return ev, nil
		}
		timer := time.NewTimer(s.idle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.Event{}, ctx.Err()
		case <-s.done:
			timer.Stop()
			return domain.Event{}, domain.ErrStreamClosed
		case <-signal:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// Close detaches the stream. Events still queued for the role stay visible to
// the other streams of that role. Safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.queue.detach(s.cur)
	})
}
