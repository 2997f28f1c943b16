package infrastructure

import (
	"sync"

	"toolEaseRt/internal/modules/realtime/domain"
)

// DefaultRoleQueueCapacity bounds the backlog kept for one role.
const DefaultRoleQueueCapacity = 1000

// RoleQueue is the pending-delivery log shared by every stream of one role.
//
// Each attached stream reads through its own cursor, so all simultaneous
// subscribers of a role see every event. An entry is dropped once every attached
// cursor has moved past it, or when the backlog exceeds capacity (oldest first).
// With no subscriber attached entries accumulate up to capacity and the next
// subscriber starts from the oldest one.
type RoleQueue struct {
	role     string
	capacity int

	mu      sync.Mutex
	entries []domain.Event // entries[i].Seq == head+i
	head    uint64
	cursors map[*cursor]struct{}
	signal  chan struct{} // closed and replaced on every append
	dropped uint64
}

type cursor struct {
	next uint64
}

func NewRoleQueue(role string, capacity int) *RoleQueue {
	if capacity <= 0 {
		capacity = DefaultRoleQueueCapacity
	}
	return &RoleQueue{
		role:     role,
		capacity: capacity,
		head:     1,
		cursors:  make(map[*cursor]struct{}),
		signal:   make(chan struct{}),
	}
}

func (q *RoleQueue) Role() string { return q.role }

// Append enqueues ev and wakes waiting readers. It never blocks on readers.
func (q *RoleQueue) Append(ev domain.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ev.Seq = q.head + uint64(len(q.entries))
	q.entries = append(q.entries, ev)
	if len(q.entries) > q.capacity {
		q.dropLocked(len(q.entries) - q.capacity)
		q.dropped++
	}
	close(q.signal)
	q.signal = make(chan struct{})
}

// Len reports the number of retained entries.
func (q *RoleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Dropped reports how many entries were evicted by capacity pressure.
func (q *RoleQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Subscribers reports the number of attached cursors.
func (q *RoleQueue) Subscribers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cursors)
}

func (q *RoleQueue) attach() *cursor {
	q.mu.Lock()
	defer q.mu.Unlock()
	c := &cursor{next: q.head}
	q.cursors[c] = struct{}{}
	return c
}

func (q *RoleQueue) detach(c *cursor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.cursors[c]; !ok {
		return
	}
	delete(q.cursors, c)
	q.trimLocked()
}

// poll returns the next entry for c, or the channel that is closed by the next append.
func (q *RoleQueue) poll(c *cursor) (domain.Event, <-chan struct{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if c.next < q.head {
		c.next = q.head
	}
	idx := c.next - q.head
	if idx >= uint64(len(q.entries)) {
		return domain.Event{}, q.signal, false
	}
	ev := q.entries[idx]
	c.next++
	q.trimLocked()
	return ev, nil, true
}

// trimLocked drops entries every attached cursor has consumed.
func (q *RoleQueue) trimLocked() {
	if len(q.cursors) == 0 {
		return
	}
	low := q.head + uint64(len(q.entries))
	for c := range q.cursors {
		if c.next < low {
			low = c.next
		}
	}
	if low > q.head {
		q.dropLocked(int(low - q.head))
	}
}

func (q *RoleQueue) dropLocked(n int) {
	if n > len(q.entries) {
		n = len(q.entries)
	}
	clear(q.entries[:n])
	q.entries = q.entries[n:]
	q.head += uint64(n)
}
