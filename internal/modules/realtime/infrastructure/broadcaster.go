package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"toolEaseRt/internal/modules/realtime/application/port"
	"toolEaseRt/internal/modules/realtime/domain"
)

// BroadcasterConfig sizes the role queues and the stream idle wait.
type BroadcasterConfig struct {
	QueueCapacity int
	IdleInterval  time.Duration
}

// Broadcaster owns one RoleQueue per known role and fans every published event
// out to all of them.
type Broadcaster struct {
	// mu serializes Publish so every queue sees the same global order.
	mu     sync.Mutex
	roles  []string
	queues map[string]*RoleQueue
	idle   time.Duration
}

// QueueStats is a point-in-time view of one role queue.
type QueueStats struct {
	Role        string `json:"role"`
	Depth       int    `json:"depth"`
	Subscribers int    `json:"subscribers"`
	Dropped     uint64 `json:"dropped"`
}

func NewBroadcaster(roles []string, cfg BroadcasterConfig) *Broadcaster {
	b := &Broadcaster{
		queues: make(map[string]*RoleQueue, len(roles)),
		idle:   cfg.IdleInterval,
	}
	for _, raw := range roles {
		role := domain.NormalizeRole(raw)
		if role == "" {
			continue
		}
		if _, exists := b.queues[role]; exists {
			continue
		}
		b.queues[role] = NewRoleQueue(role, cfg.QueueCapacity)
		b.roles = append(b.roles, role)
	}
	return b
}

// Publish appends a copy of ev to every role queue, whether or not anyone is listening.
func (b *Broadcaster) Publish(_ context.Context, ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, role := range b.roles {
		b.queues[role].Append(ev.Copy())
	}
	slog.Debug("event published", slog.String("type", ev.Type), slog.Int("roles", len(b.roles)))
}

// Roles returns the fixed role set in configuration order.
func (b *Broadcaster) Roles() []string {
	return slices.Clone(b.roles)
}

func (b *Broadcaster) Queue(role string) (*RoleQueue, bool) {
	q, ok := b.queues[domain.NormalizeRole(role)]
	return q, ok
}

// Subscribe opens a stream on the role's queue. The caller must Close it.
func (b *Broadcaster) Subscribe(role string) (*Stream, error) {
	q, ok := b.Queue(role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}
	s := newStream(q, b.idle)
	slog.Info("stream attached", slog.String("role", q.Role()), slog.String("stream", s.ID()))
	return s, nil
}

func (b *Broadcaster) Stats() []QueueStats {
	stats := make([]QueueStats, 0, len(b.roles))
	for _, role := range b.roles {
		q := b.queues[role]
		stats = append(stats, QueueStats{
			Role:        role,
			Depth:       q.Len(),
			Subscribers: q.Subscribers(),
			Dropped:     q.Dropped(),
		})
	}
	return stats
}

var _ port.Broadcaster = (*Broadcaster)(nil)
