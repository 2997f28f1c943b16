package infrastructure

import (
	"sync"

	"toolEaseRt/internal/modules/realtime/domain"
)

// DefaultHistoryCapacity is the number of records each topic keeps.
const DefaultHistoryCapacity = 1000

// TopicStore is a rolling window over the most recent records of one topic.
// Appends past capacity evict the oldest record. Safe for concurrent use.
type TopicStore struct {
	key string

	mu    sync.RWMutex
	ring  []domain.Record
	start int // index of the oldest record
	size  int
}

// NewTopicStore creates a store for key. Non-positive capacities fall back to the default.
func NewTopicStore(key string, capacity int) *TopicStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &TopicStore{key: key, ring: make([]domain.Record, capacity)}
}

func (s *TopicStore) Key() string { return s.key }

func (s *TopicStore) Cap() int { return len(s.ring) }

func (s *TopicStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Append adds record at the tail, evicting the head when full.
func (s *TopicStore) Append(record domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size < len(s.ring) {
		s.ring[(s.start+s.size)%len(s.ring)] = record
		s.size++
		return
	}
	s.ring[s.start] = record
	s.start = (s.start + 1) % len(s.ring)
}

// Snapshot returns the retained records, oldest first.
func (s *TopicStore) Snapshot() []domain.Record {
	return s.Tail(0)
}

// Tail returns the newest n records, oldest first. n <= 0 returns everything.
func (s *TopicStore) Tail(n int) []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > s.size {
		n = s.size
	}
	out := make([]domain.Record, 0, n)
	for i := s.size - n; i < s.size; i++ {
		out = append(out, s.ring[(s.start+i)%len(s.ring)])
	}
	return out
}
