package infrastructure

import (
	"sort"

	"toolEaseRt/internal/modules/realtime/application/port"
	"toolEaseRt/internal/modules/realtime/domain"
)

// StoreRegistry owns one TopicStore per topic key. The set of keys is fixed at
// construction so lookups need no locking.
type StoreRegistry struct {
	stores map[string]*TopicStore
}

func NewStoreRegistry(table *domain.TopicTable, capacity int) *StoreRegistry {
	r := &StoreRegistry{stores: make(map[string]*TopicStore)}
	for _, key := range table.Keys() {
		r.stores[key] = NewTopicStore(key, capacity)
	}
	return r
}

func (r *StoreRegistry) Store(key string) (*TopicStore, bool) {
	s, ok := r.stores[key]
	return s, ok
}

// Keys returns the registered topic keys, sorted.
func (r *StoreRegistry) Keys() []string {
	keys := make([]string, 0, len(r.stores))
	for k := range r.stores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Append adds record to the store for key.
func (r *StoreRegistry) Append(key string, record domain.Record) bool {
	s, ok := r.stores[key]
	if !ok {
		return false
	}
	s.Append(record)
	return true
}

var _ port.HistoryAppender = (*StoreRegistry)(nil)
