package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TopicRoute maps a feed topic name to the topic key used by stores and envelopes.
type TopicRoute struct {
	Name string `toml:"name"`
	Key  string `toml:"key"`
	// File is the CSV file the replay publisher reads for this topic. Optional.
	File string `toml:"file"`
	// Delay between replayed rows of this topic, e.g. "700ms". Zero uses REPLAY_DELAY.
	Delay time.Duration `toml:"delay"`
}

// TopicTable resolves feed topic names to topic keys.
// It is built once at startup and read concurrently afterwards.
type TopicTable struct {
	routes  []TopicRoute
	byName  map[string]string
	aliases map[string]string
}

// DefaultTopicRoutes mirrors the topics published by the tool rental feed.
func DefaultTopicRoutes() []TopicRoute {
	return []TopicRoute{
		{Name: "toolease/renter/nearby_tools", Key: "nearby_tools", File: "renter_nearby_tools.csv", Delay: 500 * time.Millisecond},
		{Name: "toolease/renter/bookings", Key: "bookings", File: "renter_bookings.csv", Delay: 700 * time.Millisecond},
		{Name: "toolease/renter/operator_events", Key: "operator_events", File: "renter_operator_events.csv", Delay: 800 * time.Millisecond},
		{Name: "toolease/renter/feedback", Key: "feedback", File: "renter_feedback.csv", Delay: 800 * time.Millisecond},
		{Name: "toolease/renter/issues", Key: "issues", File: "renter_issues.csv", Delay: 900 * time.Millisecond},
		{Name: "toolease/owner/revenue", Key: "revenue", File: "owner_revenue.csv", Delay: 1000 * time.Millisecond},
		{Name: "toolease/owner/tool_status", Key: "tool_status", File: "owner_tool_status.csv", Delay: 500 * time.Millisecond},
		{Name: "toolease/owner/late_returns", Key: "late_returns", File: "owner_late_returns.csv", Delay: 900 * time.Millisecond},
		{Name: "toolease/owner/geofence_breach", Key: "geofence", File: "owner_geofence_breach.csv", Delay: 1000 * time.Millisecond},
	}
}

// NewTopicTable validates routes and indexes them. Both the feed name and its
// broker-safe form (see FeedSubject) resolve to the same key.
func NewTopicTable(routes []TopicRoute) (*TopicTable, error) {
	t := &TopicTable{
		byName:  make(map[string]string, len(routes)),
		aliases: make(map[string]string, len(routes)),
	}
	for _, r := range routes {
		r.Name = strings.TrimSpace(r.Name)
		r.Key = strings.TrimSpace(r.Key)
		r.File = strings.TrimSpace(r.File)
		if r.Name == "" || r.Key == "" {
			return nil, fmt.Errorf("topic route %q -> %q: name and key are required", r.Name, r.Key)
		}
		if existing, ok := t.byName[r.Name]; ok {
			return nil, fmt.Errorf("topic %q mapped twice (%s, %s)", r.Name, existing, r.Key)
		}
		t.byName[r.Name] = r.Key
		if subject := FeedSubject(r.Name); subject != r.Name {
			t.aliases[subject] = r.Key
		}
		t.routes = append(t.routes, r)
	}
	if len(t.routes) == 0 {
		return nil, fmt.Errorf("topic table is empty")
	}
	return t, nil
}

// Resolve returns the topic key for a feed topic name.
func (t *TopicTable) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if key, ok := t.byName[name]; ok {
		return key, true
	}
	key, ok := t.aliases[name]
	return key, ok
}

// Routes returns a copy of the configured routes in declaration order.
func (t *TopicTable) Routes() []TopicRoute {
	return append([]TopicRoute(nil), t.routes...)
}

// Keys returns the distinct topic keys, sorted.
func (t *TopicTable) Keys() []string {
	seen := make(map[string]struct{}, len(t.routes))
	keys := make([]string, 0, len(t.routes))
	for _, r := range t.routes {
		if _, ok := seen[r.Key]; ok {
			continue
		}
		seen[r.Key] = struct{}{}
		keys = append(keys, r.Key)
	}
	sort.Strings(keys)
	return keys
}

// FeedSubjects returns the broker-safe subject of every route.
func (t *TopicTable) FeedSubjects() []string {
	subjects := make([]string, 0, len(t.routes))
	for _, r := range t.routes {
		subjects = append(subjects, FeedSubject(r.Name))
	}
	return subjects
}

// FeedSubject converts a slash separated feed name into the dotted form accepted by
// Kafka topic names and NATS subjects.
func FeedSubject(name string) string {
	return strings.ReplaceAll(strings.Trim(strings.TrimSpace(name), "/"), "/", ".")
}

// ParseTopicMap parses "name=key,name=key" pairs.
func ParseTopicMap(raw string) ([]TopicRoute, error) {
	var routes []TopicRoute
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, key, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("topic map entry %q: expected name=key", pair)
		}
		routes = append(routes, TopicRoute{Name: strings.TrimSpace(name), Key: strings.TrimSpace(key)})
	}
	return routes, nil
}
