package domain

import (
	"encoding/json"
	"maps"
	"time"
)

// Record is one decoded feed event: a flat mapping of scalar values.
// Its shape is a contract between producer and consumer and is not validated here.
type Record map[string]any

// Clone returns a shallow copy. Values are scalars, so a shallow copy is a full copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Event is the notification derived from a Record at ingestion time.
// Events are immutable once created; each role queue holds its own copy.
type Event struct {
	Type      string    `json:"type"`
	Data      Record    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	// Seq is assigned by the role queue the event was delivered from.
	Seq uint64 `json:"-"`
}

// NewEvent builds an event for the given topic key.
func NewEvent(topicKey string, record Record, receivedAt time.Time) Event {
	return Event{Type: topicKey, Data: record, Timestamp: receivedAt}
}

// Copy returns an event that shares no mutable state with e.
func (e Event) Copy() Event {
	e.Data = e.Data.Clone()
	return e
}

// Envelope encodes the event as the JSON body emitted to stream clients.
func (e Event) Envelope() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		Data      Record `json:"data"`
		Timestamp string `json:"timestamp"`
	}{
		Type:      e.Type,
		Data:      e.Data,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}
