package port

import (
	"context"

	"toolEaseRt/internal/modules/realtime/domain"
)

// MessageHandler receives one raw feed message.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// FeedSource is the inbound multi-topic message feed (Kafka, NATS).
// Consume blocks until ctx is cancelled; reconnection is the source's concern.
type FeedSource interface {
	Consume(ctx context.Context, handler MessageHandler) error
	Close() error
}

// FeedPublisher writes raw messages onto the feed. Used by the replay tool.
type FeedPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

// Broadcaster distributes notification events to every role queue.
type Broadcaster interface {
	Publish(ctx context.Context, ev domain.Event)
}

// HistoryAppender retains records per topic key. Append reports false for unknown keys.
type HistoryAppender interface {
	Append(key string, record domain.Record) bool
}
