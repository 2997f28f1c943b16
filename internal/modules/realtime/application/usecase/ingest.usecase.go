package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"toolEaseRt/internal/modules/realtime/domain"
)

// IngestStats counts feed messages by outcome.
type IngestStats struct {
	Accepted       uint64 `json:"accepted"`
	DecodeFailures uint64 `json:"decodeFailures"`
	UnknownTopics  uint64 `json:"unknownTopics"`
}

// IngestUseCase demultiplexes raw feed messages onto topic keys.
type IngestUseCase struct {
	table     *domain.TopicTable
	broadcast *BroadcastUseCase

	accepted       atomic.Uint64
	decodeFailures atomic.Uint64
	unknownTopics  atomic.Uint64
}

func NewIngestUseCase(table *domain.TopicTable, broadcast *BroadcastUseCase) *IngestUseCase {
	return &IngestUseCase{table: table, broadcast: broadcast}
}

// OnMessage resolves, decodes and distributes one feed message. A returned error
// means the message was dropped; it is for logging only and never reaches the feed.
func (uc *IngestUseCase) OnMessage(ctx context.Context, topic string, payload []byte) error {
	key, ok := uc.table.Resolve(topic)
	if !ok {
		uc.unknownTopics.Add(1)
		return fmt.Errorf("%w: %q", domain.ErrUnknownTopic, topic)
	}
	record, err := domain.DecodeRecord(payload)
	if err != nil {
		uc.decodeFailures.Add(1)
		return fmt.Errorf("topic %q: %w", topic, err)
	}
	if err := uc.broadcast.Execute(ctx, key, record); err != nil {
		uc.unknownTopics.Add(1)
		return err
	}
	uc.accepted.Add(1)
	return nil
}

func (uc *IngestUseCase) Stats() IngestStats {
	return IngestStats{
		Accepted:       uc.accepted.Load(),
		DecodeFailures: uc.decodeFailures.Load(),
		UnknownTopics:  uc.unknownTopics.Load(),
	}
}
