package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"toolEaseRt/internal/modules/realtime/application/port"
	"toolEaseRt/internal/modules/realtime/domain"
)

// BroadcastUseCase retains a record in its topic history and distributes it to
// every role. Feed ingestion and locally originated events both go through Execute.
type BroadcastUseCase struct {
	history     port.HistoryAppender
	broadcaster port.Broadcaster
	now         func() time.Time

	// mu keeps history order and queue order identical across producers.
	mu        sync.Mutex
	published atomic.Uint64
}

func NewBroadcastUseCase(history port.HistoryAppender, b port.Broadcaster) *BroadcastUseCase {
	return &BroadcastUseCase{history: history, broadcaster: b, now: time.Now}
}

func (uc *BroadcastUseCase) Execute(ctx context.Context, topicKey string, record domain.Record) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if !uc.history.Append(topicKey, record) {
		return fmt.Errorf("%w: key %q", domain.ErrUnknownTopic, topicKey)
	}
	uc.broadcaster.Publish(ctx, domain.NewEvent(topicKey, record, uc.now().UTC()))
	uc.published.Add(1)
	return nil
}

// Published reports how many events were distributed.
func (uc *BroadcastUseCase) Published() uint64 {
	return uc.published.Load()
}
