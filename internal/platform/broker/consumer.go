package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"toolEaseRt/internal/modules/realtime/application/port"
)

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads every feed topic with its own reader so messages of one
// topic are handled strictly in partition order.
type KafkaConsumer struct {
	readers []messageReader
	topics  []string
}

func NewKafkaConsumer(brokers []string, groupID string, topics []string) *KafkaConsumer {
	c := &KafkaConsumer{}
	for _, topic := range topics {
		c.readers = append(c.readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
			MaxWait:  500 * time.Millisecond,
		}))
		c.topics = append(c.topics, topic)
	}
	return c
}

// Consume blocks until ctx is cancelled. Read errors are logged and retried with
// bounded backoff; nothing is replayed for the gap.
func (c *KafkaConsumer) Consume(ctx context.Context, handler port.MessageHandler) error {
	var wg sync.WaitGroup
	for i, reader := range c.readers {
		wg.Add(1)
		go func(topic string, r messageReader) {
			defer wg.Done()
			consumeLoop(ctx, topic, r, handler)
		}(c.topics[i], reader)
	}
	wg.Wait()
	return ctx.Err()
}

func (c *KafkaConsumer) Close() error {
	var errs []error
	for _, r := range c.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func consumeLoop(ctx context.Context, topic string, r messageReader, handler port.MessageHandler) {
	retry := newBackoff()
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := retry.next()
			slog.Warn("kafka read error", slog.String("topic", topic), slog.Duration("retryIn", wait), slog.Any("error", err))
			if !sleep(ctx, wait) {
				return
			}
			continue
		}
		retry.reset()
		slog.Debug("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			slog.Int("bytes", len(m.Value)),
		)
		handler(ctx, m.Topic, m.Value)
	}
}

var _ port.FeedSource = (*KafkaConsumer)(nil)
