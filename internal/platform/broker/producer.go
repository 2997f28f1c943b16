package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"toolEaseRt/internal/modules/realtime/application/port"
)

// KafkaProducer writes raw payloads onto feed topics. Messages are keyed by topic
// so one topic always lands on one partition and keeps its order.
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string) (*KafkaProducer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker address is required")
	}
	return &KafkaProducer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Key: []byte(topic), Value: payload}); err != nil {
		return fmt.Errorf("write to kafka topic %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

var _ port.FeedPublisher = (*KafkaProducer)(nil)
