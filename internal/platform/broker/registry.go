package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"toolEaseRt/internal/config"
	"toolEaseRt/internal/modules/realtime/application/port"
)

// NewFeedSource builds the configured feed driver for the given subjects.
// It returns nil for driver "none" and for kafka without brokers.
func NewFeedSource(cfg config.FeedConfig, subjects []string) (port.FeedSource, error) {
	switch cfg.Driver {
	case config.FeedDriverKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			slog.Warn("kafka feed skipped: KAFKA_BROKERS is empty, running HTTP-only")
			return nil, nil
		}
		return NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, subjects), nil
	case config.FeedDriverNATS:
		c, err := NewNATSConsumer(cfg.NATS.URL, subjects)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.FeedDriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown feed driver %q", cfg.Driver)
	}
}

// NewFeedPublisher builds the producer matching the configured feed driver.
func NewFeedPublisher(cfg config.FeedConfig) (port.FeedPublisher, error) {
	switch cfg.Driver {
	case config.FeedDriverKafka:
		p, err := NewKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.FeedDriverNATS:
		p, err := NewNATSProducer(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("feed driver %q cannot publish", cfg.Driver)
	}
}

// StartFeed runs source.Consume in the background and closes done when it returns.
func StartFeed(ctx context.Context, source port.FeedSource, handler port.MessageHandler) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := source.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("feed consumer stopped", slog.Any("error", err))
		}
	}()
	return done
}
