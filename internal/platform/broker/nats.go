package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"toolEaseRt/internal/modules/realtime/application/port"
)

// NATSConsumer subscribes to every feed subject on a single connection.
// nats.go delivers each subscription's messages on one goroutine, in order.
type NATSConsumer struct {
	conn     *nats.Conn
	subjects []string
}

// NewNATSConsumer connects with unlimited reconnects, including when the server is
// not up yet at startup. The pipeline simply resumes once the connection is back;
// messages sent during the outage are lost.
func NewNATSConsumer(url string, subjects []string, opts ...nats.Option) (*NATSConsumer, error) {
	defaults := []nats.Option{
		nats.Name("toolease-dashboard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.RetryOnFailedConnect(true),
		nats.ConnectHandler(func(nc *nats.Conn) {
			slog.Info("nats connected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSConsumer{conn: nc, subjects: subjects}, nil
}

func (c *NATSConsumer) Consume(ctx context.Context, handler port.MessageHandler) error {
	subs := make([]*nats.Subscription, 0, len(c.subjects))
	defer func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}()
	for _, subject := range c.subjects {
		sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
			handler(ctx, msg.Subject, msg.Data)
		})
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	// While still connecting, subscriptions are sent once the connection is up.
	if c.conn.IsConnected() {
		if err := c.conn.Flush(); err != nil {
			slog.Warn("nats flush failed", slog.Any("error", err))
		}
	}
	slog.Info("nats feed subscribed", slog.Any("subjects", c.subjects))
	<-ctx.Done()
	return ctx.Err()
}

func (c *NATSConsumer) Close() error {
	c.conn.Close()
	return nil
}

// NATSProducer publishes raw payloads to feed subjects.
type NATSProducer struct {
	conn *nats.Conn
}

func NewNATSProducer(url string) (*NATSProducer, error) {
	nc, err := nats.Connect(url, nats.MaxReconnects(-1), nats.ReconnectWait(time.Second), nats.RetryOnFailedConnect(true))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSProducer{conn: nc}, nil
}

func (p *NATSProducer) Publish(_ context.Context, subject string, payload []byte) error {
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

func (p *NATSProducer) Close() error {
	err := p.conn.Drain()
	if errors.Is(err, nats.ErrConnectionClosed) {
		return nil
	}
	return err
}

var (
	_ port.FeedSource    = (*NATSConsumer)(nil)
	_ port.FeedPublisher = (*NATSProducer)(nil)
)
