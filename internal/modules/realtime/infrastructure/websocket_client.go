package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"toolEaseRt/internal/modules/realtime/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client pumps one Stream onto a websocket connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	stream   *Stream
	commands *CommandProcessor
	send     chan []byte

	// topics filters delivered event types; empty means every type.
	topicsMu sync.RWMutex
	topics   map[string]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewClient crea un cliente WebSocket sobre un stream ya suscrito.
func NewClient(hub *Hub, conn *websocket.Conn, stream *Stream, commands *CommandProcessor, buf int) *Client {
	if buf <= 0 {
		buf = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:      hub,
		conn:     conn,
		stream:   stream,
		commands: commands,
		send:     make(chan []byte, buf),
		topics:   make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) ID() string { return c.stream.ID() }

func (c *Client) Role() string { return c.stream.Role() }

// Run registers the client, starts delivery and the write pump, then reads
// until the peer goes away.
func (c *Client) Run() {
	if c.hub != nil {
		c.hub.register(c)
	}
	go c.deliver()
	go c.WritePump()
	c.ReadPump()
}

// SendConnected queues the greeting frame carrying the stream id.
func (c *Client) SendConnected() {
	c.sendFrame(systemFrame("system.connected", map[string]any{
		"stream": c.stream.ID(),
		"role":   c.stream.Role(),
	}))
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.stream.Close()
		_ = c.conn.Close()
		if c.hub != nil {
			c.hub.unregister(c)
		}
	})
}

func (c *Client) subscribe(topic string) {
	c.topicsMu.Lock()
	c.topics[topic] = struct{}{}
	c.topicsMu.Unlock()
}

func (c *Client) unsubscribe(topic string) {
	c.topicsMu.Lock()
	delete(c.topics, topic)
	c.topicsMu.Unlock()
}

func (c *Client) wants(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	if len(c.topics) == 0 {
		return true
	}
	_, ok := c.topics[topic]
	return ok
}

// sendFrame queues a reply without blocking the read pump.
func (c *Client) sendFrame(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("websocket marshal error", slog.Any("error", err))
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		slog.Warn("websocket send buffer full", slog.String("stream", c.stream.ID()), slog.String("role", c.stream.Role()))
	}
}

// deliver moves events from the stream to the send buffer. A slow socket only
// holds back its own cursor; the shared queue stays bounded.
func (c *Client) deliver() {
	for {
		ev, err := c.stream.Next(c.ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, domain.ErrStreamClosed) {
				slog.Warn("websocket stream error", slog.String("stream", c.stream.ID()), slog.Any("error", err))
			}
			return
		}
		if !c.wants(ev.Type) {
			continue
		}
		data, err := ev.Envelope()
		if err != nil {
			slog.Error("websocket marshal error", slog.String("type", ev.Type), slog.Any("error", err))
			continue
		}
		select {
		case c.send <- data:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("websocket write error", slog.String("stream", c.stream.ID()), slog.Any("error", err))
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Warn("websocket ping error", slog.String("stream", c.stream.ID()), slog.Any("error", err))
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// ReadPump keeps the read deadline alive, runs client commands and closes the
// client when the peer leaves.
func (c *Client) ReadPump() {
	defer c.close()
	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var cmd Command
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if err := c.conn.ReadJSON(&cmd); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.sendFrame(errorFrame("invalid command"))
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && c.ctx.Err() == nil {
				slog.Debug("websocket read error", slog.String("stream", c.stream.ID()), slog.Any("error", err))
			}
			return
		}
		if c.commands != nil {
			c.commands.Process(c, cmd)
		}
	}
}
