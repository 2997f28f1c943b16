package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"toolEaseRt/internal/modules/realtime/domain"
)

// Command is an inbound websocket frame, e.g. {"action":"history","topic":"bookings"}.
type Command struct {
	Action  string          `json:"action"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (c Command) actionKey() string {
	return normalizeAction(c.Action)
}

type CommandHandler func(ctx context.Context, client *Client, cmd Command)

// frame is the shape of every reply the server sends for a command.
type frame struct {
	Type      string `json:"type"`
	Topic     string `json:"topic,omitempty"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

func systemFrame(kind string, data any) frame {
	return frame{Type: kind, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
}

func errorFrame(reason string) frame {
	return systemFrame("system.error", map[string]string{"error": reason})
}

// CommandProcessor dispatches client commands. Built-in actions are subscribe,
// unsubscribe (event type filters), ping and history.
type CommandProcessor struct {
	stores   *StoreRegistry
	handlers map[string]CommandHandler
}

func NewCommandProcessor(stores *StoreRegistry) *CommandProcessor {
	processor := &CommandProcessor{
		stores:   stores,
		handlers: make(map[string]CommandHandler),
	}
	processor.Register("subscribe", processor.handleSubscribe)
	processor.Register("unsubscribe", processor.handleUnsubscribe)
	processor.Register("ping", processor.handlePing)
	processor.Register("history", processor.handleHistory)
	return processor
}

func (p *CommandProcessor) Register(action string, handler CommandHandler) {
	if handler == nil {
		return
	}
	key := normalizeAction(action)
	if key == "" {
		return
	}
	p.handlers[key] = handler
}

func (p *CommandProcessor) Process(client *Client, cmd Command) {
	if client == nil {
		return
	}
	action := cmd.actionKey()
	if action == "" {
		return
	}
	handler, ok := p.handlers[action]
	if !ok {
		slog.Debug("ws command ignored", slog.String("stream", client.ID()), slog.String("action", action))
		client.sendFrame(errorFrame("unsupported action"))
		return
	}
	handler(client.ctx, client, cmd)
}

func (p *CommandProcessor) handleSubscribe(_ context.Context, client *Client, cmd Command) {
	topic := normalizeAction(cmd.Topic)
	if topic == "" {
		slog.Debug("ws subscribe ignored empty topic", slog.String("stream", client.ID()))
		return
	}
	if _, ok := p.stores.Store(topic); !ok {
		client.sendFrame(errorFrame("unknown topic " + topic))
		return
	}
	client.subscribe(topic)
	slog.Debug("ws subscribe", slog.String("stream", client.ID()), slog.String("topic", topic))
}

func (p *CommandProcessor) handleUnsubscribe(_ context.Context, client *Client, cmd Command) {
	topic := normalizeAction(cmd.Topic)
	if topic == "" {
		return
	}
	client.unsubscribe(topic)
	slog.Debug("ws unsubscribe", slog.String("stream", client.ID()), slog.String("topic", topic))
}

func (p *CommandProcessor) handlePing(_ context.Context, client *Client, _ Command) {
	client.sendFrame(systemFrame("system.pong", nil))
}

type historyPayload struct {
	Limit int `json:"limit"`
}

func (p *CommandProcessor) handleHistory(_ context.Context, client *Client, cmd Command) {
	topic := normalizeAction(cmd.Topic)
	store, ok := p.stores.Store(topic)
	if !ok {
		client.sendFrame(errorFrame("unknown topic " + topic))
		return
	}
	var payload historyPayload
	if len(cmd.Payload) > 0 {
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil || payload.Limit < 0 {
			client.sendFrame(errorFrame("invalid payload"))
			return
		}
	}
	records := store.Tail(payload.Limit)
	if records == nil {
		records = []domain.Record{}
	}
	reply := systemFrame("system.history", records)
	reply.Topic = topic
	client.sendFrame(reply)
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
