package handler

import (
	"context"
	"errors"
	"log/slog"

	"toolEaseRt/internal/modules/realtime/application/port"
	"toolEaseRt/internal/modules/realtime/application/usecase"
	"toolEaseRt/internal/modules/realtime/domain"
)

// NewFeedMessageHandler adapts the ingest use case to the feed callback. Dropped
// messages are logged and never surfaced to the feed.
func NewFeedMessageHandler(ingestUC *usecase.IngestUseCase) port.MessageHandler {
	return func(ctx context.Context, topic string, payload []byte) {
		err := ingestUC.OnMessage(ctx, topic, payload)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUnknownTopic):
			slog.Warn("feed message dropped: unknown topic", slog.String("topic", topic))
		case errors.Is(err, domain.ErrDecode):
			slog.Warn("feed message dropped: decode failed", slog.String("topic", topic), slog.Int("bytes", len(payload)), slog.Any("error", err))
		default:
			slog.Error("feed message dropped", slog.String("topic", topic), slog.Any("error", err))
		}
	}
}
