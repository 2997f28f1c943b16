package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"toolEaseRt/internal/modules/realtime/domain"
	"toolEaseRt/internal/modules/realtime/infrastructure"
)

// DefaultKeepalive is the interval between SSE comment frames on an idle stream.
const DefaultKeepalive = 15 * time.Second

// NewSSEHandler exposes /stream/:role as a text/event-stream of event envelopes.
func NewSSEHandler(b *infrastructure.Broadcaster, keepalive time.Duration) echo.HandlerFunc {
	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}
	return func(c echo.Context) error {
		role := domain.NormalizeRole(c.Param("role"))
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
		}
		stream, err := b.Subscribe(role)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownRole) {
				return echo.NewHTTPError(http.StatusNotFound, "unknown role "+role)
			}
			return err
		}
		defer stream.Close()

		h := c.Response().Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		c.Response().WriteHeader(http.StatusOK)

		w := c.Response()
		fmt.Fprintf(w, ": connected %s\n\n", stream.ID())
		flusher.Flush()

		ctx := c.Request().Context()
		slog.Info("sse stream opened", slog.String("role", role), slog.String("stream", stream.ID()), slog.String("ip", c.RealIP()))
		defer slog.Info("sse stream closed", slog.String("role", role), slog.String("stream", stream.ID()))

		for {
			next, cancel := context.WithTimeout(ctx, keepalive)
			ev, err := stream.Next(next)
			cancel()
			switch {
			case err == nil:
				data, merr := ev.Envelope()
				if merr != nil {
					slog.Error("sse marshal error", slog.String("type", ev.Type), slog.Any("error", merr))
					continue
				}
				if _, werr := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", ev.Seq, data); werr != nil {
					return nil
				}
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
				if _, werr := fmt.Fprint(w, ": keepalive\n\n"); werr != nil {
					return nil
				}
			default:
				return nil
			}
			flusher.Flush()
		}
	}
}
