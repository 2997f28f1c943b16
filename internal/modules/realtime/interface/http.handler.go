package transport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"toolEaseRt/internal/modules/realtime/domain"
	"toolEaseRt/internal/modules/realtime/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewWebsocketHandler expone /ws/:role y emite un envelope JSON por frame.
func NewWebsocketHandler(b *infrastructure.Broadcaster, hub *infrastructure.Hub, commands *infrastructure.CommandProcessor) echo.HandlerFunc {
	return func(c echo.Context) error {
		role := domain.NormalizeRole(c.Param("role"))
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		peerIP := c.RealIP()

		stream, err := b.Subscribe(role)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownRole) {
				slog.Warn("ws handler unknown role", slog.String("role", role), slog.String("ip", peerIP))
				return echo.NewHTTPError(http.StatusNotFound, "unknown role "+role)
			}
			return err
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			stream.Close()
			slog.Error("ws handler upgrade failed", slog.String("role", role), slog.String("reqID", requestID), slog.Any("error", err))
			return nil
		}

		client := infrastructure.NewClient(hub, conn, stream, commands, 8)
		client.SendConnected()
		slog.Info("ws connected", slog.String("role", role), slog.String("stream", stream.ID()), slog.String("ip", peerIP), slog.String("reqID", requestID))
		client.Run()
		slog.Info("ws disconnected", slog.String("role", role), slog.String("stream", stream.ID()))
		return nil
	}
}
