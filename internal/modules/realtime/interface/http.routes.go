package transport

import (
	"time"

	"github.com/labstack/echo/v4"

	"toolEaseRt/internal/modules/realtime/application/usecase"
	"toolEaseRt/internal/modules/realtime/infrastructure"
	"toolEaseRt/internal/shared/auth"
)

// Dependencies carries everything the HTTP surface reads from.
type Dependencies struct {
	Stores      *infrastructure.StoreRegistry
	Broadcaster *infrastructure.Broadcaster
	Hub         *infrastructure.Hub
	Ingest      *usecase.IngestUseCase
	Broadcast   *usecase.BroadcastUseCase
	// Validator guards the publish endpoint; nil leaves it open.
	Validator  auth.TokenValidator
	FeedDriver string
	Keepalive  time.Duration
}

func RegisterRoutes(e *echo.Echo, d Dependencies) {
	if d.Hub == nil {
		d.Hub = infrastructure.NewHub()
	}
	e.GET("/healthz", NewHealthHandler(d))
	e.GET("/api/topics", NewTopicsHandler(d.Stores))
	e.GET("/api/topics/:key", NewHistoryHandler(d.Stores))
	e.POST("/api/topics/:key/events", NewPublishHandler(d.Broadcast, d.Validator))
	e.GET("/stream/:role", NewSSEHandler(d.Broadcaster, d.Keepalive))
	e.GET("/ws/:role", NewWebsocketHandler(d.Broadcaster, d.Hub, infrastructure.NewCommandProcessor(d.Stores)))
}
