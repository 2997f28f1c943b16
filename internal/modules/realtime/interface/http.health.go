package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"toolEaseRt/internal/modules/realtime/application/usecase"
	"toolEaseRt/internal/modules/realtime/infrastructure"
)

type HealthResponse struct {
	Status     string                      `json:"status"`
	FeedDriver string                      `json:"feedDriver"`
	Ingest     usecase.IngestStats         `json:"ingest"`
	Published  uint64                      `json:"published"`
	Queues     []infrastructure.QueueStats `json:"queues"`
	Websockets map[string]int              `json:"websockets"`
}

func NewHealthHandler(d Dependencies) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:     "ok",
			FeedDriver: d.FeedDriver,
			Ingest:     d.Ingest.Stats(),
			Published:  d.Broadcast.Published(),
			Queues:     d.Broadcaster.Stats(),
			Websockets: d.Hub.ClientsByRole(),
		})
	}
}
