package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"toolEaseRt/internal/modules/realtime/domain"
	"toolEaseRt/internal/modules/realtime/infrastructure"
)

// TopicSummary describes one retained topic history.
type TopicSummary struct {
	Key      string `json:"key"`
	Length   int    `json:"length"`
	Capacity int    `json:"capacity"`
}

// NewTopicsHandler lists every known topic key with its fill level.
func NewTopicsHandler(stores *infrastructure.StoreRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		keys := stores.Keys()
		out := make([]TopicSummary, 0, len(keys))
		for _, key := range keys {
			store, _ := stores.Store(key)
			out = append(out, TopicSummary{Key: store.Key(), Length: store.Len(), Capacity: store.Cap()})
		}
		return c.JSON(http.StatusOK, out)
	}
}

// NewHistoryHandler returns the retained records of one topic, oldest first.
func NewHistoryHandler(stores *infrastructure.StoreRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := normalizeTopicKey(c.Param("key"))
		store, ok := stores.Store(key)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown topic "+key)
		}
		limit, err := parseLimit(c)
		if err != nil {
			return err
		}
		var records []domain.Record
		if limit > 0 {
			records = store.Tail(limit)
		} else {
			records = store.Snapshot()
		}
		if records == nil {
			records = []domain.Record{}
		}
		return c.JSON(http.StatusOK, records)
	}
}
