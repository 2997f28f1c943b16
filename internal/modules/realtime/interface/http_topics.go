package transport

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const maxHistoryLimit = 10000

func normalizeTopicKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// parseLimit reads ?limit=N. Zero means the whole history.
func parseLimit(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}
	return n, nil
}
