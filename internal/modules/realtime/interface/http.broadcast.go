package transport

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"toolEaseRt/internal/modules/realtime/application/usecase"
	"toolEaseRt/internal/modules/realtime/domain"
	"toolEaseRt/internal/shared/auth"
	"toolEaseRt/internal/shared/httputil"
)

const maxPublishBody = 1 << 16

// PublishResponse acknowledges a locally originated event.
type PublishResponse struct {
	Success bool   `json:"success"`
	Topic   string `json:"topic"`
}

var publishErrors = httputil.NewErrorMapper().
	WithMapping(domain.ErrDecode, http.StatusBadRequest, "body must be a flat JSON object").
	WithMapping(domain.ErrUnknownTopic, http.StatusNotFound, "unknown topic").
	WithMapping(auth.ErrMissingToken, http.StatusUnauthorized, "missing token").
	WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "invalid token")

// NewPublishHandler accepts POST /api/topics/:key/events and sends the body through
// the same store and broadcaster path as feed ingestion. A nil validator disables auth.
func NewPublishHandler(broadcastUC *usecase.BroadcastUseCase, validator auth.TokenValidator) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := normalizeTopicKey(c.Param("key"))

		subject := ""
		if validator != nil {
			claims, err := validator.Validate(auth.ExtractBearerToken(c.Request()))
			if err != nil {
				slog.Warn("publish http: auth failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
				return publishErrors.HTTPError(err)
			}
			subject = claims.Subject
		}

		raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPublishBody))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
		}
		record, err := domain.DecodeRecord(raw)
		if err != nil {
			slog.Warn("publish http: invalid body", slog.String("topic", key), slog.Any("error", err))
			return publishErrors.HTTPError(err)
		}
		if err := broadcastUC.Execute(c.Request().Context(), key, record); err != nil {
			slog.Warn("publish http: rejected", slog.String("topic", key), slog.Any("error", err))
			return publishErrors.HTTPError(err)
		}

		slog.Info("publish http: event accepted", slog.String("topic", key), slog.String("subject", subject))
		return c.JSON(http.StatusAccepted, PublishResponse{Success: true, Topic: key})
	}
}
