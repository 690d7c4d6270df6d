package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/pkg/middleware"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// StationHandler mints scan-station tokens. A token binds the station
// to exactly one event; scans through it can only admit that event.
type StationHandler struct {
	jwtSecret string
	tokenTTL  time.Duration
}

// NewStationHandler creates a new station handler
func NewStationHandler(jwtSecret string, tokenTTL time.Duration) *StationHandler {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &StationHandler{jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// IssueToken handles POST /admin/stations/token
func (h *StationHandler) IssueToken(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.station.issue_token")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.StationTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("station_id", req.StationID),
		attribute.String("event_id", req.EventID),
	)

	token, err := middleware.IssueStationToken(h.jwtSecret, req.StationID, req.EventID, h.tokenTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "failed to issue token",
			Code:  "TOKEN_ISSUE_FAILED",
		})
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, dto.StationTokenResponse{
		Token:     token,
		ExpiresIn: int64(h.tokenTTL.Seconds()),
	})
}
