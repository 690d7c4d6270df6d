package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/service"
	"github.com/eventease/ticketing/pkg/middleware"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// ScanHandler handles door-station ticket scans. The station's bound
// event comes from its auth token, never from the request body.
type ScanHandler struct {
	redemptionService service.RedemptionService
}

// NewScanHandler creates a new scan handler
func NewScanHandler(redemptionService service.RedemptionService) *ScanHandler {
	return &ScanHandler{redemptionService: redemptionService}
}

// Scan handles POST /scan
func (h *ScanHandler) Scan(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.scan.scan")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	stationEventID, ok := middleware.GetStationEventID(c)
	if !ok || stationEventID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	var req dto.ScanRequest
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
		attribute.String("ticket_id", req.TicketID),
		attribute.String("event_id", stationEventID),
	)

	result, err := h.redemptionService.Redeem(ctx, req.TicketID, stationEventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}
