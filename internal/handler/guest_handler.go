package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/service"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// GuestHandler handles guest profile read requests
type GuestHandler struct {
	guestService service.GuestService
}

// NewGuestHandler creates a new guest handler
func NewGuestHandler(guestService service.GuestService) *GuestHandler {
	return &GuestHandler{guestService: guestService}
}

// GetProfile handles GET /guests/:email
func (h *GuestHandler) GetProfile(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.guest.get_profile")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	email := c.Param("email")
	span.SetAttributes(attribute.String("email", email))

	result, err := h.guestService.GetProfile(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}
