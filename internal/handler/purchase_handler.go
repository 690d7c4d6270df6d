package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/service"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// PurchaseHandler handles free-ticket purchases and paid checkouts
type PurchaseHandler struct {
	settlementService service.SettlementService
	checkoutService   service.CheckoutService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(settlementService service.SettlementService, checkoutService service.CheckoutService) *PurchaseHandler {
	return &PurchaseHandler{
		settlementService: settlementService,
		checkoutService:   checkoutService,
	}
}

// Purchase handles POST /events/:id/purchase — the free-ticket path,
// settled synchronously
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.purchase")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")

	var req dto.PurchaseRequest
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
		attribute.String("event_id", eventID),
		attribute.String("ticket_type", req.TicketType),
	)

	result, err := h.settlementService.Settle(ctx, &service.SettleInput{
		EventID:    eventID,
		TypeName:   req.TicketType,
		UserID:     req.UserID,
		GuestEmail: req.GuestEmail,
		GuestName:  req.GuestName,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("ticket_id", result.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// Checkout handles POST /events/:id/checkout — opens a hosted
// checkout session for a paid ticket type
func (h *PurchaseHandler) Checkout(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.checkout")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")

	var req dto.CheckoutRequest
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
		attribute.String("event_id", eventID),
		attribute.String("ticket_type", req.TicketType),
	)

	result, err := h.checkoutService.CreateSession(ctx, &service.CheckoutInput{
		EventID:    eventID,
		TypeName:   req.TicketType,
		UserID:     req.UserID,
		GuestEmail: req.GuestEmail,
		GuestName:  req.GuestName,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("session_id", result.SessionID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}
