package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/service"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// WebhookHandler receives asynchronous payment confirmations. The
// gateway may deliver the same confirmation more than once; the
// settlement dedups by session id, so a replay returns 200 with the
// previously issued ticket.
type WebhookHandler struct {
	payments          gateway.PaymentGateway
	settlementService service.SettlementService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(payments gateway.PaymentGateway, settlementService service.SettlementService) *WebhookHandler {
	return &WebhookHandler{
		payments:          payments,
		settlementService: settlementService,
	}
}

// HandlePayment handles POST /webhooks/payment
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.webhook.payment")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreadable body")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "unreadable body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	confirmed, err := h.payments.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "signature verification failed")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "signature verification failed",
			Code:  "INVALID_SIGNATURE",
		})
		return
	}
	if confirmed == nil {
		// Event type the core does not settle on; acknowledge it
		span.SetStatus(codes.Ok, "")
		c.Status(http.StatusOK)
		return
	}

	span.SetAttributes(
		attribute.String("session_id", confirmed.SessionID),
		attribute.String("event_id", confirmed.EventID),
	)

	result, err := h.settlementService.Settle(ctx, &service.SettleInput{
		EventID:    confirmed.EventID,
		TypeName:   confirmed.TypeName,
		UserID:     confirmed.UserID,
		GuestEmail: confirmed.GuestEmail,
		GuestName:  confirmed.GuestName,
		SessionID:  confirmed.SessionID,
	})
	if err != nil {
		span.RecordError(err)
		// A definitive business failure must not be redelivered
		// forever: the gateway retries anything but 2xx for days, so
		// terminal rejections are recorded and acknowledged with 200.
		// Transient failures keep the 5xx so the gateway retries.
		if domain.IsNotFoundError(err) || domain.IsValidationError(err) || domain.IsConflictError(err) {
			span.SetStatus(codes.Ok, "settlement rejected")
			c.JSON(http.StatusOK, dto.ErrorResponse{
				Error: err.Error(),
				Code:  "SETTLEMENT_REJECTED",
			})
			return
		}
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("ticket_id", result.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}
