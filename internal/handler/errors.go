package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
)

// handleError maps domain errors onto HTTP status codes. The closed
// set of outcome variants keeps store internals from leaking to
// callers.
func handleError(c *gin.Context, err error) {
	var usedErr *domain.AlreadyUsedError

	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrTicketTypeNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "TICKET_TYPE_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "TICKET_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrGuestNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "GUEST_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrSoldOut):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "SOLD_OUT",
		})
	case errors.Is(err, domain.ErrWrongEvent):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "WRONG_EVENT",
			Message: "This ticket belongs to a different event",
		})
	case errors.As(err, &usedErr):
		c.JSON(http.StatusGone, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "ALREADY_USED",
			Message: "First admitted at " + usedErr.ScannedAt.Format(time.RFC3339),
		})
	case errors.Is(err, domain.ErrNotFree), errors.Is(err, domain.ErrPaymentFree):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "PAYMENT_REQUIRED_MISMATCH",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
