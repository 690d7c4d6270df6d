package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	// Not-found errors
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrGuestNotFound      = errors.New("guest not found")

	// Business-rule rejections
	ErrSoldOut     = errors.New("ticket type is sold out")
	ErrWrongEvent  = errors.New("ticket does not admit to this event")
	ErrAlreadyUsed = errors.New("ticket already used")
	ErrNotFree     = errors.New("ticket type requires payment")
	ErrPaymentFree = errors.New("free ticket type has no checkout session")

	// Validation errors
	ErrInvalidEventID        = errors.New("invalid event id")
	ErrInvalidTicketID       = errors.New("invalid ticket id")
	ErrInvalidTenantID       = errors.New("invalid tenant id")
	ErrInvalidEventName      = errors.New("invalid event name")
	ErrInvalidTicketTypeName = errors.New("invalid ticket type name")
	ErrDuplicateTicketType   = errors.New("duplicate ticket type name")
	ErrNoTicketTypes         = errors.New("event must have at least one ticket type")
	ErrInvalidPrice          = errors.New("price cannot be negative")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidGuestLimit     = errors.New("guest limit cannot be negative")
	ErrMissingBuyer          = errors.New("buyer identity is required")
	ErrInvalidGuestEmail     = errors.New("guest email is required")
)

// AlreadyUsedError carries the original admission timestamp so door
// staff can see when the ticket was first scanned.
type AlreadyUsedError struct {
	ScannedAt time.Time
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("ticket already used at %s", e.ScannedAt.Format(time.RFC3339))
}

func (e *AlreadyUsedError) Is(target error) bool {
	return target == ErrAlreadyUsed
}

// NewAlreadyUsedError returns an ErrAlreadyUsed carrying the first scan time
func NewAlreadyUsedError(scannedAt time.Time) error {
	return &AlreadyUsedError{ScannedAt: scannedAt}
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrTicketTypeNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrGuestNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidTicketID) ||
		errors.Is(err, ErrInvalidTenantID) ||
		errors.Is(err, ErrInvalidEventName) ||
		errors.Is(err, ErrInvalidTicketTypeName) ||
		errors.Is(err, ErrDuplicateTicketType) ||
		errors.Is(err, ErrNoTicketTypes) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidGuestLimit) ||
		errors.Is(err, ErrMissingBuyer) ||
		errors.Is(err, ErrInvalidGuestEmail)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSoldOut) ||
		errors.Is(err, ErrWrongEvent) ||
		errors.Is(err, ErrNotFree) ||
		errors.Is(err, ErrPaymentFree)
}
