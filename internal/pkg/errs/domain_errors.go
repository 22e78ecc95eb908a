package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrDatesConflict       = errors.New("dates conflict with an existing reservation")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrPastCheckIn         = errors.New("check-in date is in the past")

	// Payment errors
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrAlreadyPaid        = errors.New("reservation already paid")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
