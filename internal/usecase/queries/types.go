package queries

import (
	"time"

	"github.com/google/uuid"
)

type ReservationView struct {
	ID               uuid.UUID
	CheckIn          time.Time
	CheckOut         time.Time
	Guests           int
	Name             string
	Email            string
	Phone            string
	TotalPriceCents  int64
	Status           string
	PaymentStatus    string
	ConfirmationCode string
	ExternalRef      *string
	SpecialRequests  *string
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StaySpan is the minimal projection used by availability checks: the
// half-open [CheckIn, CheckOut) of one occupying reservation.
type StaySpan struct {
	ID       uuid.UUID
	CheckIn  time.Time
	CheckOut time.Time
}

type CalendarDay struct {
	Date      string
	Available bool
}

type ReservationStats struct {
	TotalReservations     int64
	ConfirmedReservations int64
	PendingPayments       int64
	PaidReservations      int64
	ConversionRate        float64
}

type PaymentView struct {
	ID            uuid.UUID
	AmountCents   int64
	Currency      string
	Status        string
	ExternalRef   *string
	ReservationID *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
