package payment

import (
	"errors"
	"time"

	"sosiego-api/internal/domain/reservation"

	"github.com/google/uuid"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrMissingCurrency   = errors.New("currency is required")
)

// Draft carries reservation details captured before payment approval. It lives
// inside the payment record's transaction details and is promoted to a real
// reservation only when the gateway reports approved.
type Draft struct {
	CheckIn         string  `json:"checkIn"`
	CheckOut        string  `json:"checkOut"`
	Guests          int     `json:"guests"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	TotalPriceCents int64   `json:"totalPriceCents"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

// TransactionDetails is the free-form blob persisted with a payment. The
// preference fields recover checkout context; Draft recovers the reservation
// when it is created only after the charge succeeds.
type TransactionDetails struct {
	PreferenceID string `json:"preferenceId,omitempty"`
	InitPoint    string `json:"initPoint,omitempty"`
	Draft        *Draft `json:"draft,omitempty"`
}

type Payment struct {
	id            uuid.UUID
	amountCents   int64
	currency      string
	status        reservation.GatewayStatus
	externalRef   *string
	reservationID *uuid.UUID
	details       TransactionDetails
	createdAt     time.Time
	updatedAt     time.Time
}

func NewPayment(
	amountCents int64,
	currency string,
	reservationID *uuid.UUID,
	details TransactionDetails,
) (*Payment, error) {
	if amountCents <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if currency == "" {
		return nil, ErrMissingCurrency
	}
	return &Payment{
		id:            uuid.New(),
		amountCents:   amountCents,
		currency:      currency,
		status:        reservation.GatewayPending,
		reservationID: reservationID,
		details:       details,
	}, nil
}

func ReconstructPayment(
	id uuid.UUID,
	amountCents int64,
	currency string,
	status reservation.GatewayStatus,
	externalRef *string,
	reservationID *uuid.UUID,
	details TransactionDetails,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:            id,
		amountCents:   amountCents,
		currency:      currency,
		status:        status,
		externalRef:   externalRef,
		reservationID: reservationID,
		details:       details,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// RecordGatewayStatus stores the gateway-reported status. Approved is sticky:
// a late rejected/in_process delivery never downgrades it. Returns whether the
// record changed, which doubles as the replay detector.
func (p *Payment) RecordGatewayStatus(gs reservation.GatewayStatus, externalRef string) bool {
	if p.status == gs && p.externalRef != nil && *p.externalRef == externalRef {
		return false
	}
	if p.status == reservation.GatewayApproved && gs != reservation.GatewayApproved {
		return false
	}
	p.status = gs
	p.externalRef = &externalRef
	return true
}

func (p *Payment) AttachReservation(id uuid.UUID) {
	p.reservationID = &id
}

func (p *Payment) SetExternalRef(ref string) {
	p.externalRef = &ref
}

func (p *Payment) ID() uuid.UUID                          { return p.id }
func (p *Payment) AmountCents() int64                     { return p.amountCents }
func (p *Payment) Currency() string                       { return p.currency }
func (p *Payment) Status() reservation.GatewayStatus      { return p.status }
func (p *Payment) ExternalRef() *string                   { return p.externalRef }
func (p *Payment) ReservationID() *uuid.UUID              { return p.reservationID }
func (p *Payment) Details() TransactionDetails            { return p.details }
func (p *Payment) Draft() *Draft                          { return p.details.Draft }
func (p *Payment) CreatedAt() time.Time                   { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time                   { return p.updatedAt }
