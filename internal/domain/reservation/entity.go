package reservation

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinGuests = 1
	MaxGuests = 8
)

var (
	ErrGuestsOutOfRange  = errors.New("guests must be between 1 and 8")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrEmptyContactField = errors.New("name, email and phone are required")
	ErrNonPositivePrice  = errors.New("total price must be greater than zero")
	ErrInvalidStatus     = errors.New("invalid reservation status")
	ErrIllegalTransition = errors.New("illegal state transition")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Reservation struct {
	id               uuid.UUID
	stay             Stay
	guests           int
	name             string
	email            string
	phone            string
	totalPriceCents  int64
	status           Status
	paymentStatus    PaymentStatus
	confirmationCode string
	externalRef      *string
	specialRequests  *string
	notes            *string
	createdAt        time.Time
	updatedAt        time.Time
}

// NewReservation validates a draft and produces a pending reservation. The
// confirmation code is issued by the caller, which may re-roll it on an
// observed duplicate. today is the caller's day-normalized clock.
func NewReservation(
	today Date,
	stay Stay,
	guests int,
	name, email, phone string,
	totalPriceCents int64,
	confirmationCode string,
	specialRequests *string,
) (*Reservation, error) {
	if stay.CheckIn().Before(today) {
		return nil, ErrPastCheckIn
	}
	if err := validateGuestFields(guests, &name, &email, &phone, totalPriceCents); err != nil {
		return nil, err
	}

	return &Reservation{
		id:               uuid.New(),
		stay:             stay,
		guests:           guests,
		name:             name,
		email:            email,
		phone:            phone,
		totalPriceCents:  totalPriceCents,
		status:           StatusPending,
		paymentStatus:    PaymentPending,
		confirmationCode: confirmationCode,
		specialRequests:  specialRequests,
	}, nil
}

// NewPaidReservation materializes a reservation for a charge the gateway has
// already approved (draft promotion). It starts confirmed/paid, and a past
// check-in is tolerated: the money is taken, rejecting the record would only
// lose the booking.
func NewPaidReservation(
	stay Stay,
	guests int,
	name, email, phone string,
	totalPriceCents int64,
	confirmationCode string,
	specialRequests *string,
) (*Reservation, error) {
	if err := validateGuestFields(guests, &name, &email, &phone, totalPriceCents); err != nil {
		return nil, err
	}

	return &Reservation{
		id:               uuid.New(),
		stay:             stay,
		guests:           guests,
		name:             name,
		email:            email,
		phone:            phone,
		totalPriceCents:  totalPriceCents,
		status:           StatusConfirmed,
		paymentStatus:    PaymentPaid,
		confirmationCode: confirmationCode,
		specialRequests:  specialRequests,
	}, nil
}

func validateGuestFields(guests int, name, email, phone *string, totalPriceCents int64) error {
	if guests < MinGuests || guests > MaxGuests {
		return ErrGuestsOutOfRange
	}
	*name = strings.TrimSpace(*name)
	*email = strings.TrimSpace(*email)
	*phone = strings.TrimSpace(*phone)
	if *name == "" || *email == "" || *phone == "" {
		return ErrEmptyContactField
	}
	if !emailPattern.MatchString(*email) {
		return ErrInvalidEmail
	}
	if totalPriceCents <= 0 {
		return ErrNonPositivePrice
	}
	return nil
}

func ReconstructReservation(
	id uuid.UUID,
	stay Stay,
	guests int,
	name, email, phone string,
	totalPriceCents int64,
	status Status,
	paymentStatus PaymentStatus,
	confirmationCode string,
	externalRef *string,
	specialRequests, notes *string,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:               id,
		stay:             stay,
		guests:           guests,
		name:             name,
		email:            email,
		phone:            phone,
		totalPriceCents:  totalPriceCents,
		status:           status,
		paymentStatus:    paymentStatus,
		confirmationCode: confirmationCode,
		externalRef:      externalRef,
		specialRequests:  specialRequests,
		notes:            notes,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// ApplyGatewayStatus drives the payment-side state machine. It returns whether
// any state changed; replays of an already-applied status report no change and
// no error. A notification that cannot legally apply (e.g. approved after
// cancelled) returns ErrIllegalTransition and leaves the state untouched,
// because gateway deliveries are neither ordered nor deduplicated.
func (r *Reservation) ApplyGatewayStatus(gs GatewayStatus) (bool, error) {
	switch gs {
	case GatewayApproved:
		if r.status == StatusPending {
			r.status = StatusConfirmed
			r.paymentStatus = PaymentPaid
			return true, nil
		}
		if r.status.IsOccupying() && r.paymentStatus == PaymentPaid {
			return false, nil // replay
		}
		return false, ErrIllegalTransition

	case GatewayRejected, GatewayCancelled:
		if r.status == StatusPending {
			r.status = StatusCancelled
			r.paymentStatus = PaymentFailed
			return true, nil
		}
		if r.status == StatusCancelled && r.paymentStatus == PaymentFailed {
			return false, nil // replay
		}
		return false, ErrIllegalTransition

	case GatewayInProcess:
		if r.status == StatusPending {
			if r.paymentStatus == PaymentProcessing {
				return false, nil // replay
			}
			r.paymentStatus = PaymentProcessing
			return true, nil
		}
		return false, ErrIllegalTransition

	default:
		// "pending" and unknown gateway statuses change nothing
		return false, nil
	}
}

// ExpireIfDue cancels a still-unpaid reservation whose check-in day has
// passed. Reservations with a payment in flight are left alone.
func (r *Reservation) ExpireIfDue(today Date) bool {
	if r.status != StatusPending || r.paymentStatus != PaymentPending {
		return false
	}
	if !r.stay.CheckIn().Before(today) {
		return false
	}
	r.status = StatusCancelled
	note := "Cancelada automáticamente por expiración - " + today.String()
	r.notes = &note
	return true
}

// MarkPaid moves an occupying reservation to paid (e.g. balance settled at
// check-in). Only legal from confirmed.
func (r *Reservation) MarkPaid() error {
	if r.status != StatusConfirmed {
		return ErrIllegalTransition
	}
	r.status = StatusPaid
	return nil
}

// Complete closes out a paid stay.
func (r *Reservation) Complete() error {
	if r.status != StatusPaid {
		return ErrIllegalTransition
	}
	r.status = StatusCompleted
	return nil
}

// Revise replaces the mutable guest-facing fields, re-running the same
// validations as creation. Status fields are untouched; date conflicts are
// the caller's concern (checked against other reservations, not this one).
func (r *Reservation) Revise(
	today Date,
	stay Stay,
	guests int,
	name, email, phone string,
	totalPriceCents int64,
	specialRequests, notes *string,
) error {
	datesChanged := !stay.CheckIn().Equal(r.stay.CheckIn()) || !stay.CheckOut().Equal(r.stay.CheckOut())
	if datesChanged && stay.CheckIn().Before(today) {
		return ErrPastCheckIn
	}
	if err := validateGuestFields(guests, &name, &email, &phone, totalPriceCents); err != nil {
		return err
	}

	r.stay = stay
	r.guests = guests
	r.name = name
	r.email = email
	r.phone = phone
	r.totalPriceCents = totalPriceCents
	r.specialRequests = specialRequests
	r.notes = notes
	return nil
}

func (r *Reservation) SetExternalRef(ref string) {
	r.externalRef = &ref
}

// BackfillConfirmationCode issues a code for a record that is missing one.
// Existing codes are never reassigned.
func (r *Reservation) BackfillConfirmationCode(now time.Time) bool {
	if r.confirmationCode != "" {
		return false
	}
	r.confirmationCode = GenerateConfirmationCode(now)
	return true
}

func (r *Reservation) IsOccupying() bool {
	return r.status.IsOccupying()
}

func (r *Reservation) ID() uuid.UUID            { return r.id }
func (r *Reservation) Stay() Stay               { return r.stay }
func (r *Reservation) Guests() int              { return r.guests }
func (r *Reservation) Name() string             { return r.name }
func (r *Reservation) Email() string            { return r.email }
func (r *Reservation) Phone() string            { return r.phone }
func (r *Reservation) TotalPriceCents() int64   { return r.totalPriceCents }
func (r *Reservation) Status() Status           { return r.status }
func (r *Reservation) PaymentStatus() PaymentStatus { return r.paymentStatus }
func (r *Reservation) ConfirmationCode() string { return r.confirmationCode }
func (r *Reservation) ExternalRef() *string     { return r.externalRef }
func (r *Reservation) SpecialRequests() *string { return r.specialRequests }
func (r *Reservation) Notes() *string           { return r.notes }
func (r *Reservation) CreatedAt() time.Time     { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time     { return r.updatedAt }
