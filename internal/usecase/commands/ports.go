package commands

import (
	"context"

	"sosiego-api/internal/domain/payment"
	"sosiego-api/internal/domain/reservation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Write-side ports. Declared here, next to the consumer, so infra depends on
// usecase and not the other way around.

// TxManager begins transactions; *pgxpool.Pool satisfies it.
type TxManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, res *reservation.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	// FindByIDForUpdate row-locks the reservation inside tx so a webhook and
	// the expiry sweep cannot interleave on the same record.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*reservation.Reservation, error)
	// UpdateState persists a state transition guarded by the status the
	// caller observed; returns false when another writer got there first.
	UpdateState(ctx context.Context, tx pgx.Tx, res *reservation.Reservation, expected reservation.Status) (bool, error)
	UpdateDetails(ctx context.Context, tx pgx.Tx, res *reservation.Reservation) error
	// AcquireSlotLock serializes all occupancy-creating writers for the
	// single bookable unit (transaction-scoped advisory lock).
	AcquireSlotLock(ctx context.Context, tx pgx.Tx) error
	CountOccupyingOverlaps(ctx context.Context, tx pgx.Tx, stay reservation.Stay, excludeID *uuid.UUID) (int64, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	// FindExpiredPendingIDs lists pending, unpaid reservations whose check-in
	// precedes today. IDs only: the sweep re-reads each row under its lock.
	FindExpiredPendingIDs(ctx context.Context, today reservation.Date) ([]uuid.UUID, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, p *payment.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	FindByExternalRef(ctx context.Context, externalRef string) (*payment.Payment, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*payment.Payment, error)
	Update(ctx context.Context, tx pgx.Tx, p *payment.Payment) error
}

// PaymentGateway is the narrow contract consumed from the payment provider.
// Any transport or auth failure surfaces as a single gateway error; retries
// belong to the HTTP caller, not here.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetPayment(ctx context.Context, externalPaymentID string) (*GatewayPayment, error)
	ChargeDirect(ctx context.Context, req DirectChargeRequest) (*GatewayPayment, error)
}

type CheckoutRequest struct {
	Title             string
	Description       string
	AmountCents       int64
	CurrencyID        string
	PayerName         string
	PayerEmail        string
	PayerPhone        string
	ExternalReference string
	SuccessPath       string
	FailurePath       string
	PendingPath       string
}

type CheckoutSession struct {
	PreferenceID     string
	InitPoint        string
	SandboxInitPoint string
}

type DirectChargeRequest struct {
	CardToken         string
	AmountCents       int64
	CurrencyID        string
	Description       string
	PayerEmail        string
	ExternalReference string
	Installments      int
}

type GatewayPayment struct {
	ID                string
	Status            reservation.GatewayStatus
	StatusDetail      string
	AmountCents       int64
	CurrencyID        string
	PaymentMethod     string
	PaymentType       string
	ExternalReference string
}

// EmailSender failures are logged and never veto a committed state
// transition.
type EmailSender interface {
	SendReservationConfirmed(ctx context.Context, data ConfirmationEmail) error
	SendPaymentReminder(ctx context.Context, data ReminderEmail) error
}

type ConfirmationEmail struct {
	To               string
	GuestName        string
	GuestPhone       string
	ConfirmationCode string
	CheckIn          string
	CheckOut         string
	Nights           int
	Guests           int
	TotalCents       int64
}

type ReminderEmail struct {
	To               string
	GuestName        string
	ConfirmationCode string
	TotalCents       int64
}
