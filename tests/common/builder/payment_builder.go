//go:build unit || e2e

package builder

import (
	"time"

	dompayment "sosiego-api/internal/domain/payment"
	domreservation "sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"github.com/google/uuid"
)

type PaymentBuilder struct {
	AmountCents       int64
	Currency          string
	Status            domreservation.GatewayStatus
	ExternalRef       *string
	ReservationID     *uuid.UUID
	Details           dompayment.TransactionDetails
	ExternalPaymentID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewPaymentBuilder() *PaymentBuilder {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	return &PaymentBuilder{
		AmountCents:       13500000,
		Currency:          "ARS",
		Status:            domreservation.GatewayPending,
		ExternalPaymentID: "118734251977",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (p *PaymentBuilder) With(mutate func(*PaymentBuilder)) *PaymentBuilder {
	mutate(p)
	return p
}

// Build methods

func (p *PaymentBuilder) BuildDomain() (*dompayment.Payment, error) {
	return dompayment.NewPayment(p.AmountCents, p.Currency, p.ReservationID, p.Details)
}

func (p *PaymentBuilder) BuildReconstructed() *dompayment.Payment {
	return dompayment.ReconstructPayment(
		uuid.New(), p.AmountCents, p.Currency, p.Status,
		p.ExternalRef, p.ReservationID, p.Details,
		p.CreatedAt, p.UpdatedAt,
	)
}

// BuildGatewayPayment is what the gateway reports back for this payment with
// the given status. The external reference defaults to the reservation ID when
// one is attached, matching how checkouts are created.
func (p *PaymentBuilder) BuildGatewayPayment(status domreservation.GatewayStatus, externalReference string) *commands.GatewayPayment {
	return &commands.GatewayPayment{
		ID:                p.ExternalPaymentID,
		Status:            status,
		StatusDetail:      "accredited",
		AmountCents:       p.AmountCents,
		CurrencyID:        p.Currency,
		PaymentMethod:     "visa",
		PaymentType:       "credit_card",
		ExternalReference: externalReference,
	}
}

func (p *PaymentBuilder) BuildView() *queries.PaymentView {
	return &queries.PaymentView{
		ID:            uuid.New(),
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Status:        string(p.Status),
		ExternalRef:   p.ExternalRef,
		ReservationID: p.ReservationID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Fluent builder methods

func (p *PaymentBuilder) WithAmountCents(cents int64) *PaymentBuilder {
	p.AmountCents = cents
	return p
}

func (p *PaymentBuilder) WithCurrency(currency string) *PaymentBuilder {
	p.Currency = currency
	return p
}

func (p *PaymentBuilder) WithStatus(status domreservation.GatewayStatus) *PaymentBuilder {
	p.Status = status
	return p
}

func (p *PaymentBuilder) WithExternalRef(ref string) *PaymentBuilder {
	p.ExternalRef = &ref
	return p
}

func (p *PaymentBuilder) WithReservationID(id uuid.UUID) *PaymentBuilder {
	p.ReservationID = &id
	return p
}

func (p *PaymentBuilder) WithDraft(draft dompayment.Draft) *PaymentBuilder {
	p.Details.Draft = &draft
	return p
}

func (p *PaymentBuilder) WithPreference(preferenceID, initPoint string) *PaymentBuilder {
	p.Details.PreferenceID = preferenceID
	p.Details.InitPoint = initPoint
	return p
}
