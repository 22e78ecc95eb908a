package response

import (
	"time"

	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"github.com/google/uuid"
)

type PreferenceResponse struct {
	PaymentID        uuid.UUID `json:"paymentId"`
	PreferenceID     string    `json:"preferenceId"`
	InitPoint        string    `json:"initPoint"`
	SandboxInitPoint string    `json:"sandboxInitPoint,omitempty"`
	PublicKey        string    `json:"publicKey"`
}

func FromPreferenceResult(r *commands.PreferenceResult) *PreferenceResponse {
	return &PreferenceResponse{
		PaymentID:        r.PaymentID,
		PreferenceID:     r.PreferenceID,
		InitPoint:        r.InitPoint,
		SandboxInitPoint: r.SandboxInitPoint,
		PublicKey:        r.PublicKey,
	}
}

type ChargeResponse struct {
	PaymentID         uuid.UUID `json:"paymentId"`
	ExternalPaymentID string    `json:"externalPaymentId"`
	Status            string    `json:"status"`
	StatusDetail      string    `json:"statusDetail,omitempty"`
}

func FromChargeResult(r *commands.ChargeResult) *ChargeResponse {
	return &ChargeResponse{
		PaymentID:         r.PaymentID,
		ExternalPaymentID: r.ExternalPaymentID,
		Status:            string(r.Status),
		StatusDetail:      r.StatusDetail,
	}
}

type PaymentStatusResponse struct {
	ID            uuid.UUID  `json:"id"`
	AmountCents   int64      `json:"amountCents"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	ExternalRef   *string    `json:"externalRef,omitempty"`
	ReservationID *uuid.UUID `json:"reservationId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func FromPaymentView(pm *queries.PaymentView) *PaymentStatusResponse {
	return &PaymentStatusResponse{
		ID:            pm.ID,
		AmountCents:   pm.AmountCents,
		Currency:      pm.Currency,
		Status:        pm.Status,
		ExternalRef:   pm.ExternalRef,
		ReservationID: pm.ReservationID,
		CreatedAt:     pm.CreatedAt,
		UpdatedAt:     pm.UpdatedAt,
	}
}
