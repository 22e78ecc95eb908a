package request

import (
	"sosiego-api/internal/domain/payment"

	"github.com/google/uuid"
)

// ReservationDraft mirrors the reservation fields when checkout happens
// before the reservation exists.
type ReservationDraft struct {
	CheckIn         string  `json:"checkIn" binding:"required"`
	CheckOut        string  `json:"checkOut" binding:"required"`
	Guests          int     `json:"guests" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email" binding:"required"`
	Phone           string  `json:"phone" binding:"required"`
	TotalPriceCents int64   `json:"totalPriceCents" binding:"required"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

func (d ReservationDraft) ToDomain() payment.Draft {
	return payment.Draft{
		CheckIn:         d.CheckIn,
		CheckOut:        d.CheckOut,
		Guests:          d.Guests,
		Name:            d.Name,
		Email:           d.Email,
		Phone:           d.Phone,
		TotalPriceCents: d.TotalPriceCents,
		SpecialRequests: trimPtr(d.SpecialRequests),
	}
}

type CreatePreferenceRequest struct {
	ReservationID *uuid.UUID        `json:"reservationId,omitempty"`
	Reservation   *ReservationDraft `json:"reservation,omitempty"`
}

type ProcessPaymentRequest struct {
	CardToken     string            `json:"token" binding:"required"`
	Installments  int               `json:"installments"`
	PayerEmail    string            `json:"payerEmail" binding:"required"`
	ReservationID *uuid.UUID        `json:"reservationId,omitempty"`
	Reservation   *ReservationDraft `json:"reservation,omitempty"`
}

// WebhookRequest is Mercado Pago's notification body. The same fields may
// arrive as query parameters instead; the handler merges both.
type WebhookRequest struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}
