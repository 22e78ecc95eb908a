package request

import (
	"strings"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/usecase/commands"
)

type CreateReservationRequest struct {
	CheckIn         string  `json:"checkIn" binding:"required"`
	CheckOut        string  `json:"checkOut" binding:"required"`
	Guests          int     `json:"guests" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email" binding:"required"`
	Phone           string  `json:"phone" binding:"required"`
	TotalPriceCents int64   `json:"totalPriceCents"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

func (r CreateReservationRequest) ToParams() (commands.CreateReservationParams, error) {
	checkIn, err := reservation.ParseDate(r.CheckIn)
	if err != nil {
		return commands.CreateReservationParams{}, err
	}
	checkOut, err := reservation.ParseDate(r.CheckOut)
	if err != nil {
		return commands.CreateReservationParams{}, err
	}
	return commands.CreateReservationParams{
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          r.Guests,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		TotalPriceCents: r.TotalPriceCents,
		SpecialRequests: trimPtr(r.SpecialRequests),
	}, nil
}

type UpdateReservationRequest struct {
	CheckIn         *string `json:"checkIn,omitempty"`
	CheckOut        *string `json:"checkOut,omitempty"`
	Guests          *int    `json:"guests,omitempty"`
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	TotalPriceCents *int64  `json:"totalPriceCents,omitempty"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

func (r UpdateReservationRequest) ToParams() (commands.UpdateReservationParams, error) {
	params := commands.UpdateReservationParams{
		Guests:          r.Guests,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		TotalPriceCents: r.TotalPriceCents,
		SpecialRequests: trimPtr(r.SpecialRequests),
		Notes:           trimPtr(r.Notes),
	}
	if r.CheckIn != nil {
		d, err := reservation.ParseDate(*r.CheckIn)
		if err != nil {
			return commands.UpdateReservationParams{}, err
		}
		params.CheckIn = &d
	}
	if r.CheckOut != nil {
		d, err := reservation.ParseDate(*r.CheckOut)
		if err != nil {
			return commands.UpdateReservationParams{}, err
		}
		params.CheckOut = &d
	}
	return params, nil
}

type CheckAvailabilityRequest struct {
	CheckIn  string `json:"checkIn" binding:"required"`
	CheckOut string `json:"checkOut" binding:"required"`
}

func (r CheckAvailabilityRequest) ToStay() (reservation.Stay, error) {
	checkIn, err := reservation.ParseDate(r.CheckIn)
	if err != nil {
		return reservation.Stay{}, err
	}
	checkOut, err := reservation.ParseDate(r.CheckOut)
	if err != nil {
		return reservation.Stay{}, err
	}
	return reservation.NewStay(checkIn, checkOut)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
