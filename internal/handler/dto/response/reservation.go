package response

import (
	"time"

	"sosiego-api/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID               uuid.UUID `json:"id"`
	CheckIn          string    `json:"checkIn"`
	CheckOut         string    `json:"checkOut"`
	Guests           int       `json:"guests"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	TotalPriceCents  int64     `json:"totalPriceCents"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"paymentStatus"`
	ConfirmationCode string    `json:"confirmationCode,omitempty"`
	ExternalRef      *string   `json:"externalRef,omitempty"`
	SpecialRequests  *string   `json:"specialRequests,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

const dateLayout = "2006-01-02"

func FromReservationView(rm *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:               rm.ID,
		CheckIn:          rm.CheckIn.Format(dateLayout),
		CheckOut:         rm.CheckOut.Format(dateLayout),
		Guests:           rm.Guests,
		Name:             rm.Name,
		Email:            rm.Email,
		Phone:            rm.Phone,
		TotalPriceCents:  rm.TotalPriceCents,
		Status:           rm.Status,
		PaymentStatus:    rm.PaymentStatus,
		ConfirmationCode: rm.ConfirmationCode,
		ExternalRef:      rm.ExternalRef,
		SpecialRequests:  rm.SpecialRequests,
		Notes:            rm.Notes,
		CreatedAt:        rm.CreatedAt,
		UpdatedAt:        rm.UpdatedAt,
	}
}

func FromReservationViews(rms []*queries.ReservationView) []*ReservationResponse {
	out := make([]*ReservationResponse, len(rms))
	for i, rm := range rms {
		out[i] = FromReservationView(rm)
	}
	return out
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
}

type CalendarDayResponse struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

type CalendarResponse struct {
	Year  int                   `json:"year"`
	Month int                   `json:"month"`
	Days  []CalendarDayResponse `json:"days"`
}

func FromCalendar(year, month int, days []queries.CalendarDay) *CalendarResponse {
	out := make([]CalendarDayResponse, len(days))
	for i, d := range days {
		out[i] = CalendarDayResponse{Date: d.Date, Available: d.Available}
	}
	return &CalendarResponse{Year: year, Month: month, Days: out}
}

type StatsResponse struct {
	TotalReservations     int64   `json:"totalReservations"`
	ConfirmedReservations int64   `json:"confirmedReservations"`
	PendingPayments       int64   `json:"pendingPayments"`
	PaidReservations      int64   `json:"paidReservations"`
	ConversionRate        float64 `json:"conversionRate"`
}

func FromStats(s *queries.ReservationStats) *StatsResponse {
	return &StatsResponse{
		TotalReservations:     s.TotalReservations,
		ConfirmedReservations: s.ConfirmedReservations,
		PendingPayments:       s.PendingPayments,
		PaidReservations:      s.PaidReservations,
		ConversionRate:        s.ConversionRate,
	}
}

type SweepResponse struct {
	CancelledCount int `json:"cancelledCount"`
}
