//go:build unit || e2e

package builder

import (
	"time"

	dompayment "sosiego-api/internal/domain/payment"
	domreservation "sosiego-api/internal/domain/reservation"
	reqdto "sosiego-api/internal/handler/dto/request"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"github.com/google/uuid"
)

// ReservationBuilder produces reservation fixtures at every layer from one set
// of defaults. Dates are fixed absolutes: the domain never reads the wall
// clock, it receives "today" explicitly, so fixtures stay deterministic.
type ReservationBuilder struct {
	Today            domreservation.Date
	CheckIn          string
	CheckOut         string
	Guests           int
	Name             string
	Email            string
	Phone            string
	TotalPriceCents  int64
	ConfirmationCode string
	Status           domreservation.Status
	PaymentStatus    domreservation.PaymentStatus
	SpecialRequests  *string
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	return &ReservationBuilder{
		Today:            domreservation.NewDate(2026, time.September, 1),
		CheckIn:          "2026-09-10",
		CheckOut:         "2026-09-13",
		Guests:           2,
		Name:             "María González",
		Email:            "maria@example.com",
		Phone:            "+54 9 11 5555-1234",
		TotalPriceCents:  13500000,
		ConfirmationCode: "CC12345678ABCD",
		Status:           domreservation.StatusPending,
		PaymentStatus:    domreservation.PaymentPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (r *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(r)
	return r
}

// Build methods

func (r *ReservationBuilder) BuildStay() (domreservation.Stay, error) {
	checkIn, err := domreservation.ParseDate(r.CheckIn)
	if err != nil {
		return domreservation.Stay{}, err
	}
	checkOut, err := domreservation.ParseDate(r.CheckOut)
	if err != nil {
		return domreservation.Stay{}, err
	}
	return domreservation.NewStay(checkIn, checkOut)
}

func (r *ReservationBuilder) BuildDomain() (*domreservation.Reservation, error) {
	stay, err := r.BuildStay()
	if err != nil {
		return nil, err
	}
	return domreservation.NewReservation(
		r.Today, stay, r.Guests,
		r.Name, r.Email, r.Phone,
		r.TotalPriceCents, r.ConfirmationCode, r.SpecialRequests,
	)
}

func (r *ReservationBuilder) BuildPaidDomain() (*domreservation.Reservation, error) {
	stay, err := r.BuildStay()
	if err != nil {
		return nil, err
	}
	return domreservation.NewPaidReservation(
		stay, r.Guests,
		r.Name, r.Email, r.Phone,
		r.TotalPriceCents, r.ConfirmationCode, r.SpecialRequests,
	)
}

// BuildReconstructed materializes a reservation in an arbitrary state, the way
// the repository does when scanning a row. Panics on malformed builder dates.
func (r *ReservationBuilder) BuildReconstructed() *domreservation.Reservation {
	stay, err := r.BuildStay()
	if err != nil {
		panic(err)
	}
	return domreservation.ReconstructReservation(
		uuid.New(), stay, r.Guests,
		r.Name, r.Email, r.Phone,
		r.TotalPriceCents, r.Status, r.PaymentStatus,
		r.ConfirmationCode, nil, r.SpecialRequests, r.Notes,
		r.CreatedAt, r.UpdatedAt,
	)
}

func (r *ReservationBuilder) BuildView() *queries.ReservationView {
	checkIn, _ := time.Parse("2006-01-02", r.CheckIn)
	checkOut, _ := time.Parse("2006-01-02", r.CheckOut)
	return &queries.ReservationView{
		ID:               uuid.New(),
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Guests:           r.Guests,
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		TotalPriceCents:  r.TotalPriceCents,
		Status:           r.Status.String(),
		PaymentStatus:    r.PaymentStatus.String(),
		ConfirmationCode: r.ConfirmationCode,
		SpecialRequests:  r.SpecialRequests,
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (r *ReservationBuilder) BuildCreateRequestDTO() reqdto.CreateReservationRequest {
	return reqdto.CreateReservationRequest{
		CheckIn:         r.CheckIn,
		CheckOut:        r.CheckOut,
		Guests:          r.Guests,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		TotalPriceCents: r.TotalPriceCents,
		SpecialRequests: r.SpecialRequests,
	}
}

// BuildCreateParams panics on malformed builder dates; command-layer tests
// always start from parseable fixtures.
func (r *ReservationBuilder) BuildCreateParams() commands.CreateReservationParams {
	checkIn, err := domreservation.ParseDate(r.CheckIn)
	if err != nil {
		panic(err)
	}
	checkOut, err := domreservation.ParseDate(r.CheckOut)
	if err != nil {
		panic(err)
	}
	return commands.CreateReservationParams{
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          r.Guests,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		TotalPriceCents: r.TotalPriceCents,
		SpecialRequests: r.SpecialRequests,
	}
}

func (r *ReservationBuilder) BuildDraft() dompayment.Draft {
	return dompayment.Draft{
		CheckIn:         r.CheckIn,
		CheckOut:        r.CheckOut,
		Guests:          r.Guests,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		TotalPriceCents: r.TotalPriceCents,
		SpecialRequests: r.SpecialRequests,
	}
}

// Fluent builder methods

func (r *ReservationBuilder) WithToday(today domreservation.Date) *ReservationBuilder {
	r.Today = today
	return r
}

func (r *ReservationBuilder) WithDates(checkIn, checkOut string) *ReservationBuilder {
	r.CheckIn = checkIn
	r.CheckOut = checkOut
	return r
}

func (r *ReservationBuilder) WithGuests(guests int) *ReservationBuilder {
	r.Guests = guests
	return r
}

func (r *ReservationBuilder) WithName(name string) *ReservationBuilder {
	r.Name = name
	return r
}

func (r *ReservationBuilder) WithEmail(email string) *ReservationBuilder {
	r.Email = email
	return r
}

func (r *ReservationBuilder) WithPhone(phone string) *ReservationBuilder {
	r.Phone = phone
	return r
}

func (r *ReservationBuilder) WithTotalPriceCents(cents int64) *ReservationBuilder {
	r.TotalPriceCents = cents
	return r
}

func (r *ReservationBuilder) WithStatus(status domreservation.Status) *ReservationBuilder {
	r.Status = status
	return r
}

func (r *ReservationBuilder) WithPaymentStatus(status domreservation.PaymentStatus) *ReservationBuilder {
	r.PaymentStatus = status
	return r
}

func (r *ReservationBuilder) WithSpecialRequests(text string) *ReservationBuilder {
	r.SpecialRequests = &text
	return r
}

func (r *ReservationBuilder) AsConfirmedPaid() *ReservationBuilder {
	r.Status = domreservation.StatusConfirmed
	r.PaymentStatus = domreservation.PaymentPaid
	return r
}

func (r *ReservationBuilder) AsExpired() *ReservationBuilder {
	r.CheckIn = "2026-08-20"
	r.CheckOut = "2026-08-23"
	return r
}
