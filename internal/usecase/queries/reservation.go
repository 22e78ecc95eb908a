package queries

import (
	"context"
	"time"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/clock"
	"sosiego-api/internal/pkg/errs"

	"github.com/google/uuid"
)

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindByCode(ctx context.Context, confirmationCode string) (*ReservationView, error)
	FindByStatus(ctx context.Context, status reservation.Status) ([]*ReservationView, error)
	FindOccupyingSpans(ctx context.Context, excludeID *uuid.UUID) ([]StaySpan, error)
	FindPendingWithCheckInBefore(ctx context.Context, cutoff reservation.Date) ([]*ReservationView, error)
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status reservation.Status) (int64, error)
	CountByPaymentStatus(ctx context.Context, status reservation.PaymentStatus) (int64, error)
}

type ReservationQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	GetByCode(ctx context.Context, confirmationCode string) (*ReservationView, error)
	ListByStatus(ctx context.Context, status reservation.Status) ([]*ReservationView, error)
	IsAvailable(ctx context.Context, stay reservation.Stay, excludeID *uuid.UUID) (bool, error)
	MonthCalendar(ctx context.Context, year int, month time.Month) ([]CalendarDay, error)
	Stats(ctx context.Context) (*ReservationStats, error)
	ListExpiring(ctx context.Context, within time.Duration) ([]*ReservationView, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
	clock clock.Clock
}

func NewReservationQueries(store ReservationReadStore, clock clock.Clock) ReservationQueries {
	return &reservationQueriesImpl{
		store: store,
		clock: clock,
	}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (q *reservationQueriesImpl) GetByCode(ctx context.Context, confirmationCode string) (*ReservationView, error) {
	view, err := q.store.FindByCode(ctx, confirmationCode)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (q *reservationQueriesImpl) ListByStatus(ctx context.Context, status reservation.Status) ([]*ReservationView, error) {
	views, err := q.store.FindByStatus(ctx, status)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return views, nil
}

// IsAvailable rejects past check-ins, then tests the candidate against every
// occupying reservation with the single overlap predicate. Read-only: the
// serializing re-check at write time lives in the commands layer.
func (q *reservationQueriesImpl) IsAvailable(ctx context.Context, stay reservation.Stay, excludeID *uuid.UUID) (bool, error) {
	today := reservation.DateOf(q.clock.Now())
	if stay.CheckIn().Before(today) {
		return false, errs.ErrPastCheckIn
	}

	spans, err := q.store.FindOccupyingSpans(ctx, excludeID)
	if err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	for _, span := range spans {
		existing, err := reservation.NewStay(reservation.DateOf(span.CheckIn), reservation.DateOf(span.CheckOut))
		if err != nil {
			continue // malformed row, never blocks
		}
		if stay.Overlaps(existing) {
			return false, nil
		}
	}
	return true, nil
}

// MonthCalendar renders per-day availability for a month. Days before today
// are closed, matching the past-check-in rule for candidates.
func (q *reservationQueriesImpl) MonthCalendar(ctx context.Context, year int, month time.Month) ([]CalendarDay, error) {
	spans, err := q.store.FindOccupyingSpans(ctx, nil)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	stays := make([]reservation.Stay, 0, len(spans))
	for _, span := range spans {
		stay, err := reservation.NewStay(reservation.DateOf(span.CheckIn), reservation.DateOf(span.CheckOut))
		if err != nil {
			continue
		}
		stays = append(stays, stay)
	}

	today := reservation.DateOf(q.clock.Now())
	first := reservation.NewDate(year, month, 1)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	calendar := make([]CalendarDay, 0, daysInMonth)
	for i := 0; i < daysInMonth; i++ {
		day := first.AddDays(i)
		available := !day.Before(today)
		if available {
			for _, stay := range stays {
				if stay.Contains(day) {
					available = false
					break
				}
			}
		}
		calendar = append(calendar, CalendarDay{Date: day.String(), Available: available})
	}
	return calendar, nil
}

func (q *reservationQueriesImpl) Stats(ctx context.Context) (*ReservationStats, error) {
	total, err := q.store.CountAll(ctx)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	confirmed, err := q.store.CountByStatus(ctx, reservation.StatusConfirmed)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	pendingPayments, err := q.store.CountByPaymentStatus(ctx, reservation.PaymentPending)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	paid, err := q.store.CountByPaymentStatus(ctx, reservation.PaymentPaid)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	stats := &ReservationStats{
		TotalReservations:     total,
		ConfirmedReservations: confirmed,
		PendingPayments:       pendingPayments,
		PaidReservations:      paid,
	}
	if total > 0 {
		stats.ConversionRate = float64(paid) / float64(total) * 100
	}
	return stats, nil
}

// ListExpiring returns pending, unpaid reservations whose check-in falls
// within the given window, for payment reminders.
func (q *reservationQueriesImpl) ListExpiring(ctx context.Context, within time.Duration) ([]*ReservationView, error) {
	cutoff := reservation.DateOf(q.clock.Now().Add(within))
	views, err := q.store.FindPendingWithCheckInBefore(ctx, cutoff.AddDays(1))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return views, nil
}
