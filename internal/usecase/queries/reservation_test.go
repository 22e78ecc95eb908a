//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/clock"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/queries"
	"sosiego-api/tests/common/builder"
	queriesmock "sosiego-api/tests/mock/queries"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fixture clock: mid-day on 2026-09-01
var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func newReservationQueries(t *testing.T) (queries.ReservationQueries, *queriesmock.MockReservationReadStore, *clock.MockClock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := queriesmock.NewMockReservationReadStore(ctrl)
	clk := clock.NewMockClock(testNow)
	return queries.NewReservationQueries(store, clk), store, clk
}

func mustStay(t *testing.T, checkIn, checkOut string) reservation.Stay {
	t.Helper()
	in, err := reservation.ParseDate(checkIn)
	require.NoError(t, err)
	out, err := reservation.ParseDate(checkOut)
	require.NoError(t, err)
	stay, err := reservation.NewStay(in, out)
	require.NoError(t, err)
	return stay
}

func span(checkIn, checkOut string) queries.StaySpan {
	in, _ := time.Parse("2006-01-02", checkIn)
	out, _ := time.Parse("2006-01-02", checkOut)
	return queries.StaySpan{ID: uuid.New(), CheckIn: in, CheckOut: out}
}

func TestGetByID(t *testing.T) {
	t.Run("returns the view", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		view := builder.NewReservationBuilder().BuildView()
		store.EXPECT().FindByID(gomock.Any(), view.ID).Return(view, nil)

		actual, err := q.GetByID(context.Background(), view.ID)
		require.NoError(t, err)
		assert.Equal(t, view, actual)
	})

	t.Run("maps not found", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		id := uuid.New()
		store.EXPECT().FindByID(gomock.Any(), id).
			Return(nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound))

		_, err := q.GetByID(context.Background(), id)
		require.ErrorIs(t, err, errs.ErrReservationNotFound)
	})
}

func TestIsAvailable(t *testing.T) {
	t.Run("past check-in is rejected before touching the store", func(t *testing.T) {
		q, _, _ := newReservationQueries(t)
		stay := mustStay(t, "2026-08-20", "2026-08-23")

		_, err := q.IsAvailable(context.Background(), stay, nil)
		require.ErrorIs(t, err, errs.ErrPastCheckIn)
	})

	t.Run("free when no occupying span overlaps", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		store.EXPECT().FindOccupyingSpans(gomock.Any(), nil).Return([]queries.StaySpan{
			span("2026-09-01", "2026-09-05"),
			span("2026-09-13", "2026-09-16"),
		}, nil)

		available, err := q.IsAvailable(context.Background(), mustStay(t, "2026-09-10", "2026-09-13"), nil)
		require.NoError(t, err)
		assert.True(t, available, "adjacent spans do not conflict")
	})

	t.Run("occupied when any span overlaps", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		store.EXPECT().FindOccupyingSpans(gomock.Any(), nil).Return([]queries.StaySpan{
			span("2026-09-12", "2026-09-18"),
		}, nil)

		available, err := q.IsAvailable(context.Background(), mustStay(t, "2026-09-10", "2026-09-13"), nil)
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("forwards the exclusion to the store", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		excludeID := uuid.New()
		store.EXPECT().FindOccupyingSpans(gomock.Any(), &excludeID).Return(nil, nil)

		available, err := q.IsAvailable(context.Background(), mustStay(t, "2026-09-10", "2026-09-13"), &excludeID)
		require.NoError(t, err)
		assert.True(t, available)
	})
}

func TestMonthCalendar(t *testing.T) {
	t.Run("past days closed, occupied days closed, check-out day open", func(t *testing.T) {
		q, store, clk := newReservationQueries(t)
		clk.Set(time.Date(2026, time.September, 15, 9, 0, 0, 0, time.UTC))
		store.EXPECT().FindOccupyingSpans(gomock.Any(), nil).Return([]queries.StaySpan{
			span("2026-09-20", "2026-09-23"),
		}, nil)

		days, err := q.MonthCalendar(context.Background(), 2026, time.September)
		require.NoError(t, err)
		require.Len(t, days, 30)

		byDate := make(map[string]bool, len(days))
		for _, d := range days {
			byDate[d.Date] = d.Available
		}

		assert.False(t, byDate["2026-09-14"], "yesterday is closed")
		assert.True(t, byDate["2026-09-15"], "today is open")
		assert.False(t, byDate["2026-09-20"], "check-in day occupied")
		assert.False(t, byDate["2026-09-22"], "last night occupied")
		assert.True(t, byDate["2026-09-23"], "check-out day is free")
		assert.True(t, byDate["2026-09-30"])
	})

	t.Run("handles month lengths", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		store.EXPECT().FindOccupyingSpans(gomock.Any(), nil).Return(nil, nil).Times(2)

		days, err := q.MonthCalendar(context.Background(), 2026, time.October)
		require.NoError(t, err)
		assert.Len(t, days, 31)

		days, err = q.MonthCalendar(context.Background(), 2028, time.February)
		require.NoError(t, err)
		assert.Len(t, days, 29, "leap year")
	})
}

func TestStats(t *testing.T) {
	t.Run("computes conversion rate", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		store.EXPECT().CountAll(gomock.Any()).Return(int64(40), nil)
		store.EXPECT().CountByStatus(gomock.Any(), reservation.StatusConfirmed).Return(int64(12), nil)
		store.EXPECT().CountByPaymentStatus(gomock.Any(), reservation.PaymentPending).Return(int64(5), nil)
		store.EXPECT().CountByPaymentStatus(gomock.Any(), reservation.PaymentPaid).Return(int64(10), nil)

		stats, err := q.Stats(context.Background())
		require.NoError(t, err)

		expected := &queries.ReservationStats{
			TotalReservations:     40,
			ConfirmedReservations: 12,
			PendingPayments:       5,
			PaidReservations:      10,
			ConversionRate:        25.0,
		}
		if diff := cmp.Diff(expected, stats, cmpopts.EquateApprox(0, 0.001)); diff != "" {
			t.Errorf("ReservationStats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty system has zero rate, no division by zero", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		store.EXPECT().CountAll(gomock.Any()).Return(int64(0), nil)
		store.EXPECT().CountByStatus(gomock.Any(), reservation.StatusConfirmed).Return(int64(0), nil)
		store.EXPECT().CountByPaymentStatus(gomock.Any(), reservation.PaymentPending).Return(int64(0), nil)
		store.EXPECT().CountByPaymentStatus(gomock.Any(), reservation.PaymentPaid).Return(int64(0), nil)

		stats, err := q.Stats(context.Background())
		require.NoError(t, err)
		assert.Zero(t, stats.ConversionRate)
	})
}

func TestListExpiring(t *testing.T) {
	t.Run("cutoff includes the whole last day of the window", func(t *testing.T) {
		q, store, _ := newReservationQueries(t)
		views := []*queries.ReservationView{builder.NewReservationBuilder().BuildView()}

		// now + 48h is 2026-09-03; the store predicate is strict <, so the
		// boundary day is included by pushing the cutoff one day out.
		store.EXPECT().
			FindPendingWithCheckInBefore(gomock.Any(), reservation.NewDate(2026, time.September, 4)).
			Return(views, nil)

		actual, err := q.ListExpiring(context.Background(), 48*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, views, actual)
	})
}

func TestPaymentGetStatus(t *testing.T) {
	newPaymentQueries := func(t *testing.T) (queries.PaymentQueries, *queriesmock.MockPaymentReadStore) {
		t.Helper()
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockPaymentReadStore(ctrl)
		return queries.NewPaymentQueries(store), store
	}
	notFound := infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)

	t.Run("resolves by gateway reference first", func(t *testing.T) {
		q, store := newPaymentQueries(t)
		view := builder.NewPaymentBuilder().BuildView()
		store.EXPECT().FindByExternalRef(gomock.Any(), "118734251977").Return(view, nil)

		actual, err := q.GetStatus(context.Background(), "118734251977")
		require.NoError(t, err)
		assert.Equal(t, view, actual)
	})

	t.Run("falls back to local payment ID", func(t *testing.T) {
		q, store := newPaymentQueries(t)
		view := builder.NewPaymentBuilder().BuildView()
		store.EXPECT().FindByExternalRef(gomock.Any(), view.ID.String()).Return(nil, notFound)
		store.EXPECT().FindByID(gomock.Any(), view.ID).Return(view, nil)

		actual, err := q.GetStatus(context.Background(), view.ID.String())
		require.NoError(t, err)
		assert.Equal(t, view, actual)
	})

	t.Run("unparseable reference is simply not found", func(t *testing.T) {
		q, store := newPaymentQueries(t)
		store.EXPECT().FindByExternalRef(gomock.Any(), "garbage").Return(nil, notFound)

		_, err := q.GetStatus(context.Background(), "garbage")
		require.ErrorIs(t, err, errs.ErrPaymentNotFound)
	})

	t.Run("unknown ID is not found", func(t *testing.T) {
		q, store := newPaymentQueries(t)
		id := uuid.New()
		store.EXPECT().FindByExternalRef(gomock.Any(), id.String()).Return(nil, notFound)
		store.EXPECT().FindByID(gomock.Any(), id).Return(nil, notFound)

		_, err := q.GetStatus(context.Background(), id.String())
		require.ErrorIs(t, err, errs.ErrPaymentNotFound)
	})
}
