//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/clock"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/tests/common/builder"
	commandsmock "sosiego-api/tests/mock/commands"
	queriesmock "sosiego-api/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testNightlyRateCents = int64(4500000)

var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

// stubTx satisfies pgx.Tx for command flows. Only Commit and Rollback are
// called through it; everything else panics via the embedded nil interface.
type stubTx struct {
	pgx.Tx
	committed  bool
	commitErr  error
	rolledBack bool
}

func (s *stubTx) Commit(_ context.Context) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed = true
	return nil
}

func (s *stubTx) Rollback(_ context.Context) error {
	if s.committed {
		return pgx.ErrTxClosed
	}
	s.rolledBack = true
	return nil
}

type reservationCommandsFixture struct {
	commands commands.ReservationCommands
	repo     *commandsmock.MockReservationRepository
	queries  *queriesmock.MockReservationQueries
	txm      *commandsmock.MockTxManager
	clock    *clock.MockClock
}

func newReservationCommands(t *testing.T) *reservationCommandsFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &reservationCommandsFixture{
		repo:    commandsmock.NewMockReservationRepository(ctrl),
		queries: queriesmock.NewMockReservationQueries(ctrl),
		txm:     commandsmock.NewMockTxManager(ctrl),
		clock:   clock.NewMockClock(testNow),
	}
	f.commands = commands.NewReservationCommands(f.repo, f.queries, f.txm, f.clock, testNightlyRateCents)
	return f
}

func (f *reservationCommandsFixture) expectTx() *stubTx {
	tx := &stubTx{}
	f.txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	return tx
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("success with explicit price", func(t *testing.T) {
		f := newReservationCommands(t)
		params := builder.NewReservationBuilder().BuildCreateParams()
		view := builder.NewReservationBuilder().BuildView()
		tx := f.expectTx()

		f.repo.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().AcquireSlotLock(gomock.Any(), tx).Return(nil)
		f.repo.EXPECT().CountOccupyingOverlaps(gomock.Any(), tx, gomock.Any(), gomock.Nil()).Return(int64(0), nil)

		var created *reservation.Reservation
		f.repo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, res *reservation.Reservation) error {
				created = res
				return nil
			})
		f.queries.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(view, nil)

		actual, err := f.commands.Create(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, view, actual)
		assert.True(t, tx.committed)

		require.NotNil(t, created)
		assert.Equal(t, int64(13500000), created.TotalPriceCents())
		assert.Equal(t, reservation.StatusPending, created.Status())
	})

	t.Run("zero price defaults to nights times nightly rate", func(t *testing.T) {
		f := newReservationCommands(t)
		params := builder.NewReservationBuilder().WithTotalPriceCents(0).BuildCreateParams()
		tx := f.expectTx()

		f.repo.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().AcquireSlotLock(gomock.Any(), tx).Return(nil)
		f.repo.EXPECT().CountOccupyingOverlaps(gomock.Any(), tx, gomock.Any(), gomock.Nil()).Return(int64(0), nil)

		var created *reservation.Reservation
		f.repo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, res *reservation.Reservation) error {
				created = res
				return nil
			})
		f.queries.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(builder.NewReservationBuilder().BuildView(), nil)

		_, err := f.commands.Create(ctx, params)
		require.NoError(t, err)

		require.NotNil(t, created)
		// 3 nights at the configured nightly rate
		assert.Equal(t, 3*testNightlyRateCents, created.TotalPriceCents())
	})

	t.Run("overlap inside the transaction loses with a conflict", func(t *testing.T) {
		f := newReservationCommands(t)
		params := builder.NewReservationBuilder().BuildCreateParams()
		tx := f.expectTx()

		f.repo.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().AcquireSlotLock(gomock.Any(), tx).Return(nil)
		f.repo.EXPECT().CountOccupyingOverlaps(gomock.Any(), tx, gomock.Any(), gomock.Nil()).Return(int64(1), nil)

		_, err := f.commands.Create(ctx, params)
		require.ErrorIs(t, err, errs.ErrDatesConflict)
		assert.False(t, tx.committed)
		assert.True(t, tx.rolledBack)
	})

	t.Run("duplicate key on insert surfaces as a conflict", func(t *testing.T) {
		f := newReservationCommands(t)
		params := builder.NewReservationBuilder().BuildCreateParams()
		tx := f.expectTx()

		f.repo.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().AcquireSlotLock(gomock.Any(), tx).Return(nil)
		f.repo.EXPECT().CountOccupyingOverlaps(gomock.Any(), tx, gomock.Any(), gomock.Nil()).Return(int64(0), nil)
		f.repo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).
			Return(infra.WrapRepoErr("duplicate key", nil, infra.KindDuplicateKey))

		_, err := f.commands.Create(ctx, params)
		require.ErrorIs(t, err, errs.ErrDatesConflict)
		assert.False(t, tx.committed)
	})

	t.Run("re-rolls the confirmation code on an observed duplicate", func(t *testing.T) {
		f := newReservationCommands(t)
		params := builder.NewReservationBuilder().BuildCreateParams()
		tx := f.expectTx()

		gomock.InOrder(
			f.repo.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(true, nil),
			f.repo.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, nil),
		)
		f.repo.EXPECT().AcquireSlotLock(gomock.Any(), tx).Return(nil)
		f.repo.EXPECT().CountOccupyingOverlaps(gomock.Any(), tx, gomock.Any(), gomock.Nil()).Return(int64(0), nil)
		f.repo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
		f.queries.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(builder.NewReservationBuilder().BuildView(), nil)

		_, err := f.commands.Create(ctx, params)
		require.NoError(t, err)
	})

	t.Run("inverted dates fail before any repository call", func(t *testing.T) {
		f := newReservationCommands(t)
		params := builder.NewReservationBuilder().WithDates("2026-09-13", "2026-09-10").BuildCreateParams()

		_, err := f.commands.Create(ctx, params)
		require.ErrorIs(t, err, reservation.ErrInvalidDateRange)
	})

	t.Run("past check-in is rejected", func(t *testing.T) {
		f := newReservationCommands(t)
		params := builder.NewReservationBuilder().AsExpired().BuildCreateParams()

		f.repo.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.commands.Create(ctx, params)
		require.ErrorIs(t, err, reservation.ErrPastCheckIn)
	})
}

func TestUpdateReservation(t *testing.T) {
	ctx := context.Background()

	newDate := func(s string) *reservation.Date {
		d, err := reservation.ParseDate(s)
		if err != nil {
			panic(err)
		}
		return &d
	}

	t.Run("date change re-checks availability under the slot lock", func(t *testing.T) {
		f := newReservationCommands(t)
		existing := builder.NewReservationBuilder().BuildReconstructed()
		view := builder.NewReservationBuilder().BuildView()
		tx := f.expectTx()

		f.repo.EXPECT().FindByID(gomock.Any(), existing.ID()).Return(existing, nil)
		f.repo.EXPECT().AcquireSlotLock(gomock.Any(), tx).Return(nil)

		var excluded *uuid.UUID
		f.repo.EXPECT().CountOccupyingOverlaps(gomock.Any(), tx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, _ reservation.Stay, excludeID *uuid.UUID) (int64, error) {
				excluded = excludeID
				return 0, nil
			})
		f.repo.EXPECT().UpdateDetails(gomock.Any(), tx, existing).Return(nil)
		f.queries.EXPECT().GetByID(gomock.Any(), existing.ID()).Return(view, nil)

		actual, err := f.commands.Update(ctx, existing.ID(), commands.UpdateReservationParams{
			CheckIn:  newDate("2026-09-20"),
			CheckOut: newDate("2026-09-24"),
		})
		require.NoError(t, err)
		assert.Equal(t, view, actual)
		assert.True(t, tx.committed)

		require.NotNil(t, excluded, "the reservation must not conflict with itself")
		assert.Equal(t, existing.ID(), *excluded)
		assert.Equal(t, "2026-09-20", existing.Stay().CheckIn().String())
	})

	t.Run("no date change skips the lock and overlap check", func(t *testing.T) {
		f := newReservationCommands(t)
		existing := builder.NewReservationBuilder().BuildReconstructed()
		tx := f.expectTx()

		f.repo.EXPECT().FindByID(gomock.Any(), existing.ID()).Return(existing, nil)
		f.repo.EXPECT().UpdateDetails(gomock.Any(), tx, existing).Return(nil)
		f.queries.EXPECT().GetByID(gomock.Any(), existing.ID()).Return(builder.NewReservationBuilder().BuildView(), nil)

		guests := 4
		_, err := f.commands.Update(ctx, existing.ID(), commands.UpdateReservationParams{Guests: &guests})
		require.NoError(t, err)
		assert.Equal(t, 4, existing.Guests())
	})

	t.Run("legacy record without a confirmation code gets one on update", func(t *testing.T) {
		f := newReservationCommands(t)
		existing := builder.NewReservationBuilder().
			With(func(b *builder.ReservationBuilder) { b.ConfirmationCode = "" }).
			BuildReconstructed()
		tx := f.expectTx()

		f.repo.EXPECT().FindByID(gomock.Any(), existing.ID()).Return(existing, nil)
		f.repo.EXPECT().UpdateDetails(gomock.Any(), tx, existing).Return(nil)
		f.queries.EXPECT().GetByID(gomock.Any(), existing.ID()).Return(builder.NewReservationBuilder().BuildView(), nil)

		guests := 3
		_, err := f.commands.Update(ctx, existing.ID(), commands.UpdateReservationParams{Guests: &guests})
		require.NoError(t, err)
		assert.Regexp(t, `^CC\d{8}[A-Z0-9]{4}$`, existing.ConfirmationCode())
		assert.True(t, tx.committed)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		f := newReservationCommands(t)
		id := uuid.New()
		f.repo.EXPECT().FindByID(gomock.Any(), id).
			Return(nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound))

		_, err := f.commands.Update(ctx, id, commands.UpdateReservationParams{})
		require.ErrorIs(t, err, errs.ErrReservationNotFound)
	})

	t.Run("new dates already taken", func(t *testing.T) {
		f := newReservationCommands(t)
		existing := builder.NewReservationBuilder().BuildReconstructed()
		tx := f.expectTx()

		f.repo.EXPECT().FindByID(gomock.Any(), existing.ID()).Return(existing, nil)
		f.repo.EXPECT().AcquireSlotLock(gomock.Any(), tx).Return(nil)
		f.repo.EXPECT().CountOccupyingOverlaps(gomock.Any(), tx, gomock.Any(), gomock.Any()).Return(int64(1), nil)

		_, err := f.commands.Update(ctx, existing.ID(), commands.UpdateReservationParams{
			CheckIn:  newDate("2026-09-20"),
			CheckOut: newDate("2026-09-24"),
		})
		require.ErrorIs(t, err, errs.ErrDatesConflict)
		assert.False(t, tx.committed)
	})
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	today := reservation.NewDate(2026, time.September, 1)

	t.Run("counts only the reservations actually cancelled", func(t *testing.T) {
		f := newReservationCommands(t)

		dueID, confirmedID, racedID := uuid.New(), uuid.New(), uuid.New()
		f.repo.EXPECT().FindExpiredPendingIDs(gomock.Any(), today).
			Return([]uuid.UUID{dueID, confirmedID, racedID}, nil)

		// each candidate is swept in its own transaction
		f.txm.EXPECT().Begin(gomock.Any()).Times(3).
			DoAndReturn(func(_ context.Context) (pgx.Tx, error) { return &stubTx{}, nil })

		due := builder.NewReservationBuilder().AsExpired().BuildReconstructed()
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), dueID).Return(due, nil)
		f.repo.EXPECT().UpdateState(gomock.Any(), gomock.Any(), due, reservation.StatusPending).Return(true, nil)

		// already confirmed by a webhook between listing and locking
		confirmed := builder.NewReservationBuilder().AsExpired().AsConfirmedPaid().BuildReconstructed()
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), confirmedID).Return(confirmed, nil)

		// guarded update lost to a concurrent writer
		raced := builder.NewReservationBuilder().AsExpired().BuildReconstructed()
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), racedID).Return(raced, nil)
		f.repo.EXPECT().UpdateState(gomock.Any(), gomock.Any(), raced, reservation.StatusPending).Return(false, nil)

		count, err := f.commands.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		assert.Equal(t, reservation.StatusCancelled, due.Status())
		assert.Equal(t, reservation.StatusConfirmed, confirmed.Status())
	})

	t.Run("a failing candidate is skipped, the sweep continues", func(t *testing.T) {
		f := newReservationCommands(t)

		brokenID, dueID := uuid.New(), uuid.New()
		f.repo.EXPECT().FindExpiredPendingIDs(gomock.Any(), today).
			Return([]uuid.UUID{brokenID, dueID}, nil)
		f.txm.EXPECT().Begin(gomock.Any()).Times(2).
			DoAndReturn(func(_ context.Context) (pgx.Tx, error) { return &stubTx{}, nil })

		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), brokenID).
			Return(nil, infra.WrapRepoErr("scan failed", nil, infra.KindDBFailure))

		due := builder.NewReservationBuilder().AsExpired().BuildReconstructed()
		f.repo.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), dueID).Return(due, nil)
		f.repo.EXPECT().UpdateState(gomock.Any(), gomock.Any(), due, reservation.StatusPending).Return(true, nil)

		count, err := f.commands.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("nothing due", func(t *testing.T) {
		f := newReservationCommands(t)
		f.repo.EXPECT().FindExpiredPendingIDs(gomock.Any(), today).Return(nil, nil)

		count, err := f.commands.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
