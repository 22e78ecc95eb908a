package commands

import (
	"context"
	"errors"
	"log/slog"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/clock"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/pkg/patch"
	"sosiego-api/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const codeRetryAttempts = 3

type CreateReservationParams struct {
	CheckIn         reservation.Date
	CheckOut        reservation.Date
	Guests          int
	Name            string
	Email           string
	Phone           string
	TotalPriceCents int64 // 0 means "price from nightly rate"
	SpecialRequests *string
}

type UpdateReservationParams struct {
	CheckIn         *reservation.Date
	CheckOut        *reservation.Date
	Guests          *int
	Name            *string
	Email           *string
	Phone           *string
	TotalPriceCents *int64
	SpecialRequests *string
	Notes           *string
}

type ReservationCommands interface {
	Create(ctx context.Context, params CreateReservationParams) (*queries.ReservationView, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateReservationParams) (*queries.ReservationView, error)
	SweepExpired(ctx context.Context) (int, error)
}

type reservationUseCaseImpl struct {
	reservationRepo    ReservationRepository
	reservationQueries queries.ReservationQueries
	db                 TxManager
	clock              clock.Clock
	nightlyRateCents   int64
}

func NewReservationCommands(
	reservationRepo ReservationRepository,
	reservationQueries queries.ReservationQueries,
	db TxManager,
	clock clock.Clock,
	nightlyRateCents int64,
) ReservationCommands {
	return &reservationUseCaseImpl{
		reservationRepo:    reservationRepo,
		reservationQueries: reservationQueries,
		db:                 db,
		clock:              clock,
		nightlyRateCents:   nightlyRateCents,
	}
}

func (r *reservationUseCaseImpl) Create(ctx context.Context, params CreateReservationParams) (*queries.ReservationView, error) {
	stay, err := reservation.NewStay(params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, err
	}

	price := params.TotalPriceCents
	if price == 0 {
		price = int64(stay.Nights()) * r.nightlyRateCents
	}

	code, err := issueConfirmationCode(ctx, r.reservationRepo, r.clock)
	if err != nil {
		return nil, err
	}

	today := reservation.DateOf(r.clock.Now())
	res, err := reservation.NewReservation(
		today, stay, params.Guests,
		params.Name, params.Email, params.Phone,
		price, code, params.SpecialRequests,
	)
	if err != nil {
		return nil, err
	}

	if err := r.executeCreateTransaction(ctx, res); err != nil {
		return nil, err
	}

	// Read-after-write: return the complete view from the read store
	return r.reservationQueries.GetByID(ctx, res.ID())
}

// issueConfirmationCode generates a code and re-rolls on the rare observed
// duplicate. Collisions past the last retry are tolerated (uniqueness is
// enforced by the store constraint, surfaced as a conflict).
func issueConfirmationCode(ctx context.Context, repo ReservationRepository, clk clock.Clock) (string, error) {
	var code string
	for attempt := 0; attempt < codeRetryAttempts; attempt++ {
		code = reservation.GenerateConfirmationCode(clk.Now())
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !exists {
			return code, nil
		}
	}
	return code, nil
}

// executeCreateTransaction closes the check-then-insert race: the advisory
// lock serializes all occupancy writers, and the overlap count runs inside
// the same transaction as the insert.
func (r *reservationUseCaseImpl) executeCreateTransaction(ctx context.Context, res *reservation.Reservation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err := r.reservationRepo.AcquireSlotLock(ctx, tx); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	overlaps, err := r.reservationRepo.CountOccupyingOverlaps(ctx, tx, res.Stay(), nil)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if overlaps > 0 {
		return errs.ErrDatesConflict
	}

	if err := r.reservationRepo.Create(ctx, tx, res); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return errs.ErrDatesConflict
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func (r *reservationUseCaseImpl) Update(ctx context.Context, id uuid.UUID, params UpdateReservationParams) (*queries.ReservationView, error) {
	res, err := r.reservationRepo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	current := res.Stay()
	checkIn := patch.Coalesce(params.CheckIn, current.CheckIn())
	checkOut := patch.Coalesce(params.CheckOut, current.CheckOut())
	stay, err := reservation.NewStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	datesChanged := !checkIn.Equal(current.CheckIn()) || !checkOut.Equal(current.CheckOut())

	today := reservation.DateOf(r.clock.Now())
	err = res.Revise(
		today, stay,
		patch.Coalesce(params.Guests, res.Guests()),
		patch.Coalesce(params.Name, res.Name()),
		patch.Coalesce(params.Email, res.Email()),
		patch.Coalesce(params.Phone, res.Phone()),
		patch.Coalesce(params.TotalPriceCents, res.TotalPriceCents()),
		coalescePtr(params.SpecialRequests, res.SpecialRequests()),
		coalescePtr(params.Notes, res.Notes()),
	)
	if err != nil {
		return nil, err
	}

	// Legacy rows can predate confirmation codes; repair them on write.
	if res.BackfillConfirmationCode(r.clock.Now()) {
		slog.Info("backfilled missing confirmation code",
			"reservation_id", res.ID(), "code", res.ConfirmationCode())
	}

	if err := r.executeUpdateTransaction(ctx, res, datesChanged); err != nil {
		return nil, err
	}

	return r.reservationQueries.GetByID(ctx, res.ID())
}

func (r *reservationUseCaseImpl) executeUpdateTransaction(ctx context.Context, res *reservation.Reservation, datesChanged bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if datesChanged {
		if err := r.reservationRepo.AcquireSlotLock(ctx, tx); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		id := res.ID()
		overlaps, err := r.reservationRepo.CountOccupyingOverlaps(ctx, tx, res.Stay(), &id)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if overlaps > 0 {
			return errs.ErrDatesConflict
		}
	}

	if err := r.reservationRepo.UpdateDetails(ctx, tx, res); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

// SweepExpired cancels pending, unpaid reservations whose check-in day has
// passed. Each record is swept in its own transaction under a row lock, and
// the final update is guarded on the pending status so a racing webhook wins
// cleanly.
func (r *reservationUseCaseImpl) SweepExpired(ctx context.Context) (int, error) {
	today := reservation.DateOf(r.clock.Now())

	ids, err := r.reservationRepo.FindExpiredPendingIDs(ctx, today)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	cancelled := 0
	for _, id := range ids {
		swept, err := r.sweepOne(ctx, id, today)
		if err != nil {
			slog.Warn("expiry sweep skipped reservation", "reservation_id", id, "error", err)
			continue
		}
		if swept {
			cancelled++
		}
	}
	return cancelled, nil
}

func (r *reservationUseCaseImpl) sweepOne(ctx context.Context, id uuid.UUID, today reservation.Date) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	res, err := r.reservationRepo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return false, err
	}

	previous := res.Status()
	if !res.ExpireIfDue(today) {
		return false, nil
	}

	applied, err := r.reservationRepo.UpdateState(ctx, tx, res, previous)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return applied, nil
}

func coalescePtr[T any](override *T, fallback *T) *T {
	if override != nil {
		return override
	}
	return fallback
}
