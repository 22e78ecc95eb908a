package repository

import (
	"context"
	"errors"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// slotLockKey is the advisory lock key for the single bookable unit. Every
// occupancy-creating writer takes it before checking overlaps, so the
// check-then-insert sequence is serialized without table locks.
const slotLockKey int64 = 0x454c534f // "ELSO"

const uniqueViolationCode = "23505"

const reservationColumns = `
	id, check_in, check_out, guests, name, email, phone, total_price_cents,
	status_reservation, status_payment, confirmation_code, external_ref,
	special_requests, notes, created_at, updated_at`

type ReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx pgx.Tx, res *reservation.Reservation) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reservations (
			id, check_in, check_out, guests, name, email, phone,
			total_price_cents, status_reservation, status_payment,
			confirmation_code, external_ref, special_requests, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		res.ID(),
		pgconv.DateToPgtype(res.Stay().CheckIn().Time()),
		pgconv.DateToPgtype(res.Stay().CheckOut().Time()),
		res.Guests(),
		res.Name(),
		res.Email(),
		res.Phone(),
		res.TotalPriceCents(),
		res.Status().String(),
		res.PaymentStatus().String(),
		res.ConfirmationCode(),
		pgconv.StringPtrToPgtype(res.ExternalRef()),
		pgconv.StringPtrToPgtype(res.SpecialRequests()),
		pgconv.StringPtrToPgtype(res.Notes()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("reservation violates a unique constraint", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	return scanReservation(row, "failed to find reservation by ID")
}

func (r *ReservationRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*reservation.Reservation, error) {
	row := tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
	return scanReservation(row, "failed to lock reservation for update")
}

// UpdateState persists status fields guarded by the status the caller
// observed. A zero-row update means another writer transitioned the record
// first; the caller decides what that means.
func (r *ReservationRepository) UpdateState(ctx context.Context, tx pgx.Tx, res *reservation.Reservation, expected reservation.Status) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE reservations
		SET status_reservation = $1,
		    status_payment = $2,
		    external_ref = $3,
		    notes = $4,
		    updated_at = now()
		WHERE id = $5 AND status_reservation = $6`,
		res.Status().String(),
		res.PaymentStatus().String(),
		pgconv.StringPtrToPgtype(res.ExternalRef()),
		pgconv.StringPtrToPgtype(res.Notes()),
		res.ID(),
		expected.String(),
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to update reservation state", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ReservationRepository) UpdateDetails(ctx context.Context, tx pgx.Tx, res *reservation.Reservation) error {
	tag, err := tx.Exec(ctx, `
		UPDATE reservations
		SET check_in = $1,
		    check_out = $2,
		    guests = $3,
		    name = $4,
		    email = $5,
		    phone = $6,
		    total_price_cents = $7,
		    special_requests = $8,
		    notes = $9,
		    confirmation_code = $10,
		    updated_at = now()
		WHERE id = $11`,
		pgconv.DateToPgtype(res.Stay().CheckIn().Time()),
		pgconv.DateToPgtype(res.Stay().CheckOut().Time()),
		res.Guests(),
		res.Name(),
		res.Email(),
		res.Phone(),
		res.TotalPriceCents(),
		pgconv.StringPtrToPgtype(res.SpecialRequests()),
		pgconv.StringPtrToPgtype(res.Notes()),
		res.ConfirmationCode(),
		res.ID(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation details", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ReservationRepository) AcquireSlotLock(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, slotLockKey); err != nil {
		return infra.WrapRepoErr("failed to acquire slot lock", err)
	}
	return nil
}

// CountOccupyingOverlaps counts confirmed/paid reservations whose half-open
// interval intersects the candidate stay. Runs inside the caller's
// transaction so the result is valid until commit (under the slot lock).
func (r *ReservationRepository) CountOccupyingOverlaps(ctx context.Context, tx pgx.Tx, stay reservation.Stay, excludeID *uuid.UUID) (int64, error) {
	var count int64
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM reservations
		WHERE status_reservation = ANY($1)
		  AND check_in < $3
		  AND check_out > $2
		  AND ($4::uuid IS NULL OR id <> $4)`,
		statusStrings(reservation.OccupyingStatuses),
		pgconv.DateToPgtype(stay.CheckIn().Time()),
		pgconv.DateToPgtype(stay.CheckOut().Time()),
		pgconv.UUIDPtrToPgtype(excludeID),
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count overlapping reservations", err)
	}
	return count, nil
}

func (r *ReservationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE confirmation_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check confirmation code", err)
	}
	return exists, nil
}

func (r *ReservationRepository) FindExpiredPendingIDs(ctx context.Context, today reservation.Date) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id
		FROM reservations
		WHERE status_reservation = $1
		  AND status_payment = $2
		  AND check_in < $3
		ORDER BY check_in`,
		reservation.StatusPending.String(),
		reservation.PaymentPending.String(),
		pgconv.DateToPgtype(today.Time()),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find expired pending reservations", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation ID", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate expired reservations", err)
	}
	return ids, nil
}

func scanReservation(row pgx.Row, failMsg string) (*reservation.Reservation, error) {
	var (
		id                              uuid.UUID
		checkIn, checkOut               pgtype.Date
		guests                          int
		name, email, phone              string
		totalPriceCents                 int64
		status, paymentStatus           string
		confirmationCode                pgtype.Text
		externalRef, specialReqs, notes pgtype.Text
		createdAt, updatedAt            pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &checkIn, &checkOut, &guests, &name, &email, &phone, &totalPriceCents,
		&status, &paymentStatus, &confirmationCode, &externalRef,
		&specialReqs, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr(failMsg, err)
	}

	stay, err := reservation.NewStay(
		reservation.DateOf(pgconv.DateFromPgtype(checkIn)),
		reservation.DateOf(pgconv.DateFromPgtype(checkOut)),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("stored reservation has invalid dates", err)
	}

	var code string
	if confirmationCode.Valid {
		code = confirmationCode.String
	}

	return reservation.ReconstructReservation(
		id, stay, guests, name, email, phone, totalPriceCents,
		reservation.Status(status), reservation.PaymentStatus(paymentStatus),
		code,
		pgconv.StringPtrFromPgtype(externalRef),
		pgconv.StringPtrFromPgtype(specialReqs),
		pgconv.StringPtrFromPgtype(notes),
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}

func statusStrings(statuses []reservation.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
