package readstore

import (
	"context"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/pgconv"
	"sosiego-api/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationViewColumns = `
	id, check_in, check_out, guests, name, email, phone, total_price_cents,
	status_reservation, status_payment, confirmation_code, external_ref,
	special_requests, notes, created_at, updated_at`

type ReservationReadStore struct {
	db *pgxpool.Pool
}

func NewReservationReadStore(db *pgxpool.Pool) *ReservationReadStore {
	return &ReservationReadStore{db: db}
}

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationViewColumns+` FROM reservations WHERE id = $1`, id)
	view, err := scanReservationView(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return view, nil
}

func (r *ReservationReadStore) FindByCode(ctx context.Context, confirmationCode string) (*queries.ReservationView, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationViewColumns+` FROM reservations WHERE confirmation_code = $1`, confirmationCode)
	view, err := scanReservationView(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by code", err)
	}
	return view, nil
}

func (r *ReservationReadStore) FindByStatus(ctx context.Context, status reservation.Status) ([]*queries.ReservationView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reservationViewColumns+`
		FROM reservations
		WHERE status_reservation = $1
		ORDER BY check_in`, status.String())
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservations by status", err)
	}
	defer rows.Close()
	return collectReservationViews(rows)
}

// FindOccupyingSpans returns the date spans of every confirmed/paid
// reservation. The projection feeds availability checks and the calendar;
// guest details never leave the store for those.
func (r *ReservationReadStore) FindOccupyingSpans(ctx context.Context, excludeID *uuid.UUID) ([]queries.StaySpan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, check_in, check_out
		FROM reservations
		WHERE status_reservation = ANY($1)
		  AND ($2::uuid IS NULL OR id <> $2)
		ORDER BY check_in`,
		occupyingStatusStrings(),
		pgconv.UUIDPtrToPgtype(excludeID),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find occupying spans", err)
	}
	defer rows.Close()

	var spans []queries.StaySpan
	for rows.Next() {
		var (
			id                uuid.UUID
			checkIn, checkOut pgtype.Date
		)
		if err := rows.Scan(&id, &checkIn, &checkOut); err != nil {
			return nil, infra.WrapRepoErr("failed to scan stay span", err)
		}
		spans = append(spans, queries.StaySpan{
			ID:       id,
			CheckIn:  pgconv.DateFromPgtype(checkIn),
			CheckOut: pgconv.DateFromPgtype(checkOut),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate stay spans", err)
	}
	return spans, nil
}

func (r *ReservationReadStore) FindPendingWithCheckInBefore(ctx context.Context, cutoff reservation.Date) ([]*queries.ReservationView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reservationViewColumns+`
		FROM reservations
		WHERE status_reservation = $1
		  AND status_payment = $2
		  AND check_in < $3
		ORDER BY check_in`,
		reservation.StatusPending.String(),
		reservation.PaymentPending.String(),
		pgconv.DateToPgtype(cutoff.Time()),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find pending reservations", err)
	}
	defer rows.Close()
	return collectReservationViews(rows)
}

func (r *ReservationReadStore) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count reservations", err)
	}
	return count, nil
}

func (r *ReservationReadStore) CountByStatus(ctx context.Context, status reservation.Status) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE status_reservation = $1`, status.String(),
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count reservations by status", err)
	}
	return count, nil
}

func (r *ReservationReadStore) CountByPaymentStatus(ctx context.Context, status reservation.PaymentStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE status_payment = $1`, status.String(),
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count reservations by payment status", err)
	}
	return count, nil
}

func scanReservationView(row pgx.Row) (*queries.ReservationView, error) {
	var (
		view                            queries.ReservationView
		checkIn, checkOut               pgtype.Date
		confirmationCode                pgtype.Text
		externalRef, specialReqs, notes pgtype.Text
		createdAt, updatedAt            pgtype.Timestamptz
	)
	err := row.Scan(
		&view.ID, &checkIn, &checkOut, &view.Guests,
		&view.Name, &view.Email, &view.Phone, &view.TotalPriceCents,
		&view.Status, &view.PaymentStatus, &confirmationCode, &externalRef,
		&specialReqs, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	view.CheckIn = pgconv.DateFromPgtype(checkIn)
	view.CheckOut = pgconv.DateFromPgtype(checkOut)
	if confirmationCode.Valid {
		view.ConfirmationCode = confirmationCode.String
	}
	view.ExternalRef = pgconv.StringPtrFromPgtype(externalRef)
	view.SpecialRequests = pgconv.StringPtrFromPgtype(specialReqs)
	view.Notes = pgconv.StringPtrFromPgtype(notes)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	view.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	return &view, nil
}

func collectReservationViews(rows pgx.Rows) ([]*queries.ReservationView, error) {
	var views []*queries.ReservationView
	for rows.Next() {
		view, err := scanReservationView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation row", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservation rows", err)
	}
	return views, nil
}

func occupyingStatusStrings() []string {
	out := make([]string, len(reservation.OccupyingStatuses))
	for i, s := range reservation.OccupyingStatuses {
		out[i] = s.String()
	}
	return out
}
