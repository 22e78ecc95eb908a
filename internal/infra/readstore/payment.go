package readstore

import (
	"context"

	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/pgconv"
	"sosiego-api/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentReadStore struct {
	db *pgxpool.Pool
}

func NewPaymentReadStore(db *pgxpool.Pool) *PaymentReadStore {
	return &PaymentReadStore{db: db}
}

func (r *PaymentReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.PaymentView, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, amount_cents, currency, status, external_ref, reservation_id, created_at, updated_at
		FROM payments WHERE id = $1`, id)
	return scanPaymentView(row, "failed to find payment by ID")
}

func (r *PaymentReadStore) FindByExternalRef(ctx context.Context, externalRef string) (*queries.PaymentView, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, amount_cents, currency, status, external_ref, reservation_id, created_at, updated_at
		FROM payments WHERE external_ref = $1`, externalRef)
	return scanPaymentView(row, "failed to find payment by external ref")
}

func scanPaymentView(row pgx.Row, failMsg string) (*queries.PaymentView, error) {
	var (
		view                 queries.PaymentView
		externalRef          pgtype.Text
		reservationID        pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&view.ID, &view.AmountCents, &view.Currency, &view.Status,
		&externalRef, &reservationID, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("payment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr(failMsg, err)
	}

	view.ExternalRef = pgconv.StringPtrFromPgtype(externalRef)
	view.ReservationID = pgconv.UUIDPtrFromPgtype(reservationID)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	view.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	return &view, nil
}
