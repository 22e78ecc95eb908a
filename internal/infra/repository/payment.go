package repository

import (
	"context"
	"encoding/json"

	"sosiego-api/internal/domain/payment"
	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `
	id, amount_cents, currency, status, external_ref, reservation_id,
	transaction_details, created_at, updated_at`

type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx pgx.Tx, p *payment.Payment) error {
	details, err := json.Marshal(p.Details())
	if err != nil {
		return infra.WrapRepoErr("failed to encode transaction details", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (
			id, amount_cents, currency, status, external_ref,
			reservation_id, transaction_details
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID(),
		p.AmountCents(),
		p.Currency(),
		string(p.Status()),
		pgconv.StringPtrToPgtype(p.ExternalRef()),
		pgconv.UUIDPtrToPgtype(p.ReservationID()),
		details,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("payment violates a unique constraint", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create payment", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByExternalRef(ctx context.Context, externalRef string) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_ref = $1`, externalRef)
	return scanPayment(row)
}

// FindByReservationID returns the most recent payment for the reservation; a
// guest may abandon a checkout and open another.
func (r *PaymentRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE reservation_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, reservationID)
	return scanPayment(row)
}

func (r *PaymentRepository) Update(ctx context.Context, tx pgx.Tx, p *payment.Payment) error {
	details, err := json.Marshal(p.Details())
	if err != nil {
		return infra.WrapRepoErr("failed to encode transaction details", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $1,
		    external_ref = $2,
		    reservation_id = $3,
		    transaction_details = $4,
		    updated_at = now()
		WHERE id = $5`,
		string(p.Status()),
		pgconv.StringPtrToPgtype(p.ExternalRef()),
		pgconv.UUIDPtrToPgtype(p.ReservationID()),
		details,
		p.ID(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update payment", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
	}
	return nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var (
		id                   uuid.UUID
		amountCents          int64
		currency, status     string
		externalRef          pgtype.Text
		reservationID        pgtype.UUID
		detailsRaw           []byte
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &amountCents, &currency, &status, &externalRef,
		&reservationID, &detailsRaw, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("payment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find payment", err)
	}

	var details payment.TransactionDetails
	if len(detailsRaw) > 0 {
		if err := json.Unmarshal(detailsRaw, &details); err != nil {
			return nil, infra.WrapRepoErr("failed to decode transaction details", err)
		}
	}

	return payment.ReconstructPayment(
		id, amountCents, currency,
		reservation.GatewayStatus(status),
		pgconv.StringPtrFromPgtype(externalRef),
		pgconv.UUIDPtrFromPgtype(reservationID),
		details,
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}
