package queries

import (
	"context"

	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/errs"

	"github.com/google/uuid"
)

type PaymentReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentView, error)
	FindByExternalRef(ctx context.Context, externalRef string) (*PaymentView, error)
}

type PaymentQueries interface {
	// GetStatus resolves by gateway payment ID first, then by local payment
	// ID, matching how callers hold whichever reference they got back.
	GetStatus(ctx context.Context, ref string) (*PaymentView, error)
}

type paymentQueriesImpl struct {
	store PaymentReadStore
}

func NewPaymentQueries(store PaymentReadStore) PaymentQueries {
	return &paymentQueriesImpl{store: store}
}

func (q *paymentQueriesImpl) GetStatus(ctx context.Context, ref string) (*PaymentView, error) {
	view, err := q.store.FindByExternalRef(ctx, ref)
	if err == nil {
		return view, nil
	}
	if !infra.IsKind(err, infra.KindNotFound) {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	id, parseErr := uuid.Parse(ref)
	if parseErr != nil {
		return nil, errs.ErrPaymentNotFound
	}
	view, err = q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}
