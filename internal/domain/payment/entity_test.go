//go:build unit

package payment_test

import (
	"testing"

	"sosiego-api/internal/domain/payment"
	"sosiego-api/internal/domain/reservation"
	"sosiego-api/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewPaymentBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, reservation.GatewayPending, actual.Status())
		assert.Equal(t, int64(13500000), actual.AmountCents())
		assert.Equal(t, "ARS", actual.Currency())
		assert.Nil(t, actual.ReservationID())
		assert.Nil(t, actual.ExternalRef())
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := builder.NewPaymentBuilder().WithAmountCents(0).BuildDomain()
		require.ErrorIs(t, err, payment.ErrNonPositiveAmount)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := builder.NewPaymentBuilder().WithAmountCents(-500).BuildDomain()
		require.ErrorIs(t, err, payment.ErrNonPositiveAmount)
	})

	t.Run("missing currency", func(t *testing.T) {
		_, err := builder.NewPaymentBuilder().WithCurrency("").BuildDomain()
		require.ErrorIs(t, err, payment.ErrMissingCurrency)
	})

	t.Run("carries draft details", func(t *testing.T) {
		draft := builder.NewReservationBuilder().BuildDraft()
		actual, err := builder.NewPaymentBuilder().WithDraft(draft).BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual.Draft())
		assert.Equal(t, "2026-09-10", actual.Draft().CheckIn)
	})
}

func TestRecordGatewayStatus(t *testing.T) {
	const extRef = "118734251977"

	t.Run("first report changes the record", func(t *testing.T) {
		p := builder.NewPaymentBuilder().BuildReconstructed()
		assert.True(t, p.RecordGatewayStatus(reservation.GatewayApproved, extRef))
		assert.Equal(t, reservation.GatewayApproved, p.Status())
		require.NotNil(t, p.ExternalRef())
		assert.Equal(t, extRef, *p.ExternalRef())
	})

	t.Run("identical replay reports no change", func(t *testing.T) {
		p := builder.NewPaymentBuilder().
			WithStatus(reservation.GatewayApproved).
			WithExternalRef(extRef).
			BuildReconstructed()
		assert.False(t, p.RecordGatewayStatus(reservation.GatewayApproved, extRef))
	})

	t.Run("approved is sticky against late downgrades", func(t *testing.T) {
		p := builder.NewPaymentBuilder().
			WithStatus(reservation.GatewayApproved).
			WithExternalRef(extRef).
			BuildReconstructed()

		assert.False(t, p.RecordGatewayStatus(reservation.GatewayRejected, extRef))
		assert.False(t, p.RecordGatewayStatus(reservation.GatewayInProcess, extRef))
		assert.Equal(t, reservation.GatewayApproved, p.Status())
	})

	t.Run("pending to in_process to approved", func(t *testing.T) {
		p := builder.NewPaymentBuilder().BuildReconstructed()
		assert.True(t, p.RecordGatewayStatus(reservation.GatewayInProcess, extRef))
		assert.True(t, p.RecordGatewayStatus(reservation.GatewayApproved, extRef))
		assert.Equal(t, reservation.GatewayApproved, p.Status())
	})
}

func TestAttachReservation(t *testing.T) {
	p := builder.NewPaymentBuilder().BuildReconstructed()
	require.Nil(t, p.ReservationID())

	id := uuid.New()
	p.AttachReservation(id)
	require.NotNil(t, p.ReservationID())
	assert.Equal(t, id, *p.ReservationID())
}
