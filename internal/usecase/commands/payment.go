package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sosiego-api/internal/domain/payment"
	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/infra"
	"sosiego-api/internal/pkg/clock"
	"sosiego-api/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Checkout back URLs, resolved against the configured frontend origin by the
// gateway client.
const (
	checkoutSuccessPath = "/payment/success"
	checkoutFailurePath = "/payment/failure"
	checkoutPendingPath = "/payment/pending"
)

// PaymentSettings carries the booking-level values the payment flows embed in
// checkout sessions and responses.
type PaymentSettings struct {
	PublicKey    string
	CurrencyID   string
	PropertyName string
}

type CreatePreferenceParams struct {
	// Exactly one of ReservationID or Draft is set: a preference either pays
	// for an existing pending reservation or carries a draft to be promoted
	// on approval.
	ReservationID *uuid.UUID
	Draft         *payment.Draft
}

type PreferenceResult struct {
	PaymentID        uuid.UUID
	PreferenceID     string
	InitPoint        string
	SandboxInitPoint string
	PublicKey        string
}

type DirectChargeParams struct {
	CardToken     string
	Installments  int
	PayerEmail    string
	ReservationID *uuid.UUID
	Draft         *payment.Draft
}

type ChargeResult struct {
	PaymentID         uuid.UUID
	ExternalPaymentID string
	Status            reservation.GatewayStatus
	StatusDetail      string
	Outcome           ReconcileOutcome
}

type NotificationParams struct {
	Type   string
	DataID string
}

// ReconcileOutcome names what a gateway notification did to local state. The
// webhook handler acknowledges every outcome; these exist for logging and
// tests, not for the gateway's benefit.
type ReconcileOutcome string

const (
	OutcomeIgnored            ReconcileOutcome = "ignored"
	OutcomeApplied            ReconcileOutcome = "applied"
	OutcomeReplayed           ReconcileOutcome = "replayed"
	OutcomeUnresolved         ReconcileOutcome = "unresolved"
	OutcomeRejectedTransition ReconcileOutcome = "rejected_transition"
	OutcomeConflict           ReconcileOutcome = "conflict"
	OutcomeGatewayUnavailable ReconcileOutcome = "gateway_unavailable"
)

type PaymentCommands interface {
	CreatePreference(ctx context.Context, params CreatePreferenceParams) (*PreferenceResult, error)
	ChargeDirect(ctx context.Context, params DirectChargeParams) (*ChargeResult, error)
	Reconcile(ctx context.Context, n NotificationParams) (ReconcileOutcome, error)
}

type paymentUseCaseImpl struct {
	paymentRepo     PaymentRepository
	reservationRepo ReservationRepository
	gateway         PaymentGateway
	mailer          EmailSender
	db              TxManager
	clock           clock.Clock
	settings        PaymentSettings
}

func NewPaymentCommands(
	paymentRepo PaymentRepository,
	reservationRepo ReservationRepository,
	gateway PaymentGateway,
	mailer EmailSender,
	db TxManager,
	clock clock.Clock,
	settings PaymentSettings,
) PaymentCommands {
	return &paymentUseCaseImpl{
		paymentRepo:     paymentRepo,
		reservationRepo: reservationRepo,
		gateway:         gateway,
		mailer:          mailer,
		db:              db,
		clock:           clock,
		settings:        settings,
	}
}

// CreatePreference opens a checkout session. In reservation mode the external
// reference is the reservation ID; in draft mode it is the local payment ID,
// minted before the gateway call so the notification can find its way back.
// The gateway is called before anything is persisted: a gateway failure must
// not leave an orphan payment row.
func (p *paymentUseCaseImpl) CreatePreference(ctx context.Context, params CreatePreferenceParams) (*PreferenceResult, error) {
	switch {
	case params.ReservationID != nil:
		return p.createReservationPreference(ctx, *params.ReservationID)
	case params.Draft != nil:
		return p.createDraftPreference(ctx, *params.Draft)
	default:
		return nil, errs.ErrDomainValidation
	}
}

func (p *paymentUseCaseImpl) createReservationPreference(ctx context.Context, reservationID uuid.UUID) (*PreferenceResult, error) {
	res, err := p.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if res.PaymentStatus() == reservation.PaymentPaid {
		return nil, errs.ErrAlreadyPaid
	}
	today := reservation.DateOf(p.clock.Now())
	if res.Stay().CheckIn().Before(today) {
		return nil, errs.ErrPastCheckIn
	}

	session, err := p.gateway.CreateCheckout(ctx, p.checkoutRequest(
		res.Name(), res.Email(), res.Phone(),
		res.TotalPriceCents(),
		res.ConfirmationCode(),
		res.ID().String(),
	))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrGatewayUnavailable)
	}

	id := res.ID()
	record, err := payment.NewPayment(res.TotalPriceCents(), p.settings.CurrencyID, &id, payment.TransactionDetails{
		PreferenceID: session.PreferenceID,
		InitPoint:    session.InitPoint,
	})
	if err != nil {
		return nil, err
	}

	if err := p.persistPayment(ctx, record); err != nil {
		return nil, err
	}
	return p.preferenceResult(record.ID(), session), nil
}

func (p *paymentUseCaseImpl) createDraftPreference(ctx context.Context, draft payment.Draft) (*PreferenceResult, error) {
	stay, err := draftStay(draft)
	if err != nil {
		return nil, err
	}
	today := reservation.DateOf(p.clock.Now())
	if stay.CheckIn().Before(today) {
		return nil, errs.ErrPastCheckIn
	}

	record, err := payment.NewPayment(draft.TotalPriceCents, p.settings.CurrencyID, nil, payment.TransactionDetails{
		Draft: &draft,
	})
	if err != nil {
		return nil, err
	}

	session, err := p.gateway.CreateCheckout(ctx, p.checkoutRequest(
		draft.Name, draft.Email, draft.Phone,
		draft.TotalPriceCents,
		"", // no confirmation code yet
		record.ID().String(),
	))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrGatewayUnavailable)
	}

	record = withSession(record, session)

	if err := p.persistPayment(ctx, record); err != nil {
		return nil, err
	}
	return p.preferenceResult(record.ID(), session), nil
}

// withSession rebuilds the payment with the checkout session folded into its
// details; the entity keeps details immutable after construction.
func withSession(record *payment.Payment, session *CheckoutSession) *payment.Payment {
	details := record.Details()
	details.PreferenceID = session.PreferenceID
	details.InitPoint = session.InitPoint
	return payment.ReconstructPayment(
		record.ID(), record.AmountCents(), record.Currency(), record.Status(),
		record.ExternalRef(), record.ReservationID(), details,
		record.CreatedAt(), record.UpdatedAt(),
	)
}

func (p *paymentUseCaseImpl) checkoutRequest(name, email, phone string, amountCents int64, code, externalRef string) CheckoutRequest {
	title := fmt.Sprintf("Reserva - %s", p.settings.PropertyName)
	description := title
	if code != "" {
		description = fmt.Sprintf("%s (%s)", title, code)
	}
	return CheckoutRequest{
		Title:             title,
		Description:       description,
		AmountCents:       amountCents,
		CurrencyID:        p.settings.CurrencyID,
		PayerName:         name,
		PayerEmail:        email,
		PayerPhone:        phone,
		ExternalReference: externalRef,
		SuccessPath:       checkoutSuccessPath,
		FailurePath:       checkoutFailurePath,
		PendingPath:       checkoutPendingPath,
	}
}

func (p *paymentUseCaseImpl) preferenceResult(paymentID uuid.UUID, session *CheckoutSession) *PreferenceResult {
	return &PreferenceResult{
		PaymentID:        paymentID,
		PreferenceID:     session.PreferenceID,
		InitPoint:        session.InitPoint,
		SandboxInitPoint: session.SandboxInitPoint,
		PublicKey:        p.settings.PublicKey,
	}
}

func (p *paymentUseCaseImpl) persistPayment(ctx context.Context, record *payment.Payment) error {
	return p.inTx(ctx, func(tx pgx.Tx) error {
		if err := p.paymentRepo.Create(ctx, tx, record); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
}

// ChargeDirect charges a tokenized card and immediately reconciles the result
// through the same path webhook notifications take, so an approved charge
// confirms (or promotes) the reservation before the response is written.
func (p *paymentUseCaseImpl) ChargeDirect(ctx context.Context, params DirectChargeParams) (*ChargeResult, error) {
	var (
		record      *payment.Payment
		amountCents int64
		description string
		err         error
	)

	switch {
	case params.ReservationID != nil:
		res, findErr := p.reservationRepo.FindByID(ctx, *params.ReservationID)
		if findErr != nil {
			if infra.IsKind(findErr, infra.KindNotFound) {
				return nil, errs.ErrReservationNotFound
			}
			return nil, errs.Mark(findErr, errs.ErrDatabaseOperationFailed)
		}
		if res.PaymentStatus() == reservation.PaymentPaid {
			return nil, errs.ErrAlreadyPaid
		}
		amountCents = res.TotalPriceCents()
		description = fmt.Sprintf("Reserva - %s (%s)", p.settings.PropertyName, res.ConfirmationCode())
		id := res.ID()
		record, err = payment.NewPayment(amountCents, p.settings.CurrencyID, &id, payment.TransactionDetails{})
	case params.Draft != nil:
		if _, err := draftStay(*params.Draft); err != nil {
			return nil, err
		}
		amountCents = params.Draft.TotalPriceCents
		description = fmt.Sprintf("Reserva - %s", p.settings.PropertyName)
		record, err = payment.NewPayment(amountCents, p.settings.CurrencyID, nil, payment.TransactionDetails{
			Draft: params.Draft,
		})
	default:
		return nil, errs.ErrDomainValidation
	}
	if err != nil {
		return nil, err
	}

	if err := p.persistPayment(ctx, record); err != nil {
		return nil, err
	}

	gw, err := p.gateway.ChargeDirect(ctx, DirectChargeRequest{
		CardToken:         params.CardToken,
		AmountCents:       amountCents,
		CurrencyID:        p.settings.CurrencyID,
		Description:       description,
		PayerEmail:        params.PayerEmail,
		ExternalReference: p.externalReference(record),
		Installments:      params.Installments,
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrGatewayUnavailable)
	}

	outcome, err := p.applyGatewayResult(ctx, gw)
	if err != nil {
		return nil, err
	}
	return &ChargeResult{
		PaymentID:         record.ID(),
		ExternalPaymentID: gw.ID,
		Status:            gw.Status,
		StatusDetail:      gw.StatusDetail,
		Outcome:           outcome,
	}, nil
}

func (p *paymentUseCaseImpl) externalReference(record *payment.Payment) string {
	if record.ReservationID() != nil {
		return record.ReservationID().String()
	}
	return record.ID().String()
}

// Reconcile handles one gateway notification. Deliveries may arrive out of
// order, duplicated, or for payments this service never initiated, so every
// path degrades to a classified outcome rather than an error the gateway
// would retry forever.
func (p *paymentUseCaseImpl) Reconcile(ctx context.Context, n NotificationParams) (ReconcileOutcome, error) {
	if n.Type != "payment" || n.DataID == "" {
		return OutcomeIgnored, nil
	}

	gw, err := p.gateway.GetPayment(ctx, n.DataID)
	if err != nil {
		return OutcomeGatewayUnavailable, errs.Mark(err, errs.ErrGatewayUnavailable)
	}

	return p.applyGatewayResult(ctx, gw)
}

// applyGatewayResult resolves the gateway payment's external reference to
// local state and applies the reported status. The external reference is
// either a reservation ID (preference for an existing reservation) or a local
// payment ID (draft checkout).
func (p *paymentUseCaseImpl) applyGatewayResult(ctx context.Context, gw *GatewayPayment) (ReconcileOutcome, error) {
	refID, err := uuid.Parse(gw.ExternalReference)
	if err != nil {
		slog.Warn("gateway notification with foreign external reference",
			"external_payment_id", gw.ID, "external_reference", gw.ExternalReference)
		return OutcomeUnresolved, nil
	}

	res, err := p.reservationRepo.FindByID(ctx, refID)
	switch {
	case err == nil:
		return p.reconcileReservation(ctx, res.ID(), gw)
	case infra.IsKind(err, infra.KindNotFound):
		// fall through to payment-record resolution
	default:
		return OutcomeUnresolved, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	record, err := p.paymentRepo.FindByID(ctx, refID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			slog.Warn("gateway notification matches no reservation or payment",
				"external_payment_id", gw.ID, "external_reference", gw.ExternalReference)
			return OutcomeUnresolved, nil
		}
		return OutcomeUnresolved, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if record.ReservationID() != nil {
		// A previous delivery already promoted this draft.
		return p.reconcileReservation(ctx, *record.ReservationID(), gw)
	}
	return p.promoteDraft(ctx, record, gw)
}

// reconcileReservation applies a gateway status to an existing reservation
// and its payment record inside one transaction. The approved transition
// re-checks occupancy under the slot lock: a pending reservation does not
// block the calendar, so by payment time the dates may be gone.
func (p *paymentUseCaseImpl) reconcileReservation(ctx context.Context, reservationID uuid.UUID, gw *GatewayPayment) (ReconcileOutcome, error) {
	var (
		outcome   ReconcileOutcome
		emailData *ConfirmationEmail
	)

	err := p.inTx(ctx, func(tx pgx.Tx) error {
		res, err := p.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if gw.Status == reservation.GatewayApproved && res.Status() == reservation.StatusPending {
			if err := p.reservationRepo.AcquireSlotLock(ctx, tx); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			id := res.ID()
			overlaps, err := p.reservationRepo.CountOccupyingOverlaps(ctx, tx, res.Stay(), &id)
			if err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			if overlaps > 0 {
				slog.Error("approved payment for dates no longer available, reservation left pending for manual follow-up",
					"reservation_id", res.ID(), "external_payment_id", gw.ID)
				outcome = OutcomeConflict
				return p.recordOnly(ctx, tx, res.ID(), gw)
			}
		}

		previous := res.Status()
		changed, err := res.ApplyGatewayStatus(gw.Status)
		if err != nil {
			slog.Warn("gateway status cannot apply to reservation state",
				"reservation_id", res.ID(), "status", string(gw.Status), "current", string(previous))
			outcome = OutcomeRejectedTransition
			return p.recordOnly(ctx, tx, res.ID(), gw)
		}
		if !changed {
			outcome = OutcomeReplayed
			return p.recordOnly(ctx, tx, res.ID(), gw)
		}

		res.SetExternalRef(gw.ID)
		applied, err := p.reservationRepo.UpdateState(ctx, tx, res, previous)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !applied {
			outcome = OutcomeConflict
			return nil
		}

		if err := p.updatePaymentRecord(ctx, tx, res.ID(), gw); err != nil {
			return err
		}

		outcome = OutcomeApplied
		if res.Status() == reservation.StatusConfirmed {
			emailData = confirmationEmailFor(res)
		}
		return nil
	})
	if err != nil {
		return outcome, err
	}

	p.sendConfirmation(ctx, emailData)
	return outcome, nil
}

// promoteDraft turns an approved draft checkout into a real reservation. A
// non-approved status only updates the payment record; there is nothing else
// to cancel yet.
func (p *paymentUseCaseImpl) promoteDraft(ctx context.Context, record *payment.Payment, gw *GatewayPayment) (ReconcileOutcome, error) {
	if !record.RecordGatewayStatus(gw.Status, gw.ID) {
		return OutcomeReplayed, nil
	}

	if gw.Status != reservation.GatewayApproved {
		err := p.inTx(ctx, func(tx pgx.Tx) error {
			if err := p.paymentRepo.Update(ctx, tx, record); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			return nil
		})
		if err != nil {
			return OutcomeUnresolved, err
		}
		return OutcomeApplied, nil
	}

	draft := record.Draft()
	if draft == nil {
		slog.Error("approved draft payment has no draft details", "payment_id", record.ID(), "external_payment_id", gw.ID)
		return OutcomeUnresolved, nil
	}

	stay, err := draftStay(*draft)
	if err != nil {
		return OutcomeUnresolved, err
	}

	code, err := issueConfirmationCode(ctx, p.reservationRepo, p.clock)
	if err != nil {
		return OutcomeUnresolved, err
	}

	res, err := reservation.NewPaidReservation(
		stay, draft.Guests,
		draft.Name, draft.Email, draft.Phone,
		draft.TotalPriceCents, code, draft.SpecialRequests,
	)
	if err != nil {
		return OutcomeUnresolved, err
	}
	res.SetExternalRef(gw.ID)

	var outcome ReconcileOutcome
	err = p.inTx(ctx, func(tx pgx.Tx) error {
		if err := p.reservationRepo.AcquireSlotLock(ctx, tx); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		overlaps, err := p.reservationRepo.CountOccupyingOverlaps(ctx, tx, stay, nil)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if overlaps > 0 {
			slog.Error("approved draft payment for dates no longer available, payment kept for manual follow-up",
				"payment_id", record.ID(), "external_payment_id", gw.ID)
			outcome = OutcomeConflict
			if err := p.paymentRepo.Update(ctx, tx, record); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			return nil
		}

		if err := p.reservationRepo.Create(ctx, tx, res); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		record.AttachReservation(res.ID())
		if err := p.paymentRepo.Update(ctx, tx, record); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		outcome = OutcomeApplied
		return nil
	})
	if err != nil {
		return outcome, err
	}

	if outcome == OutcomeApplied {
		p.sendConfirmation(ctx, confirmationEmailFor(res))
	}
	return outcome, nil
}

// recordOnly keeps the payment record in step when the reservation itself
// does not change (replays, rejected transitions, conflicts).
func (p *paymentUseCaseImpl) recordOnly(ctx context.Context, tx pgx.Tx, reservationID uuid.UUID, gw *GatewayPayment) error {
	return p.updatePaymentRecord(ctx, tx, reservationID, gw)
}

func (p *paymentUseCaseImpl) updatePaymentRecord(ctx context.Context, tx pgx.Tx, reservationID uuid.UUID, gw *GatewayPayment) error {
	record, err := p.paymentRepo.FindByReservationID(ctx, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// Checkout may have been opened outside this service; the
			// reservation transition still stands on its own.
			return nil
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !record.RecordGatewayStatus(gw.Status, gw.ID) {
		return nil
	}
	if err := p.paymentRepo.Update(ctx, tx, record); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func (p *paymentUseCaseImpl) sendConfirmation(ctx context.Context, data *ConfirmationEmail) {
	if data == nil {
		return
	}
	if err := p.mailer.SendReservationConfirmed(ctx, *data); err != nil {
		slog.Error("failed to send confirmation email", "to", data.To, "code", data.ConfirmationCode, "error", err)
	}
}

func (p *paymentUseCaseImpl) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func draftStay(draft payment.Draft) (reservation.Stay, error) {
	checkIn, err := reservation.ParseDate(draft.CheckIn)
	if err != nil {
		return reservation.Stay{}, errs.Mark(err, errs.ErrInvalidDateRange)
	}
	checkOut, err := reservation.ParseDate(draft.CheckOut)
	if err != nil {
		return reservation.Stay{}, errs.Mark(err, errs.ErrInvalidDateRange)
	}
	return reservation.NewStay(checkIn, checkOut)
}

func confirmationEmailFor(res *reservation.Reservation) *ConfirmationEmail {
	return &ConfirmationEmail{
		To:               res.Email(),
		GuestName:        res.Name(),
		GuestPhone:       res.Phone(),
		ConfirmationCode: res.ConfirmationCode(),
		CheckIn:          res.Stay().CheckIn().String(),
		CheckOut:         res.Stay().CheckOut().String(),
		Nights:           res.Stay().Nights(),
		Guests:           res.Guests(),
		TotalCents:       res.TotalPriceCents(),
	}
}
