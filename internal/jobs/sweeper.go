package jobs

import (
	"context"
	"log/slog"
	"time"

	"sosiego-api/internal/pkg/config"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"github.com/robfig/cron/v3"
)

const (
	sweepTimeout = 2 * time.Minute
	// Reminders go to reservations whose check-in is within two days and
	// whose payment has not arrived.
	reminderWindow = 48 * time.Hour
)

// Sweeper runs the daily maintenance jobs: cancelling expired pending
// reservations and reminding guests whose payment is about to lapse.
type Sweeper struct {
	cron                *cron.Cron
	reservationCommands commands.ReservationCommands
	reservationQueries  queries.ReservationQueries
	mailer              commands.EmailSender
	schedule            string
}

func NewSweeper(
	reservationCommands commands.ReservationCommands,
	reservationQueries queries.ReservationQueries,
	mailer commands.EmailSender,
	cfg config.BookingConfig,
) *Sweeper {
	return &Sweeper{
		cron:                cron.New(),
		reservationCommands: reservationCommands,
		reservationQueries:  reservationQueries,
		mailer:              mailer,
		schedule:            cfg.SweepSchedule,
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return errs.Wrap(err, "failed to schedule expiry sweep")
	}
	s.cron.Start()
	slog.Info("expiry sweep scheduled", "schedule", s.schedule)
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	count, err := s.reservationCommands.SweepExpired(ctx)
	if err != nil {
		slog.Error("expiry sweep failed", "error", err)
	} else if count > 0 {
		slog.Info("expiry sweep cancelled reservations", "count", count)
	}

	s.sendReminders(ctx)
}

func (s *Sweeper) sendReminders(ctx context.Context) {
	views, err := s.reservationQueries.ListExpiring(ctx, reminderWindow)
	if err != nil {
		slog.Error("failed to list expiring reservations", "error", err)
		return
	}

	for _, view := range views {
		err := s.mailer.SendPaymentReminder(ctx, commands.ReminderEmail{
			To:               view.Email,
			GuestName:        view.Name,
			ConfirmationCode: view.ConfirmationCode,
			TotalCents:       view.TotalPriceCents,
		})
		if err != nil {
			slog.Error("failed to send payment reminder",
				"reservation_id", view.ID, "to", view.Email, "error", err)
		}
	}
}
