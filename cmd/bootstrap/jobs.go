package bootstrap

import (
	"context"

	"sosiego-api/internal/jobs"
	"sosiego-api/internal/pkg/config"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"go.uber.org/fx"
)

var JobsModule = fx.Module("jobs",
	fx.Provide(
		NewSweeper,
	),
	fx.Invoke(registerSweeper),
)

func NewSweeper(
	reservationCommands commands.ReservationCommands,
	reservationQueries queries.ReservationQueries,
	mailer commands.EmailSender,
	cfg config.Config,
) *jobs.Sweeper {
	return jobs.NewSweeper(reservationCommands, reservationQueries, mailer, cfg.Booking)
}

func registerSweeper(lc fx.Lifecycle, sweeper *jobs.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return sweeper.Start()
		},
		OnStop: func(_ context.Context) error {
			sweeper.Stop()
			return nil
		},
	})
}
