package components

import (
	"sosiego-api/internal/pkg/clock"
	"sosiego-api/internal/pkg/config"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewReservationQueries,
		queries.NewPaymentQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewReservationCommands,
		NewPaymentCommands,
	),
)

func NewReservationCommands(
	repo commands.ReservationRepository,
	reservationQueries queries.ReservationQueries,
	db *pgxpool.Pool,
	clk clock.Clock,
	cfg config.Config,
) commands.ReservationCommands {
	return commands.NewReservationCommands(repo, reservationQueries, db, clk, cfg.Booking.NightlyRateCents)
}

func NewPaymentCommands(
	paymentRepo commands.PaymentRepository,
	reservationRepo commands.ReservationRepository,
	gateway commands.PaymentGateway,
	mailer commands.EmailSender,
	db *pgxpool.Pool,
	clk clock.Clock,
	cfg config.Config,
) commands.PaymentCommands {
	return commands.NewPaymentCommands(paymentRepo, reservationRepo, gateway, mailer, db, clk, commands.PaymentSettings{
		PublicKey:    cfg.MercadoPago.PublicKey,
		CurrencyID:   cfg.MercadoPago.CurrencyID,
		PropertyName: cfg.Booking.PropertyName,
	})
}
