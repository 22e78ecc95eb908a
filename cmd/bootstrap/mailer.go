package bootstrap

import (
	"sosiego-api/internal/infra/mail"
	"sosiego-api/internal/pkg/config"
	"sosiego-api/internal/usecase/commands"

	"go.uber.org/fx"
)

var MailModule = fx.Module("mail",
	fx.Provide(
		fx.Annotate(
			NewMailjetSender,
			fx.As(new(commands.EmailSender)),
		),
	),
)

func NewMailjetSender(cfg config.Config) *mail.MailjetSender {
	return mail.NewMailjetSender(cfg.Email, cfg.Booking.PropertyName)
}
