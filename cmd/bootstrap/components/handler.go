package components

import (
	"sosiego-api/internal/handler"
	"sosiego-api/internal/handler/api"
	"sosiego-api/internal/handler/middleware"
	"sosiego-api/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		api.NewPaymentHandler,
		NewAdminMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewAdminMiddleware(cfg config.Config) *middleware.AdminMiddleware {
	return middleware.NewAdminMiddleware(cfg.Admin)
}
