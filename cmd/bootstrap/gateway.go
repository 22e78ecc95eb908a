package bootstrap

import (
	"sosiego-api/internal/infra/gateway"
	"sosiego-api/internal/pkg/config"
	"sosiego-api/internal/usecase/commands"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		fx.Annotate(
			NewMercadoPagoClient,
			fx.As(new(commands.PaymentGateway)),
		),
	),
)

func NewMercadoPagoClient(cfg config.Config) *gateway.MercadoPagoClient {
	return gateway.NewMercadoPagoClient(cfg.MercadoPago)
}
