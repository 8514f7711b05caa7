package payment

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/config"
)

// Module exposes the payment gateway to the fx graph.
var Module = fx.Provide(newGateway)

type gatewayParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGateway(p gatewayParams) Gateway {
	if p.Config.StripeSecretKey == "" {
		p.Logger.Warn("stripe key not configured, checkout disabled")
		return DisabledGateway{}
	}
	return NewStripeGateway(p.Config.StripeSecretKey, p.Config.StripeWebhookSecret, nil, p.Logger)
}
