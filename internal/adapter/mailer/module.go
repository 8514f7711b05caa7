package mailer

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/config"
	"github.com/polkiloo/melodiemacher/internal/metrics"
)

// Module exposes the mailer to the fx graph.
var Module = fx.Provide(NewRenderer, newMailer)

type mailerParams struct {
	fx.In

	Config   *config.Config
	Renderer *Renderer
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

func newMailer(p mailerParams) Mailer {
	if p.Config.ResendAPIKey == "" {
		p.Logger.Warn("resend key not configured, emails are logged only")
		return NewLogMailer(p.Renderer, p.Logger, p.Metrics)
	}
	return NewResendMailer(p.Config.ResendAPIKey, p.Config.EmailFrom, p.Renderer, p.Logger, p.Metrics)
}
