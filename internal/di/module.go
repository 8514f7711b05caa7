package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/adapter/assistant"
	"github.com/polkiloo/melodiemacher/internal/adapter/filestore"
	"github.com/polkiloo/melodiemacher/internal/adapter/mailer"
	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/app"
	"github.com/polkiloo/melodiemacher/internal/config"
	"github.com/polkiloo/melodiemacher/internal/logger"
	"github.com/polkiloo/melodiemacher/internal/metrics"
	"github.com/polkiloo/melodiemacher/internal/pkg/auth"
	"github.com/polkiloo/melodiemacher/internal/server/http/handlers"
	"github.com/polkiloo/melodiemacher/internal/server/http/router"
	"github.com/polkiloo/melodiemacher/internal/storage/postgres"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

// Module assembles the application graph. opts are appended last so tests can
// replace any dependency.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		payment.Module,
		mailer.Module,
		assistant.Module,
		filestore.Module,
		usecase.Module,
		fx.Provide(
			func(f *app.StorefrontFacade) handlers.StorefrontFacade { return f },
			func(s *postgres.Storage) router.HealthChecker { return s },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
