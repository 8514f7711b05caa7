package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/config"
	"github.com/polkiloo/melodiemacher/internal/usecase"
	"github.com/polkiloo/melodiemacher/internal/worker"
)

const readHeaderTimeout = 10 * time.Second

// Module wires the facade, runtime components and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewStorefrontFacade,
		newHTTPServer,
		newProductionPipeline,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

type workerParams struct {
	fx.In

	Facade *StorefrontFacade
	Config *config.Config
	Logger *slog.Logger
}

func newProductionPipeline(p workerParams) *worker.ProductionPipeline {
	return worker.NewProductionPipeline(
		p.Facade,
		p.Config.PipelinePollInterval,
		p.Config.PollBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Pipeline   *worker.ProductionPipeline
	Config     *config.Config
	Admin      *usecase.AdminAuthUseCase `optional:"true"`
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting melodiemacher",
				slog.String("addr", p.Server.Addr),
				slog.String("public_url", p.Config.PublicBaseURL),
			)
			if p.Admin != nil && !p.Admin.LoginEnabled() {
				p.Logger.Warn("admin login disabled: ADMIN_PASSWORD_HASH missing or not a bcrypt hash")
			}
			p.Pipeline.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Pipeline.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("melodiemacher stopped")
			return nil
		},
	})
}
