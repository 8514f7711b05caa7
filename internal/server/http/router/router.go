package router

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/adapter/filestore"
	"github.com/polkiloo/melodiemacher/internal/config"
	"github.com/polkiloo/melodiemacher/internal/metrics"
	"github.com/polkiloo/melodiemacher/internal/server/http/handlers"
	"github.com/polkiloo/melodiemacher/internal/server/http/middleware"
)

const maxInflatedBody = 256 << 20

// Params lists router dependencies.
type Params struct {
	fx.In

	Facade  handlers.StorefrontFacade
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics `optional:"true"`
	Health  HealthChecker    `optional:"true"`
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.RequestMetrics(p.Metrics))
	engine.Use(middleware.DecompressRequest(maxInflatedBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{filestore.PublicPrefix})))

	secure := strings.HasPrefix(p.Config.PublicBaseURL, "https://")
	checkoutHandler := handlers.NewCheckoutHandler(p.Facade)
	webhookHandler := handlers.NewWebhookHandler(p.Facade)
	marketingHandler := handlers.NewMarketingHandler(p.Facade)
	adminHandler := handlers.NewAdminHandler(p.Facade, p.Facade, p.Facade, secure)

	engine.GET("/healthz", healthHandler(p.Health, p.Logger))
	engine.GET("/metrics", gin.WrapH(p.Metrics.Handler()))
	engine.GET("/download/:orderNumber", checkoutHandler.Download)
	if p.Config.UploadDir != "" {
		engine.Static(filestore.PublicPrefix, p.Config.UploadDir)
	}

	api := engine.Group("/api")
	api.POST("/checkout", checkoutHandler.Checkout)
	api.GET("/order/:orderId", checkoutHandler.Order)
	api.POST("/webhooks/stripe", webhookHandler.Stripe)
	api.POST("/referral/validate", marketingHandler.ValidateReferral)
	api.GET("/loyalty", marketingHandler.Loyalty)

	cron := api.Group("/cron")
	cron.Use(middleware.CronSecret(p.Config.CronSecret))
	cron.POST("/drip", marketingHandler.Drip)
	cron.POST("/anniversaries", marketingHandler.Anniversaries)

	admin := api.Group("/admin")
	admin.POST("/login", adminHandler.Login)
	admin.POST("/logout", adminHandler.Logout)

	adminAuth := admin.Group("")
	adminAuth.Use(middleware.AdminRequired(p.Facade))
	adminAuth.GET("/orders", adminHandler.List)
	adminAuth.POST("/orders/batch-status", adminHandler.BatchStatus)
	adminAuth.POST("/orders/priority", adminHandler.BatchPriority)
	adminAuth.GET("/orders/:id", adminHandler.Detail)
	adminAuth.PATCH("/orders/:id/status", adminHandler.UpdateStatus)
	adminAuth.POST("/orders/:id/deliverables", adminHandler.AddDeliverable)
	adminAuth.DELETE("/orders/:id/deliverables/:deliverableId", adminHandler.RemoveDeliverable)
	adminAuth.POST("/orders/:id/priority", adminHandler.Priority)
	adminAuth.POST("/orders/:id/quality", adminHandler.Quality)
	adminAuth.POST("/orders/:id/prompt", adminHandler.Prompt)
	adminAuth.POST("/orders/:id/deliver", adminHandler.Deliver)
	adminAuth.PUT("/orders/:id/deliver", adminHandler.Deliver)
	adminAuth.POST("/referrals", adminHandler.IssueReferral)

	return engine
}
