package api

import (
	"github.com/clubroll/clubroll/internal/api/cron"
	v1 "github.com/clubroll/clubroll/internal/api/v1"
	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health         *v1.HealthHandler
	Pause          *v1.PauseHandler
	Reconciliation *v1.ReconciliationHandler
	Webhook        *v1.WebhookHandler

	CronPause          *cron.PauseHandler
	CronReconciliation *cron.ReconciliationHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	cronGroup.Use(middleware.CronAuthMiddleware(cfg))
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	pauses := router.Group("/pauses")
	{
		pauses.POST("", handlers.Pause.SchedulePause)
		pauses.POST("/:id/cancel", handlers.Pause.CancelPause)
	}

	reconciliation := router.Group("/reconciliation")
	{
		reconciliation.POST("/run", handlers.Reconciliation.Run)
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Webhook.HandleStripeWebhook)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	pauses := router.Group("/pauses")
	{
		pauses.POST("/apply", handlers.CronPause.ApplyPauses)
		pauses.POST("/resume", handlers.CronPause.ResumePauses)
		pauses.POST("/verify", handlers.CronPause.VerifyPauses)
	}

	router.POST("/reconciliation", handlers.CronReconciliation.ReconcileAll)
}
