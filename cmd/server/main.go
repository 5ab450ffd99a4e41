package main

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/api"
	"github.com/clubroll/clubroll/internal/api/cron"
	v1 "github.com/clubroll/clubroll/internal/api/v1"
	"github.com/clubroll/clubroll/internal/cache"
	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/dedupe"
	"github.com/clubroll/clubroll/internal/integration/provider"
	integration "github.com/clubroll/clubroll/internal/integration/stripe"
	"github.com/clubroll/clubroll/internal/integration/stripe/webhook"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/repository"
	"github.com/clubroll/clubroll/internal/sentry"
	"github.com/clubroll/clubroll/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	_ = godotenv.Load()

	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			cache.NewInMemoryCache,

			postgres.NewDB,
			postgres.NewClient,

			dedupe.NewRedisDeduper,

			// External processor
			integration.NewClient,
			provideProviderAdapter,

			// Repositories
			repository.NewSubscriptionRepository,
			repository.NewMembershipRepository,
			repository.NewPauseRepository,
			repository.NewPaymentRepository,
			repository.NewInvoiceRepository,
			repository.NewAuditLogRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewPauseService,
			service.NewLedgerService,
			service.NewSubscriptionSyncService,
			service.NewReconciliationService,
			webhook.NewHandler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
	)

	opts = append(opts, sentry.Module())

	opts = append(opts, fx.Invoke(startServer))

	app := fx.New(opts...)
	app.Run()
}

func provideProviderAdapter(client *integration.Client, log *logger.Logger) provider.Adapter {
	return integration.NewAdapter(client, log)
}

func provideHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	pauseService service.PauseService,
	reconciliationService service.ReconciliationService,
	webhookHandler *webhook.Handler,
) api.Handlers {
	return api.Handlers{
		Health:         v1.NewHealthHandler(),
		Pause:          v1.NewPauseHandler(pauseService, log),
		Reconciliation: v1.NewReconciliationHandler(reconciliationService, log),
		Webhook:        v1.NewWebhookHandler(webhookHandler, log),

		CronPause:          cron.NewPauseHandler(pauseService, log),
		CronReconciliation: cron.NewReconciliationHandler(reconciliationService, cfg, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			db.Close()
			return nil
		},
	})
}
