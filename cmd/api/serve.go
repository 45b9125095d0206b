package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/personalisation-service/internal/api/http"
	"github.com/spec-kit/personalisation-service/internal/api/http/handlers"
	"github.com/spec-kit/personalisation-service/internal/auth"
	"github.com/spec-kit/personalisation-service/internal/cdp"
	"github.com/spec-kit/personalisation-service/internal/content"
	"github.com/spec-kit/personalisation-service/internal/cookies"
	"github.com/spec-kit/personalisation-service/internal/events"
	"github.com/spec-kit/personalisation-service/internal/observability"
	"github.com/spec-kit/personalisation-service/internal/persistence"
	"github.com/spec-kit/personalisation-service/internal/repository"
	"github.com/spec-kit/personalisation-service/internal/service"
	"github.com/spec-kit/personalisation-service/internal/worker"
)

// cdpTokenTTL bounds the lifetime of service tokens sent to the CDP.
const cdpTokenTTL = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cms, err := content.Load(cfg.Content.Path)
	if err != nil {
		return err
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return err
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var records repository.ConsentRecordRepository
	if pool := pg.PoolHandle(); pool != nil {
		records = repository.NewConsentRecordRepository(pool)
	}
	auditService := service.NewAuditService(dispatcher, records, auth.NewVisitorHasher(cfg.Auth.VisitorHashKey), logger)
	worker.StartEventSubscribers(auditService, service.NewNotificationService(dispatcher, logger))

	dependencies := map[string]handlers.Pinger{"postgres": nil}
	if records != nil {
		dependencies["postgres"] = pg
	}

	var (
		client   cdp.Client = cdp.Noop{}
		delivery *worker.DeliveryWorker
	)
	if cfg.CDP.Enabled() {
		httpClient := cdp.NewHTTPClient(cfg.CDP.BaseURL, auth.NewTokenManager(cfg.CDP.SigningSecret, cdpTokenTTL), cfg.CDP.Timeout())
		client = httpClient

		if cfg.CDP.Queued {
			rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
			defer rdb.Close()
			dependencies["redis"] = rdb

			client = cdp.NewQueueClient(rdb.Client, cfg.CDP.QueueKey)
			delivery = worker.NewDeliveryWorker(worker.DeliveryDependencies{
				Queue:   rdb.Client,
				Key:     cfg.CDP.QueueKey,
				Client:  httpClient,
				Workers: cfg.CDP.Workers,
				Wait:    time.Duration(cfg.CDP.PollWaitSeconds) * time.Second,
				Timeout: cfg.CDP.Timeout(),
				Logger:  logger,
				Metrics: metrics,
			})
			delivery.Start(ctx)
		}
	} else {
		logger.Warn("CDP_BASE_URL not provided; CDP calls are discarded")
	}

	coordinator := service.NewCoordinator(service.CoordinatorDependencies{
		CDP:        client,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		WithBanner: cms.Banner != nil,
	})

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Preferences: handlers.NewPreferencesHandler(handlers.PreferencesConfig{
			Coordinator: coordinator,
			Content:     cms,
			Cookies:     cookies.PolicyFromConfig(cfg.Cookies),
			CommitMode:  cfg.App.CommitStrategy,
			HomePath:    cfg.App.HomePath,
		}),
		Audit:          handlers.NewAuditHandler(auditService),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("commit", cfg.App.CommitStrategy))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(cfg.App.RequestTimeout()); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	if delivery != nil {
		delivery.Wait()
	}
	return nil
}
