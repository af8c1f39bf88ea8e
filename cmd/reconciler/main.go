package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/colmena-app/colmena-backend/internal/consolidation"
	"github.com/colmena-app/colmena-backend/internal/cron"
	"github.com/colmena-app/colmena-backend/internal/integrity"
	"github.com/colmena-app/colmena-backend/internal/shipping"
	"github.com/colmena-app/colmena-backend/pkg/config"
	"github.com/colmena-app/colmena-backend/pkg/db"
	"github.com/colmena-app/colmena-backend/pkg/logger"
	"github.com/colmena-app/colmena-backend/pkg/metrics"
	"github.com/colmena-app/colmena-backend/pkg/migrate"
	"github.com/colmena-app/colmena-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconciler"

	logg = logger.New(logger.Options{
		ServiceName: "reconciler",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockScope(cfg.App.Env)), cfg.Reconciler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler lock", err)
		os.Exit(1)
	}

	consolidationRepo := consolidation.NewRepository(dbClient.DB())
	consolidator, err := consolidation.NewService(consolidationRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create consolidation service", err)
		os.Exit(1)
	}

	shippingRepo := shipping.NewRepository(dbClient.DB())
	distributor, err := shipping.NewService(shippingRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	integrityRepo := integrity.NewRepository(dbClient.DB())
	validator, err := integrity.NewService(integrityRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create integrity service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewReconcileJob(cron.ReconcileJobParams{
		Logger:       logg,
		Campaigns:    cron.NewCampaignSource(dbClient.DB()),
		Consolidator: consolidator,
		Distributor:  distributor,
		Validator:    validator,
		Metrics:      metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(reconcileJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Reconciler.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting reconciler")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciler stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconciler shutting down gracefully")
}

func lockScope(env string) string {
	if env == "" {
		env = "local"
	}
	return "reconciler:" + env
}
