package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nileshbarai/distrokhata-backend/internal/cron"
	"github.com/nileshbarai/distrokhata-backend/internal/orders"
	"github.com/nileshbarai/distrokhata-backend/internal/subscription"
	"github.com/nileshbarai/distrokhata-backend/pkg/config"
	"github.com/nileshbarai/distrokhata-backend/pkg/db"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
	"github.com/nileshbarai/distrokhata-backend/pkg/metrics"
	"github.com/nileshbarai/distrokhata-backend/pkg/migrate"
	"github.com/nileshbarai/distrokhata-backend/pkg/redis"
)

const lockKeyFormat = "dk:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	subscriptionRepo := subscription.NewRepository(gormDB)
	gate, err := subscription.NewGate(subscriptionRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription gate", err)
		os.Exit(1)
	}

	staleOrderJob, err := cron.NewStaleOrderJob(cron.StaleOrderJobParams{
		Logger:    logg,
		DB:        dbClient,
		OrderRepo: orders.NewRepository(gormDB),
		Gate:      gate,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale order job", err)
		os.Exit(1)
	}
	planExpiryJob, err := cron.NewPlanExpiryJob(cron.PlanExpiryJobParams{
		Logger: logg,
		Repo:   subscriptionRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create plan expiry job", err)
		os.Exit(1)
	}
	usageRetentionJob, err := cron.NewUsageRetentionJob(cron.UsageRetentionJobParams{
		Logger: logg,
		Repo:   subscriptionRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create usage retention job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(staleOrderJob, planExpiryJob, usageRetentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
