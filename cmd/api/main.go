package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nileshbarai/distrokhata-backend/api/routes"
	"github.com/nileshbarai/distrokhata-backend/internal/catalog"
	"github.com/nileshbarai/distrokhata-backend/internal/ledger"
	"github.com/nileshbarai/distrokhata-backend/internal/notify"
	"github.com/nileshbarai/distrokhata-backend/internal/orders"
	"github.com/nileshbarai/distrokhata-backend/internal/subscription"
	"github.com/nileshbarai/distrokhata-backend/internal/users"
	"github.com/nileshbarai/distrokhata-backend/internal/window"
	"github.com/nileshbarai/distrokhata-backend/pkg/config"
	"github.com/nileshbarai/distrokhata-backend/pkg/db"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
	"github.com/nileshbarai/distrokhata-backend/pkg/metrics"
	"github.com/nileshbarai/distrokhata-backend/pkg/migrate"
	"github.com/nileshbarai/distrokhata-backend/pkg/pubsub"
	"github.com/nileshbarai/distrokhata-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	notifier := notify.NewNoopNotifier()
	if cfg.GCP.ProjectID != "" {
		psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		notifier, err = notify.NewPubSubNotifier(psClient, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create notifier", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "no gcp project configured, order notifications disabled")
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	domainMetrics := metrics.NewDomainMetrics(registry)

	gormDB := dbClient.DB()
	userSvc, err := users.NewService(users.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	priceLookup, err := catalog.NewPriceLookup(catalog.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create price lookup", err)
		os.Exit(1)
	}
	resolver, err := window.NewResolver(cfg.OrderWindow)
	if err != nil {
		logg.Error(context.Background(), "failed to create window resolver", err)
		os.Exit(1)
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB), dbClient, userSvc, domainMetrics, resolver.Location())
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	gate, err := subscription.NewGate(subscription.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription gate", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(
		orders.NewRepository(gormDB),
		dbClient,
		userSvc,
		priceLookup,
		ledgerSvc,
		gate,
		resolver,
		notifier,
		domainMetrics,
		time.Now,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DBPinger:      dbClient,
			RedisClient:   redisClient,
			OrdersService: ordersSvc,
			LedgerService: ledgerSvc,
			HTTPMetrics:   httpMetrics,
			Registry:      registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			_ = server.Close()
		}
	}
}
