package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nileshbarai/distrokhata-backend/api/controllers"
	"github.com/nileshbarai/distrokhata-backend/api/middleware"
	"github.com/nileshbarai/distrokhata-backend/internal/ledger"
	"github.com/nileshbarai/distrokhata-backend/internal/orders"
	"github.com/nileshbarai/distrokhata-backend/pkg/config"
	"github.com/nileshbarai/distrokhata-backend/pkg/db"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
	"github.com/nileshbarai/distrokhata-backend/pkg/metrics"
	pkgredis "github.com/nileshbarai/distrokhata-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	RedisClient *pkgredis.Client

	OrdersService orders.Service
	LedgerService ledger.Service

	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}

	var redisPinger db.Pinger
	if deps.RedisClient != nil {
		redisPinger = deps.RedisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(deps.DBPinger, redisPinger)))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	var idempotencyStore pkgredis.IdempotencyStore
	if deps.RedisClient != nil {
		idempotencyStore = deps.RedisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.OrdersService, logg))
			r.Post("/", controllers.CreateOrder(deps.OrdersService, logg))
			r.Get("/current-window", controllers.CurrentWindow(deps.OrdersService))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Post("/complete", controllers.CompleteOrders(deps.OrdersService, logg))
				r.Post("/payment-status", controllers.UpdateOrdersPaymentStatus(deps.OrdersService, logg))
				r.Post("/cancel", controllers.CancelOrders(deps.OrdersService, logg))
			})

			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(deps.OrdersService, logg))
				r.Post("/cancel", controllers.CancelOrder(deps.OrdersService, logg))
				r.With(middleware.RequireAdmin(logg)).Put("/", controllers.UpdateOrder(deps.OrdersService, logg))
			})
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Get("/outstanding", controllers.OutstandingReport(deps.LedgerService, logg))
			r.Get("/summary", controllers.LedgerSummary(deps.LedgerService, logg))
			r.Post("/payments", controllers.RecordPayment(deps.LedgerService, logg))
			r.Post("/adjustments", controllers.RecordAdjustment(deps.LedgerService, logg))

			r.Route("/{distributorID}", func(r chi.Router) {
				r.Get("/balance", controllers.DistributorBalance(deps.LedgerService, logg))
				r.Get("/statement", controllers.DistributorStatement(deps.LedgerService, logg))
			})
		})
	})

	return r
}
