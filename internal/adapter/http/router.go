package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransferHandler *handler.TransferHandler
	WalletHandler   *handler.WalletHandler
	UserHandler     *handler.UserHandler
	AuthHandler     *handler.AuthHandler
	HealthHandler   *handler.HealthHandler

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer

	// TokenVerifier guards every /api route except login and sign-up.
	// Nil disables authentication.
	TokenVerifier middleware.TokenVerifier

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	AllowedOrigins   []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
			ExposedHeaders:   []string{"Location", "X-Idempotency-Replay"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health/live", cfg.HealthHandler.Liveness)
	r.Get("/health/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Public
		r.Post("/identity/login", cfg.AuthHandler.Login)
		r.Post("/users", cfg.UserHandler.Create)

		r.Group(func(r chi.Router) {
			if cfg.TokenVerifier != nil {
				r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
			}

			// Users
			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/", cfg.UserHandler.Get)
				r.Get("/wallets", cfg.UserHandler.ListWallets)
				r.Get("/transactions", cfg.UserHandler.ListTransactions)
			})

			// Wallets
			r.Post("/wallets", cfg.WalletHandler.Create)
			r.Route("/wallets/{walletID}", func(r chi.Router) {
				r.Get("/balance", cfg.WalletHandler.GetBalance)
				r.Post("/balance", cfg.WalletHandler.AddBalance)
				r.Patch("/status", cfg.WalletHandler.UpdateStatus)
				r.Get("/transactions", cfg.WalletHandler.ListTransactions)
				r.Get("/reconciliation", cfg.WalletHandler.Reconcile)
			})

			// Transactions
			r.Post("/transaction/transfer", cfg.TransferHandler.Create)
			r.Get("/transaction/{transactionID}", cfg.TransferHandler.GetTransaction)
		})
	})

	return r
}
