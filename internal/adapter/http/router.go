package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iho/expensetracker/internal/adapter/http/handler"
	"github.com/iho/expensetracker/internal/adapter/http/middleware"
	"github.com/iho/expensetracker/internal/infrastructure/metrics"
	"github.com/iho/expensetracker/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ExpenseHandler     *handler.ExpenseHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	Metrics            *metrics.Metrics
	MetricsHandler     http.Handler
	Logger             zerolog.Logger
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
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

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.IdempotencyKeyHeader},
			ExposedHeaders: []string{chimiddleware.RequestIDHeader, middleware.IdempotencyReplayHeader},
			MaxAge:         300,
		}))
	}

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	createExpense := http.Handler(http.HandlerFunc(cfg.ExpenseHandler.Create))
	if cfg.IdempotencyStore != nil {
		createExpense = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap(createExpense)
	}

	r.Method(http.MethodPost, "/expenses", createExpense)
	r.Get("/expenses/{date}", cfg.ExpenseHandler.ListByDate)

	return r
}
