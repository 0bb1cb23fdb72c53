// Package app assembles the HTTP surface over the pipeline core.
package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pickline/platform/internal/auth"
	"github.com/pickline/platform/internal/guard"
	"github.com/pickline/platform/internal/handler"
	"github.com/pickline/platform/internal/pipeline"
	"github.com/pickline/platform/internal/repository"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Tx          repository.TxManager
	Engine      *pipeline.Engine
	JWTMgr      *auth.JWTManager
	ArtifactDir string
	Logger      *slog.Logger
}

// NewRouter assembles the chi.Router with all routes and middleware.
// Read views are public; the admin triggers require an operator token
// and sit behind a per-client rate limit.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	reader := deps.Tx.Reader()

	picksHandler := handler.NewPicksHandler(reader)
	metricsHandler := handler.NewMetricsHandler(reader)
	adminLimiter := guard.NewRateLimiter(10, time.Minute)
	adminHandler := handler.NewAdminHandler(deps.Tx, deps.Engine, deps.ArtifactDir, adminLimiter)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(reader))

	// Read-only views (no auth)
	r.Route("/picks", func(r chi.Router) {
		r.Get("/today", picksHandler.GetToday)
		r.Get("/{pickID}", picksHandler.GetByID)
	})
	r.Get("/metrics/clv", metricsHandler.GetCLV)

	// Operator-authenticated triggers
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate(deps.JWTMgr))
		r.Use(auth.RequireRole(auth.WriteRoles()...))

		r.Post("/retrain", adminHandler.Retrain)
		r.Post("/run-once", adminHandler.RunOnce)
	})

	return r
}
