package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pickline/platform/internal/app"
	"github.com/pickline/platform/internal/auth"
	"github.com/pickline/platform/internal/guard"
	"github.com/pickline/platform/internal/infra"
	"github.com/pickline/platform/internal/pipeline"
	"github.com/pickline/platform/internal/provider"
	"github.com/pickline/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	adminExpiry, err := time.ParseDuration(cfg.JWTAdminExpiry)
	if err != nil {
		return fmt.Errorf("parse admin JWT expiry: %w", err)
	}
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, adminExpiry)

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	tx := repository.NewPostgres(pool)
	engine := pipeline.NewEngine(pipeline.Deps{
		Tx:       tx,
		Provider: provider.NewMock(),
		Params: pipeline.Params{
			EdgeThreshold:              cfg.EdgeThreshold,
			StaleMaxAge:                cfg.StaleMaxAge(),
			ConsensusMinBooks:          cfg.ConsensusMinBooks,
			TrimOutliers:               cfg.ConsensusTrimOutliers,
			CloseCaptureWindow:         cfg.CloseCaptureWindow(),
			MappingTimeTolerance:       cfg.MappingTimeTolerance(),
			MappingConfidenceThreshold: cfg.MappingConfidenceThreshold,
		},
		Seed:      pipeline.DefaultSeed(),
		Breaker:   guard.NewCircuitBreaker(5, 30*time.Second),
		Publisher: infra.NewPipelineEvents(producer),
		Logger:    logger,
	})

	r := app.NewRouter(app.RouterDeps{
		Tx:          tx,
		Engine:      engine,
		JWTMgr:      jwtMgr,
		ArtifactDir: cfg.ArtifactDir,
		Logger:      logger,
	})

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
