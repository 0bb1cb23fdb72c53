// Command sweep executes one pipeline run against the configured database
// and prints the run summary as JSON. It is the cron entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pickline/platform/internal/guard"
	"github.com/pickline/platform/internal/infra"
	"github.com/pickline/platform/internal/pipeline"
	"github.com/pickline/platform/internal/provider"
	"github.com/pickline/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("sweep failed", "error", err)
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

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	engine := pipeline.NewEngine(pipeline.Deps{
		Tx:       repository.NewPostgres(pool),
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

	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	summary, err := engine.RunOnce(runCtx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
