package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pickline/platform/internal/domain"
)

func (s *pgStore) InsertPipelineRun(ctx context.Context, run *domain.PipelineRun) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO pipeline_runs
			(started_at, finished_at, latency_seconds, freshness_seconds,
			 close_line_coverage, mapping_anomaly_rate, quarantine_count, metadata_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		run.StartedAt, run.FinishedAt, run.LatencySeconds, run.FreshnessSeconds,
		run.CloseLineCoverage, run.MappingAnomalyRate, run.QuarantineCount, run.Metadata,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

func (s *pgStore) LatestPipelineRun(ctx context.Context) (*domain.PipelineRun, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, started_at, finished_at, latency_seconds, freshness_seconds,
		       close_line_coverage, mapping_anomaly_rate, quarantine_count, metadata_json
		FROM pipeline_runs ORDER BY id DESC LIMIT 1`)
	var r domain.PipelineRun
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.LatencySeconds, &r.FreshnessSeconds,
		&r.CloseLineCoverage, &r.MappingAnomalyRate, &r.QuarantineCount, &r.Metadata)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan pipeline run: %w", err)
	}
	return &r, nil
}
