package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pickline/platform/internal/domain"
)

func (s *pgStore) InsertOddsSnapshot(ctx context.Context, snap *domain.OddsSnapshot) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO odds_snapshots
			(event_raw_id, event_normalized_id, book, market, side, price, timestamp, is_stale)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		snap.EventRawID, snap.EventNormalizedID, snap.Book, snap.Market,
		snap.Side, snap.Price, snap.Timestamp, snap.IsStale,
	).Scan(&snap.ID)
	if err != nil {
		return fmt.Errorf("insert odds snapshot: %w", err)
	}
	return nil
}

func (s *pgStore) InsertMarketConsensus(ctx context.Context, mc *domain.MarketConsensus) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO market_consensus
			(event_normalized_id, market, consensus_prob, consensus_price, timestamp)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		mc.EventNormalizedID, mc.Market, mc.ConsensusProb, mc.ConsensusPrice, mc.Timestamp,
	).Scan(&mc.ID)
	if err != nil {
		return fmt.Errorf("insert market consensus: %w", err)
	}
	return nil
}

func (s *pgStore) InsertFeatureSnapshot(ctx context.Context, fs *domain.FeatureSnapshot) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO feature_snapshots (event_normalized_id, feature_version, features_json, computed_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		fs.EventNormalizedID, fs.FeatureVersion, fs.Features, fs.ComputedAt,
	).Scan(&fs.ID)
	if err != nil {
		return fmt.Errorf("insert feature snapshot: %w", err)
	}
	return nil
}

func (s *pgStore) LatestModelArtifact(ctx context.Context) (*domain.ModelArtifact, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, model_version, trained_at, training_window, metrics_json, artifact_path
		FROM model_artifacts ORDER BY id DESC LIMIT 1`)
	var a domain.ModelArtifact
	err := row.Scan(&a.ID, &a.ModelVersion, &a.TrainedAt, &a.TrainingWindow, &a.Metrics, &a.ArtifactPath)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan model artifact: %w", err)
	}
	return &a, nil
}

func (s *pgStore) InsertModelArtifact(ctx context.Context, artifact *domain.ModelArtifact) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO model_artifacts (model_version, trained_at, training_window, metrics_json, artifact_path)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		artifact.ModelVersion, artifact.TrainedAt, artifact.TrainingWindow,
		artifact.Metrics, artifact.ArtifactPath,
	).Scan(&artifact.ID)
	if err != nil {
		return fmt.Errorf("insert model artifact: %w", err)
	}
	return nil
}
