package domain

import (
	"encoding/json"
	"time"
)

// FeatureSnapshot freezes the feature row a pick was scored on. One per
// event per run. Features is an opaque blob at the persistence boundary.
type FeatureSnapshot struct {
	ID                int64           `json:"id"`
	EventNormalizedID int64           `json:"event_normalized_id"`
	FeatureVersion    string          `json:"feature_version"`
	Features          json.RawMessage `json:"features"`
	ComputedAt        time.Time       `json:"computed_at"`
}

// ModelArtifact references a serialized model on disk.
type ModelArtifact struct {
	ID             int64           `json:"id"`
	ModelVersion   string          `json:"model_version"`
	TrainedAt      time.Time       `json:"trained_at"`
	TrainingWindow string          `json:"training_window"`
	Metrics        json.RawMessage `json:"metrics"`
	ArtifactPath   string          `json:"artifact_path"`
}
