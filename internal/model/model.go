// Package model trains and scores the baseline home-win model. Artifacts
// are logistic-regression weights serialized as JSON under the configured
// artifact directory, keyed by model version.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pickline/platform/internal/feature"
)

// Artifact is the serialized model: weights over the canonical feature
// columns plus an intercept.
type Artifact struct {
	ModelVersion string    `json:"model_version"`
	Columns      []string  `json:"columns"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// Metrics summarizes a training run for the model_artifacts row.
type Metrics struct {
	NSamples  int    `json:"n_samples"`
	TrainedAt string `json:"trained_at"`
}

// Gradient-descent settings for the baseline fit. 400 iterations matches
// the solver budget the baseline was tuned with.
const (
	trainIterations = 400
	learningRate    = 0.5
)

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// TrainBaseline fits a logistic regression on the given rows and labels and
// writes the artifact to dir as <modelVersion>.json.
func TrainBaseline(rows []feature.Row, labels []int, modelVersion, dir string) (string, Metrics, error) {
	if len(rows) == 0 || len(rows) != len(labels) {
		return "", Metrics{}, fmt.Errorf("train baseline: %d rows vs %d labels", len(rows), len(labels))
	}

	vectors := make([][]float64, len(rows))
	for i, r := range rows {
		vectors[i] = r.Vector()
	}

	weights := make([]float64, len(feature.Columns))
	bias := 0.0
	n := float64(len(vectors))

	for iter := 0; iter < trainIterations; iter++ {
		grad := make([]float64, len(weights))
		gradBias := 0.0
		for i, x := range vectors {
			z := bias
			for j, w := range weights {
				z += w * x[j]
			}
			err := sigmoid(z) - float64(labels[i])
			for j := range grad {
				grad[j] += err * x[j]
			}
			gradBias += err
		}
		for j := range weights {
			weights[j] -= learningRate * grad[j] / n
		}
		bias -= learningRate * gradBias / n
	}

	artifact := Artifact{
		ModelVersion: modelVersion,
		Columns:      feature.Columns,
		Weights:      weights,
		Bias:         bias,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", Metrics{}, fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(dir, modelVersion+".json")
	blob, err := json.Marshal(artifact)
	if err != nil {
		return "", Metrics{}, fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", Metrics{}, fmt.Errorf("write artifact: %w", err)
	}

	metrics := Metrics{
		NSamples:  len(labels),
		TrainedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return path, metrics, nil
}

// LoadArtifact reads a serialized model from disk.
func LoadArtifact(path string) (*Artifact, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(blob, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if len(artifact.Weights) != len(artifact.Columns) {
		return nil, fmt.Errorf("artifact %s: %d weights for %d columns", path, len(artifact.Weights), len(artifact.Columns))
	}
	return &artifact, nil
}

// PredictHomeWinProbability scores a feature row against the artifact at
// the given path, returning the positive-class probability.
func PredictHomeWinProbability(row feature.Row, artifactPath string) (float64, error) {
	artifact, err := LoadArtifact(artifactPath)
	if err != nil {
		return 0, err
	}
	x := row.Vector()
	if len(x) != len(artifact.Weights) {
		return 0, fmt.Errorf("feature row has %d columns, artifact expects %d", len(x), len(artifact.Weights))
	}
	z := artifact.Bias
	for j, w := range artifact.Weights {
		z += w * x[j]
	}
	return sigmoid(z), nil
}
