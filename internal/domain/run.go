package domain

import (
	"encoding/json"
	"time"
)

// Block reasons aggregated into run telemetry. These are non-fatal: the
// event is skipped and the sweep continues.
const (
	BlockLowMappingConfidence   = "LOW_MAPPING_CONFIDENCE"
	BlockNoFreshOdds            = "NO_FRESH_ODDS"
	BlockInsufficientBooks      = "INSUFFICIENT_BOOKS"
	BlockIncompleteTwoWayMarket = "INCOMPLETE_TWO_WAY_MARKET"
	BlockInvalidBookWeights     = "INVALID_BOOK_WEIGHTS"
	BlockEdgeBelowThreshold     = "EDGE_BELOW_THRESHOLD"
	BlockNoHomeSideLine         = "NO_HOME_SIDE_LINE"
)

// NoEligibleEvents is the fallback no-picks reason when a run saw no
// blockable events at all.
const NoEligibleEvents = "NO_ELIGIBLE_EVENTS"

// PipelineRun is the per-run telemetry row, written last before commit.
type PipelineRun struct {
	ID                 int64           `json:"id"`
	StartedAt          time.Time       `json:"started_at"`
	FinishedAt         time.Time       `json:"finished_at"`
	LatencySeconds     float64         `json:"latency_seconds"`
	FreshnessSeconds   float64         `json:"freshness_seconds"`
	CloseLineCoverage  float64         `json:"close_line_coverage"`
	MappingAnomalyRate float64         `json:"mapping_anomaly_rate"`
	QuarantineCount    int             `json:"quarantine_count"`
	Metadata           json.RawMessage `json:"metadata"`
}

// RunMetadata is the typed form of PipelineRun.Metadata.
type RunMetadata struct {
	P50Latency   float64        `json:"p50_latency"`
	P95Latency   float64        `json:"p95_latency"`
	BlockReasons map[string]int `json:"block_reasons"`
}
