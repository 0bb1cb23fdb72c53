package domain

import "time"

// PickStatus is the lifecycle state of a pick.
type PickStatus string

const (
	PickOpen    PickStatus = "open"
	PickSettled PickStatus = "settled"
)

// Tier buckets picks by edge size.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// Tier edge boundaries.
const (
	TierAEdge = 0.07
	TierBEdge = 0.05
)

// ConfidenceTier maps a model edge to its tier. Picks only exist above the
// edge threshold, so C is the residual bucket.
func ConfidenceTier(edge float64) Tier {
	switch {
	case edge >= TierAEdge:
		return TierA
	case edge >= TierBEdge:
		return TierB
	default:
		return TierC
	}
}

// Pick is an emitted value bet. Immutable except Status.
type Pick struct {
	ID                  int64      `json:"id"`
	PickLifecycleID     string     `json:"pick_lifecycle_id"`
	OddsSnapshotID      int64      `json:"odds_snapshot_id"`
	EventNormalizedID   int64      `json:"event_normalized_id"`
	FeatureSnapshotID   int64      `json:"feature_snapshot_id"`
	ModelVersion        string     `json:"model_version"`
	FeatureVersion      string     `json:"feature_version"`
	Market              string     `json:"market"`
	Side                Side       `json:"side"`
	Book                string     `json:"book"`
	PickTimePrice       int        `json:"pick_time_price"`
	DecimalOdds         float64    `json:"decimal_odds"`
	ImpliedProb         float64    `json:"implied_prob"`
	MarketConsensusProb float64    `json:"market_consensus_prob"`
	ModelProb           float64    `json:"model_prob"`
	ModelEdge           float64    `json:"model_edge"`
	EVPercent           float64    `json:"ev_percent"`
	KellyFraction       float64    `json:"kelly_fraction"`
	Tier                Tier       `json:"tier"`
	CreatedAt           time.Time  `json:"created_at"`
	Status              PickStatus `json:"status"`
}
