package domain

import "time"

// Side is the two-way market side a price quotes.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// MarketMoneyline is the only market in current scope.
const MarketMoneyline = "moneyline"

// OddsSnapshot is a per-book, per-side price observation. Immutable once
// written; IsStale is derived at write time from the configured max age.
type OddsSnapshot struct {
	ID                int64     `json:"id"`
	EventRawID        int64     `json:"event_raw_id"`
	EventNormalizedID *int64    `json:"event_normalized_id,omitempty"`
	Book              string    `json:"book"`
	Market            string    `json:"market"`
	Side              Side      `json:"side"`
	Price             int       `json:"price"`
	Timestamp         time.Time `json:"timestamp"`
	IsStale           bool      `json:"is_stale"`
}

// MarketConsensus is the de-vigged home probability recorded when an event
// passed the consensus gate.
type MarketConsensus struct {
	ID                int64     `json:"id"`
	EventNormalizedID int64     `json:"event_normalized_id"`
	Market            string    `json:"market"`
	ConsensusProb     float64   `json:"consensus_prob"`
	ConsensusPrice    float64   `json:"consensus_price"`
	Timestamp         time.Time `json:"timestamp"`
}
