// Package provider defines the odds feed contract and the mock feeds used
// for local sweeps and tests. Only the OddsProvider interface is
// contractual; payload shapes mirror what real aggregators deliver.
package provider

import (
	"context"
	"time"

	"github.com/pickline/platform/internal/domain"
)

// OddsLine is one book/side price in a provider payload.
type OddsLine struct {
	Book      string      `json:"book"`
	Market    string      `json:"market"`
	Side      domain.Side `json:"side"`
	Price     int         `json:"price"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventPayload is one event with its odds as delivered by a provider.
type EventPayload struct {
	Source          string     `json:"source"`
	ExternalEventID string     `json:"external_event_id"`
	League          string     `json:"league"`
	StartTime       time.Time  `json:"start_time"`
	HomeTeam        string     `json:"home_team"`
	AwayTeam        string     `json:"away_team"`
	Odds            []OddsLine `json:"odds"`
}

// OddsProvider is an async source of typed event/odds records. The fetch is
// the only unbounded external call in a run; callers bound it with ctx.
type OddsProvider interface {
	FetchEventsAndOdds(ctx context.Context) ([]EventPayload, error)
}
