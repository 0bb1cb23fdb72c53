package provider

import (
	"context"
	"time"

	"github.com/pickline/platform/internal/domain"
)

// Mock is the basic built-in feed: one NBA game tipping off shortly, quoted
// two-way by two books. It backs the default admin sweep and local dev.
type Mock struct{}

// NewMock returns the basic mock feed.
func NewMock() *Mock { return &Mock{} }

// FetchEventsAndOdds returns a single fresh Lakers/Warriors moneyline event.
func (m *Mock) FetchEventsAndOdds(_ context.Context) ([]EventPayload, error) {
	now := time.Now().UTC()
	start := now.Add(5 * time.Minute)
	return []EventPayload{
		{
			Source:          "mock",
			ExternalEventID: "evt-1",
			League:          "NBA",
			StartTime:       start,
			HomeTeam:        "los angeles lakers",
			AwayTeam:        "golden state warriors",
			Odds: []OddsLine{
				{Book: "book_a", Market: domain.MarketMoneyline, Side: domain.SideHome, Price: -110, Timestamp: now},
				{Book: "book_a", Market: domain.MarketMoneyline, Side: domain.SideAway, Price: +100, Timestamp: now},
				{Book: "book_b", Market: domain.MarketMoneyline, Side: domain.SideHome, Price: -105, Timestamp: now},
				{Book: "book_b", Market: domain.MarketMoneyline, Side: domain.SideAway, Price: -105, Timestamp: now},
			},
		},
	}, nil
}

// Deterministic is the fixture-driven feed shape: it returns exactly the
// events it was constructed with, or a fixed error.
type Deterministic struct {
	Events []EventPayload
	Err    error
}

// FetchEventsAndOdds returns the configured payload.
func (d *Deterministic) FetchEventsAndOdds(_ context.Context) ([]EventPayload, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Events, nil
}
