package domain

import "time"

// EventStatus is the lifecycle state of a normalized event.
type EventStatus string

const (
	EventScheduled   EventStatus = "scheduled"
	EventQuarantined EventStatus = "quarantined"
	EventSettled     EventStatus = "settled"
)

// Quarantine reasons recorded on events_normalized. Mapping anomalies are
// telemetry, not errors: the event is skipped and the run continues.
const (
	ReasonNoAliasMatch         = "NO_ALIAS_MATCH"
	ReasonMultipleCandidates   = "MULTIPLE_CANDIDATES"
	ReasonTimeMismatch         = "TIME_MISMATCH"
	ReasonLowMappingConfidence = "LOW_MAPPING_CONFIDENCE"
)

// EventRaw is an immutable snapshot of the provider payload for one event.
type EventRaw struct {
	ID              int64     `json:"id"`
	Source          string    `json:"source"`
	ExternalEventID string    `json:"external_event_id"`
	League          string    `json:"league"`
	StartTime       time.Time `json:"start_time"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
}

// EventNormalized is the reconciled event. Unique on
// (league_id, start_time, home_team_id, away_team_id).
type EventNormalized struct {
	ID                int64       `json:"id"`
	EventRawID        int64       `json:"event_raw_id"`
	LeagueID          int64       `json:"league_id"`
	StartTime         time.Time   `json:"start_time"`
	HomeTeamID        *int64      `json:"home_team_id,omitempty"`
	AwayTeamID        *int64      `json:"away_team_id,omitempty"`
	MappingConfidence float64     `json:"mapping_confidence"`
	Status            EventStatus `json:"status"`
	QuarantineReason  *string     `json:"quarantine_reason,omitempty"`
}

// Quarantine marks the event quarantined with the given reason.
func (e *EventNormalized) Quarantine(reason string) {
	e.Status = EventQuarantined
	e.QuarantineReason = &reason
}
