// Package normalize resolves raw provider team strings to the canonical
// identity graph and gates events whose mapping quality is too low to
// trade on.
package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/repository"
)

// Resolution is the outcome of mapping one raw team string.
type Resolution struct {
	TeamID             *int64
	Confidence         float64
	ExactAliasMatch    bool
	MultipleCandidates bool
}

// Normalizer applies alias/name resolution and time-tolerance checks.
type Normalizer struct {
	// TimeTolerance is the window within which an event start time fully
	// agrees with the wall clock; up to 4x earns degraded confidence.
	TimeTolerance time.Duration

	// ConfidenceThreshold is the minimum mapping confidence for an event
	// to stay scheduled.
	ConfidenceThreshold float64
}

// Degraded-confidence values for the mapping ladder.
const (
	confidenceExact    = 1.0
	confidenceDegraded = 0.8
)

// ResolveTeam maps a raw provider name to a team. Exact alias matches win;
// more than one alias row for the same string is an anomaly, not a choice.
func (n Normalizer) ResolveTeam(ctx context.Context, st repository.Store, rawName string) (Resolution, error) {
	lowered := strings.ToLower(rawName)

	aliases, err := st.FindAliases(ctx, lowered)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve team %q: %w", rawName, err)
	}
	if len(aliases) > 1 {
		return Resolution{MultipleCandidates: true}, nil
	}
	if len(aliases) == 1 {
		teamID := aliases[0].TeamID
		return Resolution{TeamID: &teamID, Confidence: confidenceExact, ExactAliasMatch: true}, nil
	}

	team, err := st.FindTeamByNormalizedName(ctx, lowered)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve team %q: %w", rawName, err)
	}
	if team != nil {
		return Resolution{TeamID: &team.ID, Confidence: confidenceExact}, nil
	}
	return Resolution{}, nil
}

// NormalizeEvent resolves both team names and sets mapping confidence,
// status, and quarantine reason on ev. The caller persists the result.
func (n Normalizer) NormalizeEvent(ctx context.Context, st repository.Store, ev *domain.EventNormalized, homeRaw, awayRaw string, now time.Time) error {
	home, err := n.ResolveTeam(ctx, st, homeRaw)
	if err != nil {
		return err
	}
	away, err := n.ResolveTeam(ctx, st, awayRaw)
	if err != nil {
		return err
	}

	ev.HomeTeamID = home.TeamID
	ev.AwayTeamID = away.TeamID

	if home.MultipleCandidates || away.MultipleCandidates {
		ev.MappingConfidence = 0
		ev.Quarantine(domain.ReasonMultipleCandidates)
		return nil
	}
	if home.TeamID == nil || away.TeamID == nil {
		ev.MappingConfidence = 0
		ev.Quarantine(domain.ReasonNoAliasMatch)
		return nil
	}

	timeConfidence, timeReason := n.timeConfidence(ev.StartTime, now)

	switch {
	case home.Confidence == confidenceExact && away.Confidence == confidenceExact && timeConfidence == confidenceExact:
		ev.MappingConfidence = confidenceExact
	case timeConfidence == confidenceDegraded:
		ev.MappingConfidence = confidenceDegraded
	default:
		ev.MappingConfidence = 0
	}

	if ev.MappingConfidence < n.ConfidenceThreshold {
		reason := domain.ReasonLowMappingConfidence
		if timeReason != "" {
			reason = timeReason
		}
		ev.Quarantine(reason)
		return nil
	}

	ev.Status = domain.EventScheduled
	ev.QuarantineReason = nil
	return nil
}

// timeConfidence scores how well the event start time agrees with the
// current wall clock: within tolerance is exact, within 4x is degraded,
// beyond that the mapping cannot be trusted.
func (n Normalizer) timeConfidence(startTime, now time.Time) (float64, string) {
	delta := startTime.Sub(now)
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta <= n.TimeTolerance:
		return confidenceExact, ""
	case delta <= 4*n.TimeTolerance:
		return confidenceDegraded, domain.ReasonTimeMismatch
	default:
		return 0, domain.ReasonTimeMismatch
	}
}
