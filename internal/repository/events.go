package repository

import (
	"context"
	"fmt"

	"github.com/pickline/platform/internal/domain"
)

func (s *pgStore) InsertEventRaw(ctx context.Context, raw *domain.EventRaw) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO events_raw (source, external_event_id, league, start_time, home_team, away_team)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		raw.Source, raw.ExternalEventID, raw.League, raw.StartTime, raw.HomeTeam, raw.AwayTeam,
	).Scan(&raw.ID)
	if err != nil {
		return fmt.Errorf("insert event raw: %w", err)
	}
	return nil
}

func (s *pgStore) InsertEventNormalized(ctx context.Context, ev *domain.EventNormalized) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO events_normalized
			(event_raw_id, league_id, start_time, home_team_id, away_team_id,
			 mapping_confidence, status, quarantine_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		ev.EventRawID, ev.LeagueID, ev.StartTime, ev.HomeTeamID, ev.AwayTeamID,
		ev.MappingConfidence, ev.Status, ev.QuarantineReason,
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("insert event normalized: %w", err)
	}
	return nil
}

func (s *pgStore) UpdateEventNormalized(ctx context.Context, ev *domain.EventNormalized) error {
	_, err := s.db.Exec(ctx, `
		UPDATE events_normalized
		SET home_team_id = $2, away_team_id = $3, mapping_confidence = $4,
		    status = $5, quarantine_reason = $6
		WHERE id = $1`,
		ev.ID, ev.HomeTeamID, ev.AwayTeamID, ev.MappingConfidence, ev.Status, ev.QuarantineReason)
	if err != nil {
		return fmt.Errorf("update event normalized: %w", err)
	}
	return nil
}

func (s *pgStore) CountEventsNormalized(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM events_normalized`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events normalized: %w", err)
	}
	return n, nil
}
