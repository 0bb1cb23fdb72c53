package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pickline/platform/internal/domain"
)

func (s *pgStore) FindLeagueByName(ctx context.Context, name string) (*domain.League, error) {
	row := s.db.QueryRow(ctx, `SELECT id, name FROM leagues WHERE name = $1`, name)
	var l domain.League
	if err := row.Scan(&l.ID, &l.Name); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan league: %w", err)
	}
	return &l, nil
}

func (s *pgStore) InsertLeague(ctx context.Context, league *domain.League) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO leagues (name) VALUES ($1) RETURNING id`,
		league.Name).Scan(&league.ID)
	if err != nil {
		return fmt.Errorf("insert league: %w", err)
	}
	return nil
}

func (s *pgStore) FindTeamByNormalizedName(ctx context.Context, name string) (*domain.Team, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, normalized_name FROM teams WHERE normalized_name = $1`, name)
	var t domain.Team
	if err := row.Scan(&t.ID, &t.NormalizedName); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan team: %w", err)
	}
	return &t, nil
}

func (s *pgStore) InsertTeam(ctx context.Context, team *domain.Team) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO teams (normalized_name) VALUES ($1) RETURNING id`,
		team.NormalizedName).Scan(&team.ID)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (s *pgStore) FindAliases(ctx context.Context, alias string) ([]domain.TeamAlias, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, alias, team_id, source, confidence
		FROM team_aliases WHERE alias = $1`, alias)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []domain.TeamAlias
	for rows.Next() {
		var a domain.TeamAlias
		if err := rows.Scan(&a.ID, &a.Alias, &a.TeamID, &a.Source, &a.Confidence); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func (s *pgStore) InsertTeamAlias(ctx context.Context, alias *domain.TeamAlias) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO team_aliases (alias, team_id, source, confidence)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		alias.Alias, alias.TeamID, alias.Source, alias.Confidence).Scan(&alias.ID)
	if err != nil {
		return fmt.Errorf("insert team alias: %w", err)
	}
	return nil
}
