package pipeline

import (
	"context"
	"fmt"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/repository"
)

// SeedAlias maps one raw alias onto a seeded team.
type SeedAlias struct {
	Alias      string
	Team       string
	Source     string
	Confidence float64
}

// Seed is the reference data a sweep guarantees before processing events.
// Seeding is check-then-insert; the unique constraints make concurrent
// seeders safe and duplicate inserts are swallowed as benign.
type Seed struct {
	Leagues []string
	Teams   []string
	Aliases []SeedAlias
}

// DefaultSeed covers the NBA demo universe the mock provider quotes.
func DefaultSeed() Seed {
	return Seed{
		Leagues: []string{"NBA"},
		Teams:   []string{"los angeles lakers", "golden state warriors"},
		Aliases: []SeedAlias{
			{Alias: "la lakers", Team: "los angeles lakers", Source: "seed", Confidence: 0.98},
			{Alias: "gs warriors", Team: "golden state warriors", Source: "seed", Confidence: 0.98},
		},
	}
}

func (e *Engine) seedReference(ctx context.Context, st repository.Store) error {
	for _, name := range e.seed.Leagues {
		league, err := st.FindLeagueByName(ctx, name)
		if err != nil {
			return fmt.Errorf("seed league %s: %w", name, err)
		}
		if league != nil {
			continue
		}
		if err := st.InsertLeague(ctx, &domain.League{Name: name}); err != nil && !repository.IsDuplicate(err) {
			return fmt.Errorf("seed league %s: %w", name, err)
		}
	}

	teamIDs := make(map[string]int64, len(e.seed.Teams))
	for _, name := range e.seed.Teams {
		team, err := st.FindTeamByNormalizedName(ctx, name)
		if err != nil {
			return fmt.Errorf("seed team %s: %w", name, err)
		}
		if team == nil {
			team = &domain.Team{NormalizedName: name}
			err := st.InsertTeam(ctx, team)
			if repository.IsDuplicate(err) {
				// Another seeder won the race; read the committed row.
				if team, err = st.FindTeamByNormalizedName(ctx, name); err != nil {
					return fmt.Errorf("seed team %s: %w", name, err)
				}
			} else if err != nil {
				return fmt.Errorf("seed team %s: %w", name, err)
			}
		}
		if team == nil {
			return fmt.Errorf("seed team %s: row vanished after duplicate insert", name)
		}
		teamIDs[name] = team.ID
	}

	for _, alias := range e.seed.Aliases {
		existing, err := st.FindAliases(ctx, alias.Alias)
		if err != nil {
			return fmt.Errorf("seed alias %s: %w", alias.Alias, err)
		}
		if len(existing) > 0 {
			continue
		}
		teamID, ok := teamIDs[alias.Team]
		if !ok {
			return fmt.Errorf("seed alias %s references unseeded team %s", alias.Alias, alias.Team)
		}
		row := &domain.TeamAlias{
			Alias:      alias.Alias,
			TeamID:     teamID,
			Source:     alias.Source,
			Confidence: alias.Confidence,
		}
		if err := st.InsertTeamAlias(ctx, row); err != nil && !repository.IsDuplicate(err) {
			return fmt.Errorf("seed alias %s: %w", alias.Alias, err)
		}
	}
	return nil
}
