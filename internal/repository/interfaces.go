package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pickline/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so the store works with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store is the typed persistence façade over the odds-pipeline schema.
// Insert methods assign the generated ID back onto the passed entity.
// Find methods return (nil, nil) when no row matches.
type Store interface {
	// Reference data (seeded once; uniqueness enforced by the database).
	FindLeagueByName(ctx context.Context, name string) (*domain.League, error)
	InsertLeague(ctx context.Context, league *domain.League) error
	FindTeamByNormalizedName(ctx context.Context, name string) (*domain.Team, error)
	InsertTeam(ctx context.Context, team *domain.Team) error
	FindAliases(ctx context.Context, alias string) ([]domain.TeamAlias, error)
	InsertTeamAlias(ctx context.Context, alias *domain.TeamAlias) error

	// Events.
	InsertEventRaw(ctx context.Context, raw *domain.EventRaw) error
	InsertEventNormalized(ctx context.Context, ev *domain.EventNormalized) error
	UpdateEventNormalized(ctx context.Context, ev *domain.EventNormalized) error
	CountEventsNormalized(ctx context.Context) (int64, error)

	// Odds.
	InsertOddsSnapshot(ctx context.Context, snap *domain.OddsSnapshot) error
	InsertMarketConsensus(ctx context.Context, mc *domain.MarketConsensus) error

	// Features and models.
	InsertFeatureSnapshot(ctx context.Context, fs *domain.FeatureSnapshot) error
	LatestModelArtifact(ctx context.Context) (*domain.ModelArtifact, error)
	InsertModelArtifact(ctx context.Context, artifact *domain.ModelArtifact) error

	// Picks and their lifecycle.
	InsertPick(ctx context.Context, pick *domain.Pick) error
	UpdatePickStatus(ctx context.Context, pickID int64, status domain.PickStatus) error
	FindPick(ctx context.Context, id int64) (*domain.Pick, error)
	ListPicksByDay(ctx context.Context, day time.Time) ([]domain.Pick, error)
	CountPicks(ctx context.Context) (int64, error)
	InsertClosingLine(ctx context.Context, cl *domain.ClosingLine) error
	CountClosingLines(ctx context.Context) (int64, error)
	InsertSettlement(ctx context.Context, st *domain.Settlement) error
	ListSettlements(ctx context.Context) ([]domain.Settlement, error)

	// Run telemetry.
	InsertPipelineRun(ctx context.Context, run *domain.PipelineRun) error
	LatestPipelineRun(ctx context.Context) (*domain.PipelineRun, error)
}

// TxManager scopes stores to transactions. A pipeline run is one
// transaction: it commits exactly once or not at all.
type TxManager interface {
	// Reader returns an auto-commit store for read paths.
	Reader() Store

	// WithinRun runs fn inside a single transaction, committing on nil and
	// rolling back on error.
	WithinRun(ctx context.Context, fn func(Store) error) error
}
