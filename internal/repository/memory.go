package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pickline/platform/internal/domain"
)

// Memory is an in-memory Store and TxManager. It backs package tests and
// local sweeps without a database. WithinRun snapshots state and restores
// it on error, mirroring the single-transaction-per-run contract.
type Memory struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	seq         int64
	leagues     []domain.League
	teams       []domain.Team
	aliases     []domain.TeamAlias
	eventsRaw   []domain.EventRaw
	eventsNorm  []domain.EventNormalized
	snapshots   []domain.OddsSnapshot
	consensus   []domain.MarketConsensus
	features    []domain.FeatureSnapshot
	artifacts   []domain.ModelArtifact
	picks       []domain.Pick
	closes      []domain.ClosingLine
	settlements []domain.Settlement
	runs        []domain.PipelineRun
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) nextID() int64 {
	m.state.seq++
	return m.state.seq
}

func (s memState) clone() memState {
	out := s
	out.leagues = append([]domain.League(nil), s.leagues...)
	out.teams = append([]domain.Team(nil), s.teams...)
	out.aliases = append([]domain.TeamAlias(nil), s.aliases...)
	out.eventsRaw = append([]domain.EventRaw(nil), s.eventsRaw...)
	out.eventsNorm = append([]domain.EventNormalized(nil), s.eventsNorm...)
	out.snapshots = append([]domain.OddsSnapshot(nil), s.snapshots...)
	out.consensus = append([]domain.MarketConsensus(nil), s.consensus...)
	out.features = append([]domain.FeatureSnapshot(nil), s.features...)
	out.artifacts = append([]domain.ModelArtifact(nil), s.artifacts...)
	out.picks = append([]domain.Pick(nil), s.picks...)
	out.closes = append([]domain.ClosingLine(nil), s.closes...)
	out.settlements = append([]domain.Settlement(nil), s.settlements...)
	out.runs = append([]domain.PipelineRun(nil), s.runs...)
	return out
}

// Reader returns the store itself; reads are always auto-commit.
func (m *Memory) Reader() Store { return m }

// WithinRun applies fn, discarding all of its writes if it fails.
func (m *Memory) WithinRun(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	before := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = before
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) FindLeagueByName(_ context.Context, name string) (*domain.League, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.state.leagues {
		if l.Name == name {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertLeague(_ context.Context, league *domain.League) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.state.leagues {
		if l.Name == league.Name {
			return domain.ErrConflict(fmt.Sprintf("league %s exists", league.Name))
		}
	}
	league.ID = m.nextID()
	m.state.leagues = append(m.state.leagues, *league)
	return nil
}

func (m *Memory) FindTeamByNormalizedName(_ context.Context, name string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.state.teams {
		if t.NormalizedName == name {
			out := t
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertTeam(_ context.Context, team *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.state.teams {
		if t.NormalizedName == team.NormalizedName {
			return domain.ErrConflict(fmt.Sprintf("team %s exists", team.NormalizedName))
		}
	}
	team.ID = m.nextID()
	m.state.teams = append(m.state.teams, *team)
	return nil
}

func (m *Memory) FindAliases(_ context.Context, alias string) ([]domain.TeamAlias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TeamAlias
	for _, a := range m.state.aliases {
		if a.Alias == alias {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) InsertTeamAlias(_ context.Context, alias *domain.TeamAlias) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.state.aliases {
		if a.Alias == alias.Alias {
			return domain.ErrConflict(fmt.Sprintf("alias %s exists", alias.Alias))
		}
	}
	alias.ID = m.nextID()
	m.state.aliases = append(m.state.aliases, *alias)
	return nil
}

// AddAlias seeds an extra alias row directly, bypassing uniqueness. Tests
// use it to stage the multiple-candidate anomaly a real feed can produce.
func (m *Memory) AddAlias(alias domain.TeamAlias) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alias.ID = m.nextID()
	m.state.aliases = append(m.state.aliases, alias)
}

func (m *Memory) InsertEventRaw(_ context.Context, raw *domain.EventRaw) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw.ID = m.nextID()
	m.state.eventsRaw = append(m.state.eventsRaw, *raw)
	return nil
}

func (m *Memory) InsertEventNormalized(_ context.Context, ev *domain.EventNormalized) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = m.nextID()
	m.state.eventsNorm = append(m.state.eventsNorm, *ev)
	return nil
}

func (m *Memory) UpdateEventNormalized(_ context.Context, ev *domain.EventNormalized) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.state.eventsNorm {
		if cur.ID == ev.ID {
			m.state.eventsNorm[i] = *ev
			return nil
		}
	}
	return domain.ErrNotFound("event_normalized", fmt.Sprint(ev.ID))
}

func (m *Memory) CountEventsNormalized(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.state.eventsNorm)), nil
}

// EventsNormalized returns a copy of all normalized events, for assertions.
func (m *Memory) EventsNormalized() []domain.EventNormalized {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EventNormalized(nil), m.state.eventsNorm...)
}

func (m *Memory) InsertOddsSnapshot(_ context.Context, snap *domain.OddsSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.ID = m.nextID()
	m.state.snapshots = append(m.state.snapshots, *snap)
	return nil
}

// OddsSnapshots returns a copy of all odds snapshots, for assertions.
func (m *Memory) OddsSnapshots() []domain.OddsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OddsSnapshot(nil), m.state.snapshots...)
}

func (m *Memory) InsertMarketConsensus(_ context.Context, mc *domain.MarketConsensus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc.ID = m.nextID()
	m.state.consensus = append(m.state.consensus, *mc)
	return nil
}

// MarketConsensusRows returns a copy of all consensus rows, for assertions.
func (m *Memory) MarketConsensusRows() []domain.MarketConsensus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MarketConsensus(nil), m.state.consensus...)
}

func (m *Memory) InsertFeatureSnapshot(_ context.Context, fs *domain.FeatureSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fs.ID = m.nextID()
	m.state.features = append(m.state.features, *fs)
	return nil
}

func (m *Memory) LatestModelArtifact(_ context.Context) (*domain.ModelArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.state.artifacts) == 0 {
		return nil, nil
	}
	out := m.state.artifacts[len(m.state.artifacts)-1]
	return &out, nil
}

func (m *Memory) InsertModelArtifact(_ context.Context, artifact *domain.ModelArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	artifact.ID = m.nextID()
	m.state.artifacts = append(m.state.artifacts, *artifact)
	return nil
}

func (m *Memory) InsertPick(_ context.Context, pick *domain.Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pick.ID = m.nextID()
	m.state.picks = append(m.state.picks, *pick)
	return nil
}

func (m *Memory) UpdatePickStatus(_ context.Context, pickID int64, status domain.PickStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.picks {
		if m.state.picks[i].ID == pickID {
			m.state.picks[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound("pick", fmt.Sprint(pickID))
}

func (m *Memory) FindPick(_ context.Context, id int64) (*domain.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.state.picks {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListPicksByDay(_ context.Context, day time.Time) ([]domain.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var out []domain.Pick
	for _, p := range m.state.picks {
		if !p.CreatedAt.Before(start) && p.CreatedAt.Before(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) CountPicks(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.state.picks)), nil
}

// Picks returns a copy of all picks, for assertions.
func (m *Memory) Picks() []domain.Pick {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Pick(nil), m.state.picks...)
}

func (m *Memory) InsertClosingLine(_ context.Context, cl *domain.ClosingLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cl.ID = m.nextID()
	m.state.closes = append(m.state.closes, *cl)
	return nil
}

func (m *Memory) CountClosingLines(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.state.closes)), nil
}

// ClosingLines returns a copy of all closing lines, for assertions.
func (m *Memory) ClosingLines() []domain.ClosingLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ClosingLine(nil), m.state.closes...)
}

func (m *Memory) InsertSettlement(_ context.Context, st *domain.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.ID = m.nextID()
	m.state.settlements = append(m.state.settlements, *st)
	return nil
}

func (m *Memory) ListSettlements(_ context.Context) ([]domain.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Settlement(nil), m.state.settlements...), nil
}

func (m *Memory) InsertPipelineRun(_ context.Context, run *domain.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = m.nextID()
	m.state.runs = append(m.state.runs, *run)
	return nil
}

func (m *Memory) LatestPipelineRun(_ context.Context) (*domain.PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.state.runs) == 0 {
		return nil, nil
	}
	out := m.state.runs[len(m.state.runs)-1]
	return &out, nil
}
