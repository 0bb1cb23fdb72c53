package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pickline/platform/internal/domain"
)

const pickColumns = `
	id, pick_lifecycle_id, odds_snapshot_id, event_normalized_id, feature_snapshot_id,
	model_version, feature_version, market, side, book, pick_time_price, decimal_odds,
	implied_prob, market_consensus_prob, model_prob, model_edge, ev_percent,
	kelly_fraction, tier, created_at, status`

func scanPick(row pgx.Row) (*domain.Pick, error) {
	var p domain.Pick
	err := row.Scan(
		&p.ID, &p.PickLifecycleID, &p.OddsSnapshotID, &p.EventNormalizedID, &p.FeatureSnapshotID,
		&p.ModelVersion, &p.FeatureVersion, &p.Market, &p.Side, &p.Book, &p.PickTimePrice,
		&p.DecimalOdds, &p.ImpliedProb, &p.MarketConsensusProb, &p.ModelProb, &p.ModelEdge,
		&p.EVPercent, &p.KellyFraction, &p.Tier, &p.CreatedAt, &p.Status,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan pick: %w", err)
	}
	return &p, nil
}

func (s *pgStore) InsertPick(ctx context.Context, pick *domain.Pick) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO picks
			(pick_lifecycle_id, odds_snapshot_id, event_normalized_id, feature_snapshot_id,
			 model_version, feature_version, market, side, book, pick_time_price, decimal_odds,
			 implied_prob, market_consensus_prob, model_prob, model_edge, ev_percent,
			 kelly_fraction, tier, created_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		pick.PickLifecycleID, pick.OddsSnapshotID, pick.EventNormalizedID, pick.FeatureSnapshotID,
		pick.ModelVersion, pick.FeatureVersion, pick.Market, pick.Side, pick.Book,
		pick.PickTimePrice, pick.DecimalOdds, pick.ImpliedProb, pick.MarketConsensusProb,
		pick.ModelProb, pick.ModelEdge, pick.EVPercent, pick.KellyFraction, pick.Tier,
		pick.CreatedAt, pick.Status,
	).Scan(&pick.ID)
	if err != nil {
		return fmt.Errorf("insert pick: %w", err)
	}
	return nil
}

func (s *pgStore) UpdatePickStatus(ctx context.Context, pickID int64, status domain.PickStatus) error {
	_, err := s.db.Exec(ctx,
		`UPDATE picks SET status = $2 WHERE id = $1`, pickID, status)
	if err != nil {
		return fmt.Errorf("update pick status: %w", err)
	}
	return nil
}

func (s *pgStore) FindPick(ctx context.Context, id int64) (*domain.Pick, error) {
	row := s.db.QueryRow(ctx, `SELECT `+pickColumns+` FROM picks WHERE id = $1`, id)
	return scanPick(row)
}

func (s *pgStore) ListPicksByDay(ctx context.Context, day time.Time) ([]domain.Pick, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows, err := s.db.Query(ctx, `
		SELECT `+pickColumns+`
		FROM picks WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query picks by day: %w", err)
	}
	defer rows.Close()

	var picks []domain.Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, err
		}
		picks = append(picks, *p)
	}
	return picks, rows.Err()
}

func (s *pgStore) CountPicks(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM picks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count picks: %w", err)
	}
	return n, nil
}

func (s *pgStore) InsertClosingLine(ctx context.Context, cl *domain.ClosingLine) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO closing_lines
			(pick_id, close_price, close_implied_prob, captured_at, market_close_consensus,
			 closing_line_snapshot_id, close_book_price, close_book_implied_prob,
			 close_market_consensus_prob)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		cl.PickID, cl.ClosePrice, cl.CloseImpliedProb, cl.CapturedAt, cl.MarketCloseConsensus,
		cl.ClosingLineSnapshotID, cl.CloseBookPrice, cl.CloseBookImpliedProb,
		cl.CloseMarketConsensusProb,
	).Scan(&cl.ID)
	if err != nil {
		return fmt.Errorf("insert closing line: %w", err)
	}
	return nil
}

func (s *pgStore) CountClosingLines(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM closing_lines`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count closing lines: %w", err)
	}
	return n, nil
}

func (s *pgStore) InsertSettlement(ctx context.Context, st *domain.Settlement) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO settlements
			(pick_id, result, settled_at, pnl, roi, clv_market, clv_book, settlement_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		st.PickID, st.Result, st.SettledAt, st.PnL, st.ROI,
		st.CLVMarket, st.CLVBook, st.SettlementSource,
	).Scan(&st.ID)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

func (s *pgStore) ListSettlements(ctx context.Context) ([]domain.Settlement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, pick_id, result, settled_at, pnl, roi, clv_market, clv_book, settlement_source
		FROM settlements ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []domain.Settlement
	for rows.Next() {
		var st domain.Settlement
		if err := rows.Scan(&st.ID, &st.PickID, &st.Result, &st.SettledAt, &st.PnL,
			&st.ROI, &st.CLVMarket, &st.CLVBook, &st.SettlementSource); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		settlements = append(settlements, st)
	}
	return settlements, rows.Err()
}
