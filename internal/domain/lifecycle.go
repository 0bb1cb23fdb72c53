package domain

import "time"

// ResultType is the settlement outcome: win, loss, push.
type ResultType string

const (
	ResultWin  ResultType = "W"
	ResultLoss ResultType = "L"
	ResultPush ResultType = "P"
)

// SettlementSimulated marks settlements produced by the stub settlement
// pass; a production outcome feed would supply its own source tag.
const SettlementSimulated = "simulated"

// ClosingLine captures the last same-book, same-side price inside the close
// window before tip-off. At most one per pick.
type ClosingLine struct {
	ID                       int64     `json:"id"`
	PickID                   int64     `json:"pick_id"`
	ClosePrice               int       `json:"close_price"`
	CloseImpliedProb         float64   `json:"close_implied_prob"`
	CapturedAt               time.Time `json:"captured_at"`
	MarketCloseConsensus     *float64  `json:"market_close_consensus,omitempty"`
	ClosingLineSnapshotID    *int64    `json:"closing_line_snapshot_id,omitempty"`
	CloseBookPrice           *int      `json:"close_book_price,omitempty"`
	CloseBookImpliedProb     *float64  `json:"close_book_implied_prob,omitempty"`
	CloseMarketConsensusProb *float64  `json:"close_market_consensus_prob,omitempty"`
}

// Settlement records the outcome and CLV for a pick. At most one per pick,
// and never without a ClosingLine.
type Settlement struct {
	ID               int64      `json:"id"`
	PickID           int64      `json:"pick_id"`
	Result           ResultType `json:"result"`
	SettledAt        time.Time  `json:"settled_at"`
	PnL              float64    `json:"pnl"`
	ROI              float64    `json:"roi"`
	CLVMarket        *float64   `json:"clv_market,omitempty"`
	CLVBook          *float64   `json:"clv_book,omitempty"`
	SettlementSource string     `json:"settlement_source"`
}
