// Package feature builds deterministic pre-game feature rows. The contract
// is that the same (event, asOf) pair always yields the same row.
package feature

import (
	"encoding/json"
	"time"
)

// Version tags the current feature schema.
const Version = "v1"

// Columns is the canonical feature column order the scorer projects onto.
var Columns = []string{
	"team_win_loss_home_away",
	"recent_form_last_n",
	"head_to_head",
	"rest_days_density",
	"off_def_efficiency",
	"home_court_advantage",
}

// Row is the fixed-schema pre-game feature record for one event.
type Row struct {
	EventID             int64     `json:"event_id"`
	TeamWinLossHomeAway float64   `json:"team_win_loss_home_away"`
	RecentFormLastN     float64   `json:"recent_form_last_n"`
	HeadToHead          float64   `json:"head_to_head"`
	RestDaysDensity     float64   `json:"rest_days_density"`
	OffDefEfficiency    float64   `json:"off_def_efficiency"`
	HomeCourtAdvantage  float64   `json:"home_court_advantage"`
	AsOf                time.Time `json:"as_of"`
}

// Vector projects the row onto the canonical column order.
func (r Row) Vector() []float64 {
	return []float64{
		r.TeamWinLossHomeAway,
		r.RecentFormLastN,
		r.HeadToHead,
		r.RestDaysDensity,
		r.OffDefEfficiency,
		r.HomeCourtAdvantage,
	}
}

// MarshalBlob serializes the row for the feature_snapshots JSON column.
func (r Row) MarshalBlob() (json.RawMessage, error) {
	return json.Marshal(r)
}

// BuildPregame returns the baseline NBA pre-game feature row. Current-core
// values are league-average constants; real stats feeds slot in behind the
// same schema.
func BuildPregame(eventID int64, asOf time.Time) Row {
	return Row{
		EventID:             eventID,
		TeamWinLossHomeAway: 0.52,
		RecentFormLastN:     0.5,
		HeadToHead:          0.5,
		RestDaysDensity:     0.0,
		OffDefEfficiency:    0.0,
		HomeCourtAdvantage:  1.0,
		AsOf:                asOf,
	}
}
