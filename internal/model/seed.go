package model

import (
	"time"

	"github.com/pickline/platform/internal/feature"
)

// SeedTrainingSet returns the synthetic bootstrap corpus used by the
// retrain endpoint until enough settled picks exist to train on. Strong
// home profiles label 1, weak ones label 0.
func SeedTrainingSet() ([]feature.Row, []int) {
	asOf := time.Now().UTC()
	var rows []feature.Row
	var labels []int
	for i := 0; i < 12; i++ {
		rows = append(rows, feature.Row{
			TeamWinLossHomeAway: 0.60, RecentFormLastN: 0.60, HeadToHead: 0.50,
			RestDaysDensity: 0, OffDefEfficiency: 1, HomeCourtAdvantage: 1, AsOf: asOf,
		})
		labels = append(labels, 1)
		rows = append(rows, feature.Row{
			TeamWinLossHomeAway: 0.40, RecentFormLastN: 0.40, HeadToHead: 0.50,
			RestDaysDensity: -1, OffDefEfficiency: -1, HomeCourtAdvantage: 1, AsOf: asOf,
		})
		labels = append(labels, 0)
	}
	return rows, labels
}
