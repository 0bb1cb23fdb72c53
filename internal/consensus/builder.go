// Package consensus aggregates per-book two-way prices into a single
// de-vigged probability, guarding against stale, shallow, one-sided, and
// outlier inputs.
package consensus

import (
	"time"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/oddsmath"
)

// Line is one book/side price observation fed to the builder. SnapshotID
// carries the persisted odds_snapshots row so callers can trace a pick back
// to its source quote.
type Line struct {
	SnapshotID int64
	Book       string
	Market     string
	Side       domain.Side
	Price      int
	Timestamp  time.Time
	IsStale    bool
}

// Result is the weighted consensus across usable books.
type Result struct {
	HomeProb  float64
	AwayProb  float64
	BooksUsed int
}

// Decision carries either a Result or the reason none could be built.
type Decision struct {
	Result        *Result
	MissingReason string
}

// Builder computes market consensus. Zero-value weights mean equal
// weighting; BookWeights overrides per book name.
type Builder struct {
	MinBooks     int
	TrimOutliers bool
	BookWeights  map[string]float64
}

// minListForTrim keeps outlier trimming inert for shallow panels; dropping
// extremes from fewer than 6 books would erase real market signal.
const minListForTrim = 6

func trimOutliers(values []float64, enabled bool) []float64 {
	if !enabled || len(values) < minListForTrim {
		return values
	}
	ordered := make([]float64, len(values))
	copy(ordered, values)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j] < ordered[j-1]; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered[1 : len(ordered)-1]
}

// Build aggregates lines into a consensus decision. Stale lines are dropped,
// books are grouped in first-seen order, only books quoting both sides
// survive, and each book is de-vigged before weighting.
func (b Builder) Build(lines []Line) Decision {
	type twoWay struct {
		probs map[domain.Side]float64
	}
	byBook := make(map[string]*twoWay)
	bookOrder := make([]string, 0, len(lines))

	for _, line := range lines {
		if line.IsStale {
			continue
		}
		bk, ok := byBook[line.Book]
		if !ok {
			bk = &twoWay{probs: make(map[domain.Side]float64, 2)}
			byBook[line.Book] = bk
			bookOrder = append(bookOrder, line.Book)
		}
		bk.probs[line.Side] = oddsmath.AmericanToImpliedProb(line.Price)
	}

	if len(byBook) < b.MinBooks {
		return Decision{MissingReason: domain.BlockInsufficientBooks}
	}

	var homeProbs, awayProbs []float64
	var usableBooks []string
	for _, book := range bookOrder {
		probs := byBook[book].probs
		home, homeOK := probs[domain.SideHome]
		away, awayOK := probs[domain.SideAway]
		if !homeOK || !awayOK {
			continue
		}
		devigHome, devigAway, err := oddsmath.RemoveVigTwoWay(home, away)
		if err != nil {
			continue
		}
		homeProbs = append(homeProbs, devigHome)
		awayProbs = append(awayProbs, devigAway)
		usableBooks = append(usableBooks, book)
	}

	if len(homeProbs) < b.MinBooks {
		return Decision{MissingReason: domain.BlockIncompleteTwoWayMarket}
	}

	homeProbs = trimOutliers(homeProbs, b.TrimOutliers)
	awayProbs = trimOutliers(awayProbs, b.TrimOutliers)

	// Explicit weighting support (default equal weights). Weights align to
	// the first len(homeProbs) usable books after trimming.
	weights := make([]float64, len(homeProbs))
	var weightSum float64
	for i := range weights {
		w := 1.0
		if override, ok := b.BookWeights[usableBooks[i]]; ok {
			w = override
		}
		weights[i] = w
		weightSum += w
	}
	if weightSum <= 0 {
		return Decision{MissingReason: domain.BlockInvalidBookWeights}
	}

	var homeSum, awaySum float64
	for i := range homeProbs {
		homeSum += homeProbs[i] * weights[i]
		awaySum += awayProbs[i] * weights[i]
	}

	return Decision{Result: &Result{
		HomeProb:  homeSum / weightSum,
		AwayProb:  awaySum / weightSum,
		BooksUsed: len(homeProbs),
	}}
}
