package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/oddsmath"
)

func twoWayLines(book string, homePrice, awayPrice int) []Line {
	ts := time.Now()
	return []Line{
		{Book: book, Market: domain.MarketMoneyline, Side: domain.SideHome, Price: homePrice, Timestamp: ts},
		{Book: book, Market: domain.MarketMoneyline, Side: domain.SideAway, Price: awayPrice, Timestamp: ts},
	}
}

func TestBuildHappyPath(t *testing.T) {
	b := Builder{MinBooks: 2, TrimOutliers: true}

	lines := append(twoWayLines("book_a", -110, +100), twoWayLines("book_b", -105, -105)...)
	dec := b.Build(lines)

	require.Empty(t, dec.MissingReason)
	require.NotNil(t, dec.Result)
	assert.Equal(t, 2, dec.Result.BooksUsed)
	// -110/+100 de-vigs to ~0.5116, -105/-105 to exactly 0.5.
	assert.InDelta(t, 0.50581, dec.Result.HomeProb, 0.0005)
	assert.InDelta(t, 1.0, dec.Result.HomeProb+dec.Result.AwayProb, 1e-9)
}

func TestBuildInsufficientBooks(t *testing.T) {
	b := Builder{MinBooks: 3}

	dec := b.Build(twoWayLines("book_a", -110, +100))

	assert.Nil(t, dec.Result)
	assert.Equal(t, domain.BlockInsufficientBooks, dec.MissingReason)
}

func TestBuildStaleLinesDropped(t *testing.T) {
	b := Builder{MinBooks: 2}

	lines := append(twoWayLines("book_a", -110, +100), twoWayLines("book_b", -105, -105)...)
	for i := range lines {
		if lines[i].Book == "book_b" {
			lines[i].IsStale = true
		}
	}
	dec := b.Build(lines)

	assert.Nil(t, dec.Result)
	assert.Equal(t, domain.BlockInsufficientBooks, dec.MissingReason)
}

func TestBuildIncompleteTwoWayMarket(t *testing.T) {
	b := Builder{MinBooks: 2}

	// Two distinct books, but book_b only quotes the home side.
	lines := append(twoWayLines("book_a", -110, +100),
		Line{Book: "book_b", Market: domain.MarketMoneyline, Side: domain.SideHome, Price: -105, Timestamp: time.Now()})
	dec := b.Build(lines)

	assert.Nil(t, dec.Result)
	assert.Equal(t, domain.BlockIncompleteTwoWayMarket, dec.MissingReason)
}

func TestBuildInvalidBookWeights(t *testing.T) {
	b := Builder{
		MinBooks:    2,
		BookWeights: map[string]float64{"book_a": 0, "book_b": 0},
	}

	lines := append(twoWayLines("book_a", -110, +100), twoWayLines("book_b", -105, -105)...)
	dec := b.Build(lines)

	assert.Nil(t, dec.Result)
	assert.Equal(t, domain.BlockInvalidBookWeights, dec.MissingReason)
}

func TestBuildBookWeightsApplied(t *testing.T) {
	b := Builder{
		MinBooks:    2,
		BookWeights: map[string]float64{"book_a": 3, "book_b": 1},
	}

	lines := append(twoWayLines("book_a", -110, +100), twoWayLines("book_b", -105, -105)...)
	dec := b.Build(lines)
	require.NotNil(t, dec.Result)

	homeA, _, err := oddsmath.RemoveVigTwoWay(
		oddsmath.AmericanToImpliedProb(-110), oddsmath.AmericanToImpliedProb(+100))
	require.NoError(t, err)
	want := (homeA*3 + 0.5*1) / 4
	assert.InDelta(t, want, dec.Result.HomeProb, 1e-12)
}

func TestBuildConsensusMonotonicity(t *testing.T) {
	// Adding a fresh two-way book whose de-vigged home probability equals
	// the current mean leaves the mean unchanged.
	b := Builder{MinBooks: 2}

	lines := append(twoWayLines("book_a", -105, -105), twoWayLines("book_b", -105, -105)...)
	before := b.Build(lines)
	require.NotNil(t, before.Result)

	lines = append(lines, twoWayLines("book_c", -105, -105)...)
	after := b.Build(lines)
	require.NotNil(t, after.Result)

	assert.InDelta(t, before.Result.HomeProb, after.Result.HomeProb, 1e-12)
	assert.Equal(t, 3, after.Result.BooksUsed)
}

func TestTrimOutliers(t *testing.T) {
	t.Run("inert below six books", func(t *testing.T) {
		values := []float64{0.9, 0.1, 0.5, 0.5, 0.5}
		assert.Equal(t, values, trimOutliers(values, true))
	})

	t.Run("disabled passes through", func(t *testing.T) {
		values := []float64{0.9, 0.1, 0.5, 0.5, 0.5, 0.5}
		assert.Equal(t, values, trimOutliers(values, false))
	})

	t.Run("drops one low and one high", func(t *testing.T) {
		values := []float64{0.52, 0.90, 0.50, 0.51, 0.10, 0.53}
		trimmed := trimOutliers(values, true)
		require.Len(t, trimmed, 4)
		assert.Equal(t, []float64{0.50, 0.51, 0.52, 0.53}, trimmed)
	})
}

func TestBuildSixBookTrim(t *testing.T) {
	b := Builder{MinBooks: 3, TrimOutliers: true}

	var lines []Line
	// Five agreeing books plus one wild outlier.
	for _, book := range []string{"b1", "b2", "b3", "b4", "b5"} {
		lines = append(lines, twoWayLines(book, -105, -105)...)
	}
	lines = append(lines, twoWayLines("b6", -400, +320)...)

	dec := b.Build(lines)
	require.NotNil(t, dec.Result)
	assert.Equal(t, 4, dec.Result.BooksUsed)
	// Outlier high and one boundary low trimmed; the mean stays at the
	// agreeing books' 0.5.
	assert.InDelta(t, 0.5, dec.Result.HomeProb, 1e-9)
}
