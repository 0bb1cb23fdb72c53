package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPregameDeterministic(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

	a := BuildPregame(42, asOf)
	b := BuildPregame(42, asOf)

	assert.Equal(t, a, b)

	blobA, err := a.MarshalBlob()
	require.NoError(t, err)
	blobB, err := b.MarshalBlob()
	require.NoError(t, err)
	assert.Equal(t, blobA, blobB)
}

func TestVectorMatchesColumnOrder(t *testing.T) {
	row := Row{
		TeamWinLossHomeAway: 1,
		RecentFormLastN:     2,
		HeadToHead:          3,
		RestDaysDensity:     4,
		OffDefEfficiency:    5,
		HomeCourtAdvantage:  6,
	}

	vec := row.Vector()
	require.Len(t, vec, len(Columns))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, vec)
}
