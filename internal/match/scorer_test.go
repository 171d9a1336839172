package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCombinedScenario(t *testing.T) {
	// Identifier P-007 vs p7 normalizes to the same string, names are
	// equal after lowercasing, and a 1.96% area difference stays
	// within the 5% tolerance band.
	parcel := SpatialParcel{ID: "sp1", PlotID: "P-007", OwnerName: "Ramesh Kumar", Area: 2500}
	record := TextualRecord{ID: "tr1", PlotID: "p7", OwnerName: "ramesh kumar", Area: 2550}

	scores := DefaultScorer().Score(parcel, record)

	assert.Equal(t, 100.0, scores.NameScore)
	assert.Equal(t, 100.0, scores.IDScore)
	assert.Equal(t, 92.16, scores.AreaScore)
	assert.Equal(t, 97.65, scores.TotalScore)
}

func TestScoreRanges(t *testing.T) {
	scorer := DefaultScorer()

	pairs := []struct {
		parcel SpatialParcel
		record TextualRecord
	}{
		{SpatialParcel{PlotID: "P-007", OwnerName: "Ramesh Kumar", Area: 2500},
			TextualRecord{PlotID: "p7", OwnerName: "ramesh kumar", Area: 2550}},
		{SpatialParcel{PlotID: "X1", OwnerName: "Sunita Devi", Area: 100},
			TextualRecord{PlotID: "Y9", OwnerName: "Mohan Lal", Area: 90000}},
		{SpatialParcel{PlotID: "", OwnerName: "", Area: 0},
			TextualRecord{PlotID: "", OwnerName: "", Area: 0}},
		{SpatialParcel{PlotID: "KH/12", OwnerName: "श्री रमेश कुमार", Area: 1200},
			TextualRecord{PlotID: "kh12", OwnerName: "रमेश कुमार", Area: 1200}},
	}

	for _, pair := range pairs {
		scores := scorer.Score(pair.parcel, pair.record)
		for _, v := range []float64{scores.NameScore, scores.AreaScore, scores.IDScore, scores.TotalScore} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestScoreEmptyFields(t *testing.T) {
	scorer := DefaultScorer()

	scores := scorer.Score(
		SpatialParcel{PlotID: "", OwnerName: "", Area: 0},
		TextualRecord{PlotID: "p1", OwnerName: "ramesh", Area: 100},
	)

	assert.Equal(t, 0.0, scores.NameScore)
	assert.Equal(t, 0.0, scores.IDScore)
	assert.Equal(t, 0.0, scores.AreaScore)
	assert.Equal(t, 0.0, scores.TotalScore)
}

func TestScoreNegativeAreaDegrades(t *testing.T) {
	// A malformed negative area is treated as absent, not an error.
	scores := DefaultScorer().Score(
		SpatialParcel{PlotID: "p1", OwnerName: "ramesh", Area: -50},
		TextualRecord{PlotID: "p1", OwnerName: "ramesh", Area: 100},
	)
	assert.Equal(t, 0.0, scores.AreaScore)
	assert.Equal(t, 100.0, scores.NameScore)
}

func TestAreaScoreBands(t *testing.T) {
	scorer := DefaultScorer() // tolerance 5%

	// With area2 fixed at 100, area1 = 100-d yields a percent
	// difference of exactly d.
	tests := []struct {
		name  string
		area1 float64
		want  float64
	}{
		{"equal areas", 100, 100},
		{"at tolerance boundary", 95, 80},
		{"at twice tolerance", 90, 50},
		{"at five times tolerance", 75, 20},
		{"far beyond tolerance", 50, 17.5},
		{"zero area", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.areaScore(tt.area1, 100), 1e-9)
		})
	}
}

func TestAreaScoreMonotonic(t *testing.T) {
	scorer := DefaultScorer()

	prev := 101.0
	for d := 0.0; d <= 95; d += 0.5 {
		score := scorer.areaScore(100-d, 100)
		assert.LessOrEqual(t, score, prev, "area score increased at d=%v", d)
		prev = score
	}
}

func TestScoreAlgorithms(t *testing.T) {
	parcel := SpatialParcel{PlotID: "P-1", OwnerName: "Ramesh Kumar", Area: 1000}
	record := TextualRecord{PlotID: "p1", OwnerName: "Kumar Ramesh", Area: 5000}

	t.Run("levenshtein total equals name score", func(t *testing.T) {
		scorer := NewScorer(AlgorithmLevenshtein, 5, NameWeights{}, CombinedWeights{})
		scores := scorer.Score(parcel, record)
		assert.Equal(t, scores.NameScore, scores.TotalScore)
	})

	t.Run("jaro winkler equal names", func(t *testing.T) {
		scorer := NewScorer(AlgorithmJaroWinkler, 5, NameWeights{}, CombinedWeights{})
		scores := scorer.Score(parcel, TextualRecord{PlotID: "x", OwnerName: "ramesh kumar", Area: 1})
		assert.Equal(t, 100.0, scores.TotalScore)
	})

	t.Run("jaro winkler empty name", func(t *testing.T) {
		scorer := NewScorer(AlgorithmJaroWinkler, 5, NameWeights{}, CombinedWeights{})
		scores := scorer.Score(parcel, TextualRecord{PlotID: "x", OwnerName: "", Area: 1})
		assert.Equal(t, 0.0, scores.TotalScore)
	})

	t.Run("cosine reordered tokens", func(t *testing.T) {
		scorer := NewScorer(AlgorithmCosine, 5, NameWeights{}, CombinedWeights{})
		scores := scorer.Score(parcel, record)
		// Identical token sets in different order still score 100.
		assert.Equal(t, 100.0, scores.TotalScore)
	})

	t.Run("cosine disjoint tokens", func(t *testing.T) {
		scorer := NewScorer(AlgorithmCosine, 5, NameWeights{}, CombinedWeights{})
		scores := scorer.Score(parcel, TextualRecord{PlotID: "x", OwnerName: "sunita devi", Area: 1})
		assert.Equal(t, 0.0, scores.TotalScore)
	})

	t.Run("cosine partial overlap", func(t *testing.T) {
		scorer := NewScorer(AlgorithmCosine, 5, NameWeights{}, CombinedWeights{})
		scores := scorer.Score(parcel, TextualRecord{PlotID: "x", OwnerName: "ramesh lal", Area: 1})
		// intersection 1 over sqrt(2*2) = 0.5
		assert.Equal(t, 50.0, scores.TotalScore)
	})
}

func TestNameScoreTokenSet(t *testing.T) {
	scorer := DefaultScorer()

	// A dropped middle name keeps the token-set sub-metric at 100, so
	// the blended score stays well above what plain edit distance
	// would give.
	blended := scorer.nameScore("ramesh prasad kumar", "ramesh kumar")
	plain := ratio("ramesh prasad kumar", "ramesh kumar")
	require.Greater(t, blended, plain)
	assert.LessOrEqual(t, blended, 100.0)
}

func TestExactMatchProperties(t *testing.T) {
	scorer := DefaultScorer()

	scores := scorer.Score(
		SpatialParcel{PlotID: "KH-12", OwnerName: "Shri Mohan Lal", Area: 431.5},
		TextualRecord{PlotID: "kh12", OwnerName: "mohan lal", Area: 431.5},
	)
	assert.Equal(t, 100.0, scores.NameScore)
	assert.Equal(t, 100.0, scores.IDScore)
	assert.Equal(t, 100.0, scores.AreaScore)
	assert.Equal(t, 100.0, scores.TotalScore)
}
