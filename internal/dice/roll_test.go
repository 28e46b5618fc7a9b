package dice

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constSource(v float64) Source {
	return func() float64 { return v }
}

func TestRollStandardLowest(t *testing.T) {
	result := Roll(Spec{Count: 1, Kind: KindStandard, Faces: 6}, constSource(0))
	assert.Equal(t, []int{1}, result.Values)
	assert.Equal(t, "1", result.AggregateText())
}

func TestRollFudgeHighest(t *testing.T) {
	result := Roll(Spec{Count: 2, Kind: KindFudge, Modifier: -1}, constSource(0.99))
	assert.Equal(t, []int{1, 1}, result.Values)
	assert.Equal(t, "1", result.AggregateText())
}

func TestRollModifierOnly(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"zero faces", Spec{Count: 3, Kind: KindStandard, Modifier: 4}},
		{"zero count", Spec{Count: 0, Kind: KindStandard, Faces: 6, Modifier: 4}},
		{"unknown kind", Spec{Count: 3, Faces: 6, Modifier: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draws := 0
			result := Roll(tt.spec, func() float64 {
				draws++
				return 0.5
			})
			assert.Empty(t, result.Values)
			assert.NotNil(t, result.Values)
			assert.Equal(t, 4, result.Aggregate)
			assert.Zero(t, draws)
		})
	}
}

func TestRollNegativeAggregate(t *testing.T) {
	result := Roll(Spec{Count: 1, Kind: KindStandard, Faces: 4, Modifier: -10}, constSource(0))
	assert.Equal(t, "-9", result.AggregateText())
}

func TestRollRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, faces := range []int{1, 2, 6, 20} {
		result := Roll(Spec{Count: 200, Kind: KindStandard, Faces: faces}, rng.Float64)
		require.Len(t, result.Values, 200)
		sum := 0
		for _, v := range result.Values {
			assert.GreaterOrEqual(t, v, 1)
			assert.LessOrEqual(t, v, faces)
			sum += v
		}
		assert.Equal(t, sum, result.Aggregate)
	}

	result := Roll(Spec{Count: 300, Kind: KindFudge, Faces: 20, Modifier: 2}, rng.Float64)
	require.Len(t, result.Values, 300)
	seen := map[int]bool{}
	sum := 2
	for _, v := range result.Values {
		assert.Contains(t, []int{-1, 0, 1}, v)
		seen[v] = true
		sum += v
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, sum, result.Aggregate)
}

func TestRollConsumesOneDrawPerDie(t *testing.T) {
	draws := []float64{0, 0.5, 0.99}
	i := 0
	result := Roll(Spec{Count: 3, Kind: KindStandard, Faces: 10}, func() float64 {
		v := draws[i]
		i++
		return v
	})
	assert.Equal(t, []int{1, 6, 10}, result.Values)
	assert.Equal(t, 3, i)
}

func TestSummary(t *testing.T) {
	spec := Spec{Raw: "3d8+2", Count: 3, Kind: KindStandard, Faces: 8, Modifier: 2}
	result := Result{Values: []int{4, 1, 7}, Aggregate: 14}
	assert.Equal(t, "3d8+2 for (4,1,7) = 14", Summary(spec, result))
	assert.Equal(t, "1d0+3 for () = 3", Summary(Spec{Raw: "1d0+3"}, Result{Values: []int{}, Aggregate: 3}))
}
