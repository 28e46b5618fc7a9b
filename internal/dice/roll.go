package dice

import (
	"math"
	"strconv"
	"strings"
)

const fudgeFaces = 3

// Source returns a float in [0, 1). Each call is an independent draw.
type Source func() float64

// Result holds the individual die outcomes and the aggregate.
//
// Aggregate == sum(Values) + Modifier, including when Values is empty.
type Result struct {
	Values    []int
	Aggregate int
}

// AggregateText formats the aggregate as plain decimal text.
func (r Result) AggregateText() string {
	return strconv.Itoa(r.Aggregate)
}

// Roll executes spec using rng. It never fails: a standard spec with zero
// faces or an unknown kind rolls no dice and the aggregate is the modifier.
func Roll(spec Spec, rng Source) Result {
	var values []int
	switch {
	case spec.Kind == KindFudge:
		values = rollN(spec.Count, func() int { return rollFudge(rng) })
	case spec.Kind == KindStandard && spec.Faces > 0:
		values = rollN(spec.Count, func() int { return rollStandard(rng, spec.Faces) })
	}
	if values == nil {
		values = []int{}
	}
	total := spec.Modifier
	for _, v := range values {
		total += v
	}
	return Result{Values: values, Aggregate: total}
}

// Summary renders a one-line roll description such as "3d8+2 for (4,1,7) = 14".
func Summary(spec Spec, result Result) string {
	parts := make([]string, len(result.Values))
	for i, v := range result.Values {
		parts[i] = strconv.Itoa(v)
	}
	return spec.Raw + " for (" + strings.Join(parts, ",") + ") = " + result.AggregateText()
}

func rollN(count int, die func() int) []int {
	if count <= 0 {
		return nil
	}
	values := make([]int, count)
	for i := range values {
		values[i] = die()
	}
	return values
}

func rollStandard(rng Source, faces int) int {
	return int(math.Floor(rng()*float64(faces))) + 1
}

func rollFudge(rng Source) int {
	return rollStandard(rng, fudgeFaces) - 2
}
