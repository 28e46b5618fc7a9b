package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuidice/internal/model"
)

// Fairness compares observed die values against a uniform distribution.
type Fairness struct {
	Die       string
	Faces     int
	Samples   int
	ChiSquare float64
}

// DieFairness computes a chi-square statistic per die type. Dice whose face
// count cannot be derived from the label are skipped.
func DieFairness(aggs []model.ValueAggregate) []Fairness {
	byDie := map[string]map[int]int{}
	for _, agg := range aggs {
		if byDie[agg.Die] == nil {
			byDie[agg.Die] = map[int]int{}
		}
		byDie[agg.Die][agg.Value] += agg.Count
	}
	out := make([]Fairness, 0, len(byDie))
	for die, counts := range byDie {
		lo, faces, ok := dieRange(die)
		if !ok {
			continue
		}
		samples := 0
		for _, c := range counts {
			samples += c
		}
		if samples == 0 {
			continue
		}
		expected := float64(samples) / float64(faces)
		chi := 0.0
		seen := 0
		for v, c := range counts {
			if v < lo || v-lo >= faces {
				continue
			}
			d := float64(c) - expected
			chi += d * d / expected
			seen++
		}
		// Faces never rolled contribute (0-expected)^2/expected each.
		chi += float64(faces-seen) * expected
		out = append(out, Fairness{Die: die, Faces: faces, Samples: samples, ChiSquare: chi})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Die < out[j].Die
	})
	return out
}

// dieRange returns the lowest face value and the face count of a die label.
func dieRange(die string) (lo, faces int, ok bool) {
	if die == "dF" {
		return -1, 3, true
	}
	if !strings.HasPrefix(die, "d") {
		return 0, 0, false
	}
	faces, err := strconv.Atoi(strings.TrimPrefix(die, "d"))
	if err != nil || faces <= 0 {
		return 0, 0, false
	}
	return 1, faces, true
}
