package stats

import (
	"sort"

	"github.com/verte-zerg/tuidice/internal/model"
)

// TopRawByFrequency returns the n most rolled notations, most frequent first.
func TopRawByFrequency(rolls []model.RollRecord, n int) []string {
	if n <= 0 || len(rolls) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, r := range rolls {
		counts[r.Raw]++
	}
	type item struct {
		raw   string
		total int
	}
	items := make([]item, 0, len(counts))
	for raw, total := range counts {
		items = append(items, item{raw: raw, total: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].total == items[j].total {
			return items[i].raw < items[j].raw
		}
		return items[i].total > items[j].total
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].raw)
	}
	return out
}
