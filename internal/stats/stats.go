// Package stats contains roll history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuidice/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Metrics summarizes a set of rolls.
type Metrics struct {
	Rolls         int
	Dice          int
	MeanAggregate float64
	Best          int
	Worst         int
}

// RollMetrics computes summary metrics over rolls.
func RollMetrics(rolls []model.RollRecord) Metrics {
	if len(rolls) == 0 {
		return Metrics{}
	}
	m := Metrics{Rolls: len(rolls), Best: rolls[0].Aggregate, Worst: rolls[0].Aggregate}
	total := 0
	for _, r := range rolls {
		m.Dice += len(r.Values)
		total += r.Aggregate
		if r.Aggregate > m.Best {
			m.Best = r.Aggregate
		}
		if r.Aggregate < m.Worst {
			m.Worst = r.Aggregate
		}
	}
	m.MeanAggregate = float64(total) / float64(len(rolls))
	return m
}

// Aggregates returns the aggregate of each roll as a float series.
func Aggregates(rolls []model.RollRecord) []float64 {
	out := make([]float64, len(rolls))
	for i, r := range rolls {
		out[i] = float64(r.Aggregate)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints summary metrics for rolls.
func RenderSummary(w io.Writer, rolls []model.RollRecord) error {
	if len(rolls) == 0 {
		_, err := fmt.Fprintln(w, "No rolls found.")
		return err
	}
	m := RollMetrics(rolls)
	lines := []string{
		"Summary",
		fmt.Sprintf("Rolls: %d", m.Rolls),
		fmt.Sprintf("Dice rolled: %d", m.Dice),
		fmt.Sprintf("Avg total: %.2f", m.MeanAggregate),
		fmt.Sprintf("Best total: %d", m.Best),
		fmt.Sprintf("Worst total: %d", m.Worst),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrend prints a sparkline of roll totals smoothed over window rolls.
// Only the most recent width points are shown when width is positive.
func RenderTrend(w io.Writer, rolls []model.RollRecord, window, width int) error {
	if len(rolls) == 0 {
		return nil
	}
	series := MovingAverage(Aggregates(rolls), window)
	if width > 0 && len(series) > width {
		series = series[len(series)-width:]
	}
	if _, err := fmt.Fprintf(w, "Totals (window %d)\n", window); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, Sparkline(series)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderValueTable prints how often each die value came up.
func RenderValueTable(w io.Writer, aggs []model.ValueAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No die values found.")
		return err
	}
	totals := map[string]int{}
	for _, agg := range aggs {
		totals[agg.Die] += agg.Count
	}
	if _, err := fmt.Fprintln(w, "Die Values"); err != nil {
		return err
	}
	headers := []string{"Die", "Value", "Count", "Share"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		share := 0.0
		if t := totals[agg.Die]; t > 0 {
			share = float64(agg.Count) / float64(t)
		}
		rows = append(rows, []string{
			agg.Die,
			strconv.Itoa(agg.Value),
			strconv.Itoa(agg.Count),
			fmt.Sprintf("%.1f%%", share*100),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
