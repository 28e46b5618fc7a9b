package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/verte-zerg/tuidice/internal/model"
)

func TestRollMetrics(t *testing.T) {
	rolls := []model.RollRecord{
		{Values: []int{3, 4}, Aggregate: 7},
		{Values: []int{}, Aggregate: -2},
		{Values: []int{6, 6, 6}, Aggregate: 18},
	}
	m := RollMetrics(rolls)
	if m.Rolls != 3 || m.Dice != 5 || m.Best != 18 || m.Worst != -2 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if math.Abs(m.MeanAggregate-23.0/3.0) > 1e-9 {
		t.Fatalf("unexpected mean: %f", m.MeanAggregate)
	}
	if got := RollMetrics(nil); got != (Metrics{}) {
		t.Fatalf("expected zero metrics, got %+v", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("flat sparkline = %q", got)
	}
	got := Sparkline([]float64{0, 10})
	if got != " @" {
		t.Fatalf("min/max sparkline = %q", got)
	}
}

func TestRenderSummaryAndTable(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No rolls found.") {
		t.Fatalf("unexpected empty summary: %q", buf.String())
	}

	buf.Reset()
	rolls := []model.RollRecord{{Values: []int{2}, Aggregate: 2}, {Values: []int{5}, Aggregate: 5}}
	if err := RenderSummary(&buf, rolls); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	for _, needle := range []string{"Rolls: 2", "Avg total: 3.50", "Best total: 5", "Worst total: 2"} {
		if !strings.Contains(buf.String(), needle) {
			t.Fatalf("summary missing %q: %s", needle, buf.String())
		}
	}

	buf.Reset()
	aggs := []model.ValueAggregate{{Die: "d6", Value: 2, Count: 1}, {Die: "d6", Value: 5, Count: 3}}
	if err := RenderValueTable(&buf, aggs); err != nil {
		t.Fatalf("render table: %v", err)
	}
	if !strings.Contains(buf.String(), "75.0%") || !strings.Contains(buf.String(), "25.0%") {
		t.Fatalf("table missing shares: %s", buf.String())
	}
}

func TestRenderTrendTruncatesToWidth(t *testing.T) {
	rolls := make([]model.RollRecord, 30)
	for i := range rolls {
		rolls[i].Aggregate = i
	}
	var buf bytes.Buffer
	if err := RenderTrend(&buf, rolls, 1, 10); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 2 || len(lines[1]) != 10 {
		t.Fatalf("expected 10-char sparkline, got %q", buf.String())
	}
}
