package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuidice/internal/widget"
)

type memKV map[string]string

func (m memKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memKV) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func newTestModel(t *testing.T, opts widget.Options) (*Model, memKV) {
	t.Helper()
	kv := memKV{}
	if opts.Source == nil {
		opts.Source = func() float64 { return 0 }
	}
	w, err := widget.Load(context.Background(), kv, opts)
	if err != nil {
		t.Fatalf("load widget: %v", err)
	}
	return NewModel(w, nil), kv
}

func press(m *Model, key tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: key})
	return cmd
}

func TestEnterCommitsNotation(t *testing.T) {
	m, kv := newTestModel(t, widget.Options{})
	m.input.SetValue("3d8+2")
	press(m, tea.KeyEnter)

	snap := m.widget.Snapshot()
	if !snap.Valid || snap.Dice.Raw != "3d8+2" {
		t.Fatalf("expected committed spec, got %+v", snap)
	}
	if kv[widget.KeyRollString] != "3d8+2" {
		t.Fatalf("expected persisted text, got %q", kv[widget.KeyRollString])
	}
}

func TestRollShowsToastAndValues(t *testing.T) {
	m, _ := newTestModel(t, widget.Options{User: "kim"})
	m.input.SetValue("2d6")
	// Rolling with an uncommitted edit ends the edit first.
	cmd := press(m, tea.KeyCtrlR)
	if cmd == nil {
		t.Fatalf("expected toast timer command")
	}
	if m.toast != "kim rolled 2d6 for (1,1) = 2" {
		t.Fatalf("unexpected toast %q", m.toast)
	}
	if len(m.values) != 2 {
		t.Fatalf("expected 2 values, got %v", m.values)
	}
	if !strings.Contains(m.View(), "kim rolled 2d6") {
		t.Fatalf("view missing toast")
	}

	m.Update(clearToastMsg{id: m.toastID})
	if m.toast != "" {
		t.Fatalf("expected toast cleared, got %q", m.toast)
	}
}

func TestStaleToastClearIsIgnored(t *testing.T) {
	m, _ := newTestModel(t, widget.Options{})
	press(m, tea.KeyCtrlR)
	stale := m.toastID
	press(m, tea.KeyCtrlR)
	m.Update(clearToastMsg{id: stale})
	if m.toast == "" {
		t.Fatalf("stale clear should not remove newer toast")
	}
}

func TestInvalidNotationBlocksRoll(t *testing.T) {
	m, _ := newTestModel(t, widget.Options{})
	m.input.SetValue("hello")
	press(m, tea.KeyEnter)
	if m.widget.Snapshot().Valid {
		t.Fatalf("expected invalid state")
	}
	if cmd := press(m, tea.KeyCtrlR); cmd != nil {
		t.Fatalf("expected no roll while invalid")
	}
	if m.toast != "" || m.widget.Snapshot().Output != "" {
		t.Fatalf("expected no output, got toast=%q output=%q", m.toast, m.widget.Snapshot().Output)
	}
	if m.widget.Snapshot().Dice.Raw != "1d6" {
		t.Fatalf("expected prior spec kept, got %q", m.widget.Snapshot().Dice.Raw)
	}
}

func TestTooManyDiceShowsError(t *testing.T) {
	m, _ := newTestModel(t, widget.Options{MaxDice: 3})
	m.input.SetValue("4d6")
	press(m, tea.KeyCtrlR)
	if !strings.Contains(m.errMsg, "too many dice") {
		t.Fatalf("expected limit error, got %q", m.errMsg)
	}
}

func TestCtrlPCyclesColor(t *testing.T) {
	m, kv := newTestModel(t, widget.Options{})
	press(m, tea.KeyCtrlP)
	if kv[widget.KeyColor] != "#ff88dc" {
		t.Fatalf("expected pink after purple, got %q", kv[widget.KeyColor])
	}
	if !strings.Contains(m.renderFooter(), "color (Pink)") {
		t.Fatalf("footer missing color name: %s", m.renderFooter())
	}
}

func TestEscQuits(t *testing.T) {
	m, _ := newTestModel(t, widget.Options{})
	cmd := press(m, tea.KeyEsc)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
