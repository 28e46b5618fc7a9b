// Package tui provides the Bubble Tea dice roller interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuidice/internal/widget"
)

const (
	toastTTL   = 4 * time.Second
	inputWidth = 16
	dieGlyph   = "⚄"
)

var (
	panelStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#E6E6E6"))
	dieStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Bold(true)
	validFrameStyle   = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("#ffffff")).Foreground(lipgloss.Color("#000000"))
	invalidFrameStyle = validFrameStyle.Background(lipgloss.Color("#ffaaaa"))
	outputStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Bold(true).Width(6).Align(lipgloss.Center)
	toastStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#333333")).Padding(0, 1)
	valuesStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type clearToastMsg struct {
	id int
}

// Model implements the Bubble Tea roller UI.
type Model struct {
	widget *widget.Widget
	logger *slog.Logger
	input  textinput.Model

	width  int
	height int

	toast   string
	toastID int
	values  []int
	errMsg  string
}

// NewModel constructs a roller TUI model over a loaded widget.
func NewModel(w *widget.Widget, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "1d6"
	input.CharLimit = 64
	input.Width = inputWidth
	input.SetValue(w.Snapshot().RollString)
	input.Focus()
	return &Model{
		widget: w,
		logger: logger,
		input:  input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case clearToastMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.commitEdit()
			return m, nil
		case tea.KeyCtrlR:
			return m, m.roll()
		case tea.KeyCtrlP:
			m.cycleColor()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commitEdit ends an edit of the notation field. Parsing happens once per
// completed edit, not per keystroke.
func (m *Model) commitEdit() {
	text := m.input.Value()
	if _, err := m.widget.Edit(context.Background(), text); err != nil {
		m.fail("failed to save notation", err)
		return
	}
	m.errMsg = ""
}

func (m *Model) roll() tea.Cmd {
	if m.input.Value() != m.widget.Snapshot().RollString {
		m.commitEdit()
	}
	out, err := m.widget.Roll(context.Background())
	switch {
	case errors.Is(err, widget.ErrNotRollable):
		return nil
	case errors.Is(err, widget.ErrTooManyDice):
		m.errMsg = err.Error()
		return nil
	case err != nil:
		m.fail("failed to save roll", err)
		return nil
	}
	m.errMsg = ""
	m.values = out.Result.Values
	m.toast = out.Notification
	m.toastID++
	id := m.toastID
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return clearToastMsg{id: id}
	})
}

func (m *Model) cycleColor() {
	if _, err := m.widget.CycleColor(context.Background()); err != nil {
		m.fail("failed to save color", err)
	}
}

func (m *Model) fail(what string, err error) {
	m.logger.Error(what, "err", err)
	m.errMsg = fmt.Sprintf("%s: %v", what, err)
}

// View implements tea.Model.
func (m *Model) View() string {
	panel := m.renderPanel()
	lines := []string{panel}
	if m.toast != "" {
		lines = append(lines, toastStyle.Render(m.toast))
	}
	if len(m.values) > 0 {
		for _, line := range wrapValues(m.values, m.valuesWidth()) {
			lines = append(lines, valuesStyle.Render(line))
		}
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	lines = append(lines, m.renderFooter())
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderPanel() string {
	snap := m.widget.Snapshot()
	frame := validFrameStyle
	if !snap.Valid {
		frame = invalidFrameStyle
	}
	row := lipgloss.JoinHorizontal(lipgloss.Center,
		dieStyle.Render(dieGlyph),
		"  ",
		frame.Render(m.input.View()),
		"  ",
		outputStyle.Render(snap.Output),
	)
	return panelStyle.Background(lipgloss.Color(snap.Color)).Render(row)
}

func (m *Model) renderFooter() string {
	snap := m.widget.Snapshot()
	name := snap.Color
	if s, ok := widget.LookupColor(snap.Color); ok {
		name = s.Name
	}
	segments := []string{
		fmt.Sprintf("Dice %s", snap.Dice.Raw),
		"enter: set",
		"ctrl+r: roll",
		fmt.Sprintf("ctrl+p: color (%s)", name),
		"esc: quit",
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) valuesWidth() int {
	if m.width <= 0 {
		return 0
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}
