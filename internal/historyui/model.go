// Package historyui provides the Bubble Tea roll history interface.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuidice/internal/dice"
	"github.com/verte-zerg/tuidice/internal/model"
	"github.com/verte-zerg/tuidice/internal/stats"
	"github.com/verte-zerg/tuidice/internal/store"
)

const (
	tabOverview = iota
	tabValues
	tabRolls
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#91a6ff"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// ReportSource loads the history report.
type ReportSource func(ctx context.Context, cfg model.HistoryConfig) (stats.Report, error)

// StoreSource builds reports from a store.
func StoreSource(st *store.Store) ReportSource {
	return func(ctx context.Context, cfg model.HistoryConfig) (stats.Report, error) {
		return stats.BuildReport(ctx, st, cfg)
	}
}

// Model implements the Bubble Tea history UI.
type Model struct {
	source ReportSource
	cfg    model.HistoryConfig

	report stats.Report
	errMsg string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	valueTable table.Model

	width  int
	height int
}

// NewModel constructs a history UI model.
func NewModel(source ReportSource, cfg model.HistoryConfig) *Model {
	m := &Model{
		source: source,
		cfg:    cfg,
		tabs:   []string{"Overview", "Values", "Rolls"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.valueTable = table.New(table.WithColumns(valueColumns()), table.WithStyles(valueTableStyles()))
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.Window = nextWindow(m.cfg.Window)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.Window = prevWindow(m.cfg.Window)
			m.refreshReport()
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "g", "home":
			if m.activeTab == tabValues {
				m.valueTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabValues {
				m.valueTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabValues {
			m.valueTable, cmd = m.valueTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight := m.layoutHeights()
	header := fitLines(m.renderTabs()+"\n"+m.renderSettings(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, 1)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	bodyHeight = m.height - headerHeight - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.valueTable.SetWidth(m.width)
	m.valueTable.SetHeight(bodyHeight)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabValues {
		m.valueTable.Focus()
	} else {
		m.valueTable.Blur()
	}
}

func (m *Model) refreshReport() {
	report, err := m.source(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
		m.valueTable.SetRows(nil)
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.report = report
	m.valueTable.SetRows(valueRows(report.ValuesAll))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load history.")
		}
		return
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.Window, width))
	m.viewports[tabRolls].SetContent(renderRolls(m.report.Rolls))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderSettings() string {
	instance := m.cfg.Instance
	if instance == "" {
		instance = "any"
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return headerStyle.Render(fmt.Sprintf("Settings: instance=%s  last=%s  window=%d", instance, last, m.cfg.Window))
}

func (m *Model) renderFooter() string {
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Reload: r  Quit: q")
}

func (m *Model) renderBody() string {
	if m.activeTab == tabValues {
		if len(m.report.ValuesAll) == 0 {
			return "No die values found."
		}
		return tableMutedStyle.Render(m.valueTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Rolls) == 0 {
		return "No rolls found."
	}
	metrics := stats.RollMetrics(report.Rolls)
	cards := []string{
		metricCard("Rolls", strconv.Itoa(metrics.Rolls)),
		metricCard("Dice", strconv.Itoa(metrics.Dice)),
		metricCard("Avg total", fmt.Sprintf("%.1f", metrics.MeanAggregate)),
		metricCard("Best", strconv.Itoa(metrics.Best)),
		metricCard("Worst", strconv.Itoa(metrics.Worst)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, report.Rolls, window, width); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	lines := []string{summary, "", strings.TrimRight(buf.String(), "\n")}
	if top := stats.TopRawByFrequency(report.Rolls, 5); len(top) > 0 {
		lines = append(lines, "", "Most rolled: "+strings.Join(top, "  "))
	}
	if fair := stats.DieFairness(report.ValuesWindow); len(fair) > 0 {
		lines = append(lines, "", fmt.Sprintf("Fairness over last %d rolls (chi-square, df = faces-1)", len(report.WindowIDs)))
		for _, f := range fair {
			lines = append(lines, fmt.Sprintf("  %-5s n=%-5d chi2=%.2f", f.Die, f.Samples, f.ChiSquare))
		}
	}
	return strings.Join(lines, "\n")
}

func renderRolls(rolls []model.RollRecord) string {
	if len(rolls) == 0 {
		return "No rolls found."
	}
	lines := make([]string, 0, len(rolls))
	for i := len(rolls) - 1; i >= 0; i-- {
		r := rolls[i]
		spec := dice.Spec{Raw: r.Raw}
		summary := dice.Summary(spec, dice.Result{Values: r.Values, Aggregate: r.Aggregate})
		lines = append(lines, fmt.Sprintf("%s  %s rolled %s", r.RolledAt.Local().Format("2006-01-02 15:04:05"), r.User, summary))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func valueColumns() []table.Column {
	return []table.Column{
		{Title: "Die", Width: 6},
		{Title: "Value", Width: 6},
		{Title: "Count", Width: 7},
		{Title: "Share", Width: 7},
	}
}

func valueRows(aggs []model.ValueAggregate) []table.Row {
	totals := map[string]int{}
	for _, agg := range aggs {
		totals[agg.Die] += agg.Count
	}
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range aggs {
		share := 0.0
		if t := totals[agg.Die]; t > 0 {
			share = float64(agg.Count) / float64(t) * 100
		}
		rows = append(rows, table.Row{
			agg.Die,
			strconv.Itoa(agg.Value),
			strconv.Itoa(agg.Count),
			fmt.Sprintf("%.1f%%", share),
		})
	}
	return rows
}

func valueTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(false)
	return styles
}

func nextWindow(n int) int {
	if n < 1 {
		return 1
	}
	return n + 5 - n%5
}

func prevWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 != 0 {
		return n - n%5
	}
	return n - 5
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}
