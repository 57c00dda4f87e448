package dashboard

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/studyboard/internal/model"
	"github.com/verte-zerg/studyboard/internal/stats"
)

var (
	accentColor = stats.PinkColor
	valueColor  = stats.CyanColor
	mutedColor  = lipgloss.Color("#6E6E6E")
	borderColor = lipgloss.Color("#4A4A4A")

	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(accentColor)
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(borderColor)
	headerStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle  = lipgloss.NewStyle().Foreground(accentColor)
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(borderColor)
	cardTitleStyle  = lipgloss.NewStyle().Foreground(stats.GreyColor)
	cardValueStyle  = lipgloss.NewStyle().Foreground(valueColor).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

const (
	loadingMessage  = "Loading study log…"
	noMatchMessage  = "No records match the selected activities."
	updatedLayout   = "15:04:05"
	recordDateShape = "02/01/2006"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.statusLine() != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
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

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + summary
}

func (m *Model) renderFilterSummary() string {
	summary := fmt.Sprintf("Activity: %s  window=%d", activityLabel(m.filter), m.window)
	if m.formURL != "" {
		summary += "  Log a session: " + m.formURL
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func activityLabel(filter model.Filter) string {
	if stats.SelectsAll(filter) {
		return model.AllActivities
	}
	return strings.Join(filter.Activities, ", ")
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Activity: a/A  Filter: /  Reload: r  Window: -/=  Quit: q"
	if m.loading {
		help = m.spinner.View() + " " + help
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("comma-separated activities, empty for all  enter: apply  esc: cancel")
}

// statusLine reports why there is nothing to show, or when data was loaded.
func (m *Model) statusLine() string {
	if !m.loaded {
		return ""
	}
	res := m.report.Load
	if !res.Ready() {
		return "Status: " + res.Describe()
	}
	line := "Updated " + res.LoadedAt.Local().Format(updatedLayout)
	if res.Dropped > 0 {
		line += fmt.Sprintf("  %d incomplete rows skipped", res.Dropped)
	}
	return line
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	status := m.statusLine()
	if status == "" {
		return m.renderHelp()
	}
	if m.report.Load.Ready() {
		return m.renderHelp() + "\n" + headerStyle.Render(status)
	}
	return m.renderHelp() + "\n" + errorStyle.Render(status)
}

func (m *Model) renderFilterForm() string {
	lines := []string{
		"Filter activities (enter to apply, esc to cancel)",
		m.filterInput.View(),
	}
	if options := m.report.Options; len(options) > 1 {
		lines = append(lines, headerStyle.Render("Available: "+strings.Join(options[1:], ", ")))
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if msg := m.placeholder(); msg != "" {
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}
	if m.activeTab == tabRecords {
		return fitLines(tableMutedStyle.Render(m.records.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

// placeholder is the message shown instead of the tabs, if any.
func (m *Model) placeholder() string {
	switch {
	case !m.loaded:
		return m.spinner.View() + " " + loadingMessage
	case !m.report.Load.Ready():
		return stats.WaitingMessage
	case len(m.report.Records) == 0:
		return noMatchMessage
	}
	return ""
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || !m.report.Load.Ready() {
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	snap := m.report.Snapshot
	m.viewports[tabOverview].SetContent(renderOverview(snap, m.window, width))
	m.viewports[tabAreas].SetContent(renderSection(func(buf *bytes.Buffer) error {
		return stats.RenderAreas(buf, snap, width, true)
	}))
	m.viewports[tabTopics].SetContent(renderSection(func(buf *bytes.Buffer) error {
		return stats.RenderTopics(buf, snap, width, true)
	}))
}

func renderOverview(snap model.Snapshot, window, width int) string {
	cards := renderSummaryCards(snap, width)
	curves := renderSection(func(buf *bytes.Buffer) error {
		return stats.RenderDailyCurves(buf, snap, window, width, plotHeight, true)
	})
	return strings.TrimRight(cards+"\n\n"+curves, "\n")
}

func renderSummaryCards(snap model.Snapshot, width int) string {
	kpis := stats.KPIs(snap)
	cards := make([]string, 0, len(kpis))
	for _, kpi := range kpis {
		cards = append(cards, metricCard(kpi.Label, kpi.Value))
	}
	if width < 60 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderSection(render func(buf *bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func recordColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Activity", Width: 14},
		{Title: "Area", Width: 16},
		{Title: "Topic", Width: 24},
		{Title: "Questions", Width: 9},
		{Title: "Correct", Width: 7},
		{Title: "Errors", Width: 6},
		{Title: "Minutes", Width: 7},
	}
}

func buildRecordRows(records model.Table) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{
			r.Date.Format(recordDateShape),
			r.ActivityType,
			model.OrUnspecified(r.BroadArea),
			model.OrUnspecified(r.Topic),
			strconv.Itoa(r.QuestionsAttempted),
			strconv.Itoa(r.CorrectAnswers),
			strconv.Itoa(r.Errors),
			strconv.FormatFloat(r.StudyMinutes, 'f', -1, 64),
		})
	}
	return rows
}

func (m *Model) applyRecordsTable(width, height int, force bool) {
	rows := buildRecordRows(m.report.Records)
	viewportHeight := max(1, height-1)
	if !force &&
		m.recordsLayout.width == width &&
		m.recordsLayout.height == viewportHeight &&
		m.recordsLayout.rowCount == len(rows) {
		return
	}
	m.records.SetRows(rows)
	m.recordsLayout.rowCount = len(rows)
	m.recordsLayout.width = 0
	m.setRecordsTableSize(width, height)
}

func (m *Model) setRecordsTableSize(width, height int) {
	viewportHeight := max(1, height-1)
	if m.recordsLayout.width == width && m.recordsLayout.height == viewportHeight {
		return
	}
	m.recordsLayout.width = width
	m.recordsLayout.height = viewportHeight
	m.records.SetWidth(width)
	m.records.SetHeight(viewportHeight)
	viewportHeight = m.adjustRecordsTableHeight(height)
	if m.recordsLayout.height != viewportHeight {
		m.recordsLayout.height = viewportHeight
		m.records.SetHeight(viewportHeight)
	}
}

// adjustRecordsTableHeight corrects for the header border so the rendered
// table fills exactly bodyHeight lines.
func (m *Model) adjustRecordsTableHeight(bodyHeight int) int {
	target := max(1, bodyHeight)
	height := m.records.Height()
	viewHeight := lipgloss.Height(m.records.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	m.records.SetHeight(height)
	viewHeight = lipgloss.Height(m.records.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	return height
}

func recordsTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(borderColor).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(accentColor).
		Bold(true)
	return styles
}
