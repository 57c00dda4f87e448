// Package dashboard provides the Bubble Tea study dashboard.
package dashboard

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/studyboard/internal/loader"
	"github.com/verte-zerg/studyboard/internal/model"
	"github.com/verte-zerg/studyboard/internal/stats"
)

const (
	tabOverview = iota
	tabAreas
	tabTopics
	tabRecords
)

const (
	plotHeight     = 10
	defaultRefresh = 30 * time.Second
	maxCurveWindow = 30
	fallbackWidth  = 80
)

// Options configures a dashboard Model.
type Options struct {
	// Refresh is how often the study log is reloaded through the cache.
	Refresh time.Duration
	// FormURL is shown in the header as the place to log new sessions.
	FormURL     string
	Activity    string
	CurveWindow int
	Logger      logrus.FieldLogger
}

type loadedMsg struct {
	res loader.Result
}

type refreshMsg time.Time

// Model implements the Bubble Tea dashboard.
type Model struct {
	src     stats.Source
	refresh time.Duration
	formURL string
	log     logrus.FieldLogger

	filter model.Filter
	window int
	report stats.Report
	loaded bool

	loading bool
	spinner spinner.Model

	tabs          []string
	activeTab     int
	viewports     []viewport.Model
	records       table.Model
	recordsLayout tableLayout

	width  int
	height int

	filterMode  bool
	filterInput textinput.Model
	filterError string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a dashboard reading from src.
func NewModel(src stats.Source, opts Options) *Model {
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	if opts.CurveWindow < 1 {
		opts.CurveWindow = 1
	}
	if opts.Logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		opts.Logger = discard
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	m := &Model{
		src:     src,
		refresh: opts.Refresh,
		formURL: opts.FormURL,
		log:     opts.Logger,
		filter:  model.Filter{Activities: stats.ParseActivities(opts.Activity)},
		window:  opts.CurveWindow,
		loading: true,
		spinner: sp,
		tabs:    []string{"Overview", "Areas", "Topics", "Records"},
	}
	m.report = stats.NewReport(loader.Result{Status: loader.StatusNoData}, m.filter)
	m.initFilterInput()
	m.initRecordsTable()
	m.initViewports()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick, m.tickCmd())
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
	case loadedMsg:
		m.applyResult(msg.res)
		return m, nil
	case refreshMsg:
		if m.loading {
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.startLoad(), m.tickCmd())
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.filterMode {
		return m.updateFilter(msg)
	}
	if msg.String() == "q" {
		return m, tea.Quit
	}
	if m.activeTab == tabRecords {
		m.records.Focus()
	} else {
		m.records.Blur()
	}
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "a":
		m.cycleActivity(1)
		return m, nil
	case "A":
		m.cycleActivity(-1)
		return m, nil
	case "r":
		if m.loading {
			return m, nil
		}
		return m, m.startLoad()
	case "=":
		m.window = nextCurveWindow(m.window)
		m.renderTabContents()
		return m, nil
	case "-":
		m.window = prevCurveWindow(m.window)
		m.renderTabContents()
		return m, nil
	case "/":
		return m.startFilter()
	case "g", "home":
		if m.activeTab == tabRecords {
			m.records.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case "G", "end":
		if m.activeTab == tabRecords {
			m.records.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	default:
		if m.activeTab == tabRecords {
			var cmd tea.Cmd
			m.records, cmd = m.records.Update(msg)
			return m, cmd
		}
		vp := m.viewports[m.activeTab]
		var cmd tea.Cmd
		vp, cmd = vp.Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
}

func (m *Model) loadCmd() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		return loadedMsg{res: src.Load(context.Background())}
	}
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *Model) startLoad() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m *Model) applyResult(res loader.Result) {
	m.loading = false
	m.loaded = true
	if !res.Ready() {
		m.log.WithField("status", res.Status.String()).WithError(res.Err).Warn("dashboard has no data")
	}
	m.setReport(stats.NewReport(res, m.filter))
}

func (m *Model) setReport(report stats.Report) {
	m.report = report
	width, bodyHeight := m.bodySize()
	m.applyRecordsTable(width, bodyHeight, true)
	m.renderTabContents()
}

// setFilter re-aggregates the current table without fetching again.
func (m *Model) setFilter(filter model.Filter) {
	m.filter = filter
	m.setReport(stats.NewReport(m.report.Load, filter))
}

// cycleActivity steps through the activity options. A custom set entered
// with "/" sits outside the cycle, so stepping from it lands on an end.
func (m *Model) cycleActivity(delta int) {
	options := m.report.Options
	if len(options) == 0 {
		return
	}
	idx := activityIndex(options, m.filter)
	var next int
	switch {
	case idx < 0 && delta > 0:
		next = 0
	case idx < 0:
		next = len(options) - 1
	default:
		next = (idx + delta + len(options)) % len(options)
	}
	if next == 0 {
		m.setFilter(model.Filter{})
		return
	}
	m.setFilter(model.Filter{Activities: []string{options[next]}})
}

func activityIndex(options []string, filter model.Filter) int {
	if stats.SelectsAll(filter) {
		return 0
	}
	if len(filter.Activities) != 1 {
		return -1
	}
	return lo.IndexOf(options, filter.Activities[0])
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initFilterInput() {
	input := textinput.New()
	input.Prompt = "Activities: "
	input.Placeholder = "Questions, Review"
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	m.filterInput = input
}

func (m *Model) initRecordsTable() {
	m.records = table.New(
		table.WithColumns(recordColumns()),
		table.WithRows(nil),
		table.WithHeight(1),
	)
	m.records.SetStyles(recordsTableStyles())
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	if stats.SelectsAll(m.filter) {
		m.filterInput.SetValue("")
	} else {
		m.filterInput.SetValue(strings.Join(m.filter.Activities, ", "))
	}
	m.filterInput.CursorEnd()
	return m, m.filterInput.Focus()
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		m.filterInput.Blur()
		return m, nil
	case tea.KeyEnter:
		activities := stats.ParseActivities(m.filterInput.Value())
		if unknown := unknownActivities(activities, m.report.Options); m.report.Load.Ready() && len(unknown) > 0 {
			m.filterError = "unknown activity: " + strings.Join(unknown, ", ")
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.filterInput.Blur()
		m.setFilter(model.Filter{Activities: activities})
		m.updateLayout()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func unknownActivities(activities, options []string) []string {
	return lo.Filter(activities, func(a string, _ int) bool {
		return !lo.Contains(options, a)
	})
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabRecords {
		m.records.Focus()
	} else {
		m.records.Blur()
	}
}

func (m *Model) bodySize() (int, int) {
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	_, bodyHeight, _ := m.layoutHeights()
	return width, bodyHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setRecordsTableSize(m.width, vpHeight)
	promptWidth := lipgloss.Width(m.filterInput.Prompt)
	m.filterInput.Width = max(10, m.width-promptWidth-2)
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return min(((n/5)+1)*5, maxCurveWindow)
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}
