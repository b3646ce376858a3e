// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/stats"
	"github.com/verte-zerg/studylog/internal/store"
	"github.com/verte-zerg/studylog/internal/timer"
)

const (
	tabOverview = iota
	tabChart
	tabRecent
)

const (
	chartHeight    = 10
	recentLimit    = 50
	weakTopicCount = 5
	defaultDays    = 7
	pollInterval   = 2 * time.Second
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
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

// changeMsg is delivered when the store commits a write.
type changeMsg struct {
	change store.Change
}

// pollMsg asks the model to check for writes made by other processes.
type pollMsg struct{}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store  *store.Store
	cfg    model.StatsConfig
	clock  timer.Clock
	logger *log.Logger

	changes     <-chan store.Change
	unsubscribe func()
	dataVersion int64

	report stats.Report
	errMsg string

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	recentTable table.Model

	monthly bool
	month   time.Time

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model. It subscribes to store changes until
// Close is called.
func NewModel(st *store.Store, cfg model.StatsConfig, clock timer.Clock, logger *log.Logger) *Model {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Days <= 0 {
		cfg.Days = defaultDays
	}
	m := &Model{
		store:  st,
		cfg:    cfg,
		clock:  clock,
		logger: logger,
		tabs:   []string{"Overview", "Chart", "Recent"},
	}
	m.month = firstOfMonth(clock.Now())
	if !cfg.Month.IsZero() {
		m.monthly = true
		m.month = firstOfMonth(cfg.Month)
	}
	m.changes, m.unsubscribe = st.Subscribe()
	m.syncDataVersion()
	m.initInputs()
	m.recentTable = buildRecentTable(0, 1)
	m.initViewports()
	m.refreshReport()
	return m
}

// Close ends the store subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.changes), schedulePoll())
}

func schedulePoll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// syncDataVersion records the current data version and reports whether it
// moved since the last call.
func (m *Model) syncDataVersion() bool {
	version, err := m.store.DataVersion(context.Background())
	if err != nil {
		m.logger.Error("failed to poll store", "err", err)
		return false
	}
	changed := version != m.dataVersion
	m.dataVersion = version
	return changed
}

func waitForChange(ch <-chan store.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg{change: change}
	}
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
	case changeMsg:
		m.logger.Debug("store changed", "collection", msg.change.Collection)
		m.refreshReport()
		return m, waitForChange(m.changes)
	case pollMsg:
		if m.syncDataVersion() {
			m.logger.Debug("store changed by another process")
			m.refreshReport()
		}
		return m, schedulePoll()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			m.Close()
			return m, tea.Quit
		}
		if m.activeTab == tabRecent {
			m.recentTable.Focus()
		} else {
			m.recentTable.Blur()
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshReport()
			return m, nil
		case "m":
			m.monthly = !m.monthly
			m.renderTabContents()
			return m, nil
		case "[":
			m.shiftMonth(-1)
			return m, nil
		case "]":
			m.shiftMonth(1)
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabRecent {
				m.recentTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRecent {
				m.recentTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabRecent {
				var cmd tea.Cmd
				m.recentTable, cmd = m.recentTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

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

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Subject id: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Days: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	if m.cfg.SubjectID > 0 {
		m.filterInputs[0].SetValue(strconv.FormatInt(m.cfg.SubjectID, 10))
	} else {
		m.filterInputs[0].SetValue("")
	}
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format(model.DateLayout))
	} else {
		m.filterInputs[1].SetValue("")
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Days))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
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
	m.recentTable.SetWidth(m.width)
	m.recentTable.SetHeight(maxInt(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
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
	if m.activeTab == tabRecent {
		m.recentTable.Focus()
	} else {
		m.recentTable.Blur()
	}
}

func (m *Model) shiftMonth(delta int) {
	m.monthly = true
	m.month = m.month.AddDate(0, delta, 0)
	m.renderTabContents()
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
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	subject := "all"
	if m.cfg.SubjectID > 0 {
		subject = strconv.FormatInt(m.cfg.SubjectID, 10)
		if name, ok := m.report.SubjectNames()[m.cfg.SubjectID]; ok {
			subject = name
		}
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(model.DateLayout)
	}
	summary := fmt.Sprintf("Settings: subject=%s  since=%s  days=%d", subject, since, m.cfg.Days)
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Refresh: r  Settings: /  Quit: q"
	if m.activeTab == tabChart {
		help = "Nav: left/right  Weekly/monthly: m  Month: [/]  Refresh: r  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
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
	if m.activeTab == tabRecent {
		if len(m.report.Sessions) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.recentTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.logger.Error("failed to load stats", "err", err)
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.recentTable.SetRows(buildRecentRows(report, m.clock.Now()))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	now := m.clock.Now()
	m.viewports[tabOverview].SetContent(renderOverview(m.report, now, m.cfg.Days, width))
	m.viewports[tabChart].SetContent(m.renderChart(now, width))
}

func renderOverview(report stats.Report, now time.Time, trendDays, width int) string {
	summary := renderSummaryCards(report.Summary(now), width)
	trend := fmt.Sprintf("%s  %s", cardTitleStyle.Render(fmt.Sprintf("Last %s", days(trendDays))),
		stats.Trend(stats.DailySeries(report.Sessions, now, trendDays)))
	weak := renderWeakTopics(report)
	return strings.TrimRight(summary+"\n\n"+trend+"\n\n"+weak, "\n")
}

func renderSummaryCards(s stats.Summary, width int) string {
	cards := []string{
		metricCard("Total", stats.FormatHoursMinutes(s.Total)),
		metricCard("Today", stats.FormatHoursMinutes(s.Today)),
		metricCard("Streak", days(s.CurrentStreak)),
		metricCard("Best streak", days(s.BestStreak)),
		metricCard("Topics covered", fmt.Sprintf("%d/%d (%.0f%%)", s.TopicsCompleted, s.TopicsTotal, s.Completion*100)),
		metricCard("Overdue tasks", strconv.Itoa(s.Overdue)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2], cards[3])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderWeakTopics(report stats.Report) string {
	weak := stats.WeakTopics(report.Subtopics, report.Progress, weakTopicCount)
	if len(weak) == 0 {
		return headerStyle.Render("No subtopics yet.")
	}
	lines := []string{cardTitleStyle.Render("Needs revision")}
	for _, tp := range weak {
		lines = append(lines, fmt.Sprintf("  %s  %d/5", tp.Subtopic.Title, tp.Stages))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderChart(now time.Time, width int) string {
	var (
		title  string
		series []stats.DayTotal
	)
	if m.monthly {
		title = m.month.Format("January 2006")
		series = stats.MonthlySeries(m.report.Sessions, m.month)
	} else {
		title = fmt.Sprintf("Last %s", days(m.cfg.Days))
		series = stats.DailySeries(m.report.Sessions, now, m.cfg.Days)
	}
	var buf bytes.Buffer
	if err := stats.RenderBarsWithColor(&buf, title, series, stats.PlotWidthFor(width), chartHeight, true); err != nil {
		return fmt.Sprintf("Failed to render chart: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func buildRecentTable(width, height int) table.Model {
	columns := []table.Column{
		{Title: "Topic", Width: 28},
		{Title: "Subject", Width: 16},
		{Title: "Duration", Width: 9},
		{Title: "Started", Width: 16},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(recentTableStyles())
	return t
}

func buildRecentRows(report stats.Report, now time.Time) []table.Row {
	titles := report.SubtopicTitles()
	names := report.SubjectNames()
	recent := stats.RecentSessions(report.Sessions, recentLimit)
	rows := make([]table.Row, 0, len(recent))
	for _, s := range recent {
		rows = append(rows, table.Row{
			stats.SubtopicLabel(titles, s.SubtopicID),
			names[s.SubjectID],
			stats.FormatHoursMinutes(s.Duration()),
			humanize.RelTime(s.StartTime, now, "ago", "from now"),
		})
	}
	return rows
}

func recentTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case "enter":
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case "tab", "down":
		return m, m.setFilterIndex(m.filterIndex + 1)
	case "shift+tab", "up":
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == idx {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	cfg := m.cfg
	subject := strings.TrimSpace(m.filterInputs[0].Value())
	cfg.SubjectID = 0
	if subject != "" {
		id, err := strconv.ParseInt(subject, 10, 64)
		if err != nil || id < 0 {
			return fmt.Errorf("subject must be a non-negative id")
		}
		cfg.SubjectID = id
	}
	since := strings.TrimSpace(m.filterInputs[1].Value())
	cfg.Since = nil
	if since != "" {
		parsed, err := time.ParseInLocation(model.DateLayout, since, time.Local)
		if err != nil {
			return fmt.Errorf("since must be YYYY-MM-DD")
		}
		cfg.Since = &parsed
	}
	daysValue := strings.TrimSpace(m.filterInputs[2].Value())
	cfg.Days = defaultDays
	if daysValue != "" {
		n, err := strconv.Atoi(daysValue)
		if err != nil || n <= 0 {
			return fmt.Errorf("days must be a positive number")
		}
		cfg.Days = n
	}
	m.cfg = cfg
	return nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
