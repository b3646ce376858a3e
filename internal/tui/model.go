// Package tui provides the Bubble Tea focus timer interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/motivation"
	"github.com/verte-zerg/studylog/internal/stats"
	"github.com/verte-zerg/studylog/internal/store"
	"github.com/verte-zerg/studylog/internal/timer"
)

const defaultTickInterval = time.Second

// tickMsg carries the generation it was scheduled under. Stopping bumps the
// generation, so ticks already in flight are dropped.
type tickMsg struct {
	gen int
}

// Model implements the Bubble Tea focus timer UI.
type Model struct {
	config model.Config
	store  *store.Store
	timer  *timer.Timer
	clock  timer.Clock
	logger *log.Logger

	keys keyMap
	help help.Model

	subjects    []model.Subject
	subtopics   []model.Subtopic
	subjectIdx  int
	subtopicIdx int

	elapsed int64
	tickGen int

	notice    string
	noticeErr bool
	quote     *motivation.Quote

	adding    bool
	taskInput textinput.Model

	today  time.Duration
	streak int
	best   int

	width  int
	height int
}

var (
	clockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	topicStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	quoteStyle   = lipgloss.NewStyle().
			Italic(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
)

// NewModel constructs a focus timer model. The timer should already be
// restored from its snapshot. quote is shown until dismissed when non-nil.
func NewModel(cfg model.Config, st *store.Store, tm *timer.Timer, clock timer.Clock, quote *motivation.Quote, logger *log.Logger) *Model {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	input := textinput.New()
	input.Prompt = "New task for today: "
	input.CharLimit = 200
	m := &Model{
		config:    cfg,
		store:     st,
		timer:     tm,
		clock:     clock,
		logger:    logger,
		keys:      defaultKeyMap(),
		help:      help.New(),
		quote:     quote,
		taskInput: input,
	}
	m.loadCatalog()
	m.elapsed = tm.Elapsed()
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.timer.Running() {
		return m.scheduleTick()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		if msg.gen != m.tickGen || !m.timer.Running() {
			return m, nil
		}
		m.elapsed = m.timer.Tick()
		return m, m.scheduleTick()
	case tea.KeyMsg:
		if m.adding {
			return m.updateTaskInput(msg)
		}
		if m.quote != nil && (msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc) {
			m.quote = nil
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := []string{m.renderSelection(), "", clockStyle.Render(formatClock(m.elapsed)), m.renderState()}
	if m.quote != nil {
		width := 60
		if m.width > 0 && m.width-6 < width {
			width = m.width - 6
		}
		text := strings.Join(wrapText(m.quote.Text, width), "\n")
		if m.quote.Author != "" {
			text += "\n" + lipgloss.NewStyle().Italic(false).Render("- "+m.quote.Author)
		}
		lines = append(lines, "", quoteStyle.Render(text), footerStyle.Render("enter to dismiss"))
	}
	if m.adding {
		lines = append(lines, "", m.taskInput.View())
	}
	if m.notice != "" {
		style := noticeStyle
		if m.noticeErr {
			style = errorStyle
		}
		lines = append(lines, "", style.Render(m.notice))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	footer := m.renderFooter() + "\n" + m.help.View(m.keys)
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	footerHeight := lipgloss.Height(footer)
	bodyHeight := m.height - footerHeight
	if bodyHeight < 1 {
		return content
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerBlock := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
	return body + "\n" + footerBlock
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopTicking()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle(ctx)
	case key.Matches(msg, m.keys.Reset):
		m.stopTicking()
		if err := m.timer.Reset(ctx); err != nil {
			m.fail("Failed to reset timer", err)
		} else {
			m.setNotice("Timer reset", false)
		}
		m.elapsed = 0
		return m, nil
	case key.Matches(msg, m.keys.Save):
		m.save(ctx)
		return m, nil
	case key.Matches(msg, m.keys.NextSubject):
		m.moveSubject(ctx, 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevSubject):
		m.moveSubject(ctx, -1)
		return m, nil
	case key.Matches(msg, m.keys.NextTopic):
		m.moveSubtopic(ctx, 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevTopic):
		m.moveSubtopic(ctx, -1)
		return m, nil
	case key.Matches(msg, m.keys.AddTask):
		m.adding = true
		m.taskInput.SetValue("")
		return m, m.taskInput.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

func (m *Model) toggle(ctx context.Context) tea.Cmd {
	if m.timer.Running() {
		m.stopTicking()
		if err := m.timer.Pause(ctx); err != nil {
			m.fail("Failed to pause timer", err)
		}
		m.elapsed = m.timer.Elapsed()
		m.notice = ""
		return nil
	}
	subjectID, subtopicID := m.currentSelection()
	started, err := m.timer.Start(ctx, subjectID, subtopicID)
	if err != nil {
		// The run is live in memory even when the snapshot could not be written.
		m.fail("Timer started but its state could not be saved", err)
	}
	if !started {
		return nil
	}
	if err == nil {
		m.notice = ""
	}
	m.stopTicking()
	m.elapsed = m.timer.Elapsed()
	return m.scheduleTick()
}

func (m *Model) save(ctx context.Context) {
	session, err := m.timer.Save(ctx, m.config.MinSaveSeconds)
	switch {
	case errors.Is(err, timer.ErrSessionTooShort):
		m.setNotice(fmt.Sprintf("Session too short: study at least %s before saving",
			stats.FormatHoursMinutes(time.Duration(m.config.MinSaveSeconds)*time.Second)), true)
		return
	case errors.Is(err, timer.ErrNoSubtopicSelected):
		m.setNotice("Select a subtopic before saving", true)
		return
	case err != nil && session.ID == 0:
		m.fail("Failed to save session", err)
		return
	case err != nil:
		m.logger.Warn("session saved but timer state not cleared", "err", err)
	}
	m.stopTicking()
	m.elapsed = 0
	m.setNotice(fmt.Sprintf("Saved %s of %s", stats.FormatHoursMinutes(session.Duration()), m.subtopicTitle(session.SubtopicID)), false)
	m.loadFooterStats()
}

func (m *Model) updateTaskInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.taskInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.adding = false
		m.taskInput.Blur()
		title := strings.TrimSpace(m.taskInput.Value())
		if title == "" {
			return m, nil
		}
		day := m.clock.Now().Format(model.DateLayout)
		if _, err := m.store.AddTask(context.Background(), day, title); err != nil {
			m.fail("Failed to add task", err)
			return m, nil
		}
		m.setNotice(fmt.Sprintf("Added task for %s", day), false)
		return m, nil
	}
	var cmd tea.Cmd
	m.taskInput, cmd = m.taskInput.Update(msg)
	return m, cmd
}

func (m *Model) scheduleTick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.config.TickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// stopTicking invalidates every scheduled tick. Safe to call at any time.
func (m *Model) stopTicking() {
	m.tickGen++
}

func (m *Model) loadCatalog() {
	ctx := context.Background()
	subjects, err := m.store.ListSubjects(ctx)
	if err != nil {
		m.fail("Failed to load subjects", err)
		return
	}
	m.subjects = subjects
	subjectID, subtopicID := m.timer.Selection()
	if m.config.SubjectID != 0 || m.config.SubtopicID != 0 {
		// A restored run with time on it keeps the topic it was timed against.
		if m.timer.Running() || m.timer.Elapsed() > 0 {
			m.setNotice("Keeping the paused session's topic; reset to change it", false)
		} else {
			subjectID, subtopicID = m.config.SubjectID, m.config.SubtopicID
		}
	}
	m.subjectIdx = indexOfSubject(subjects, subjectID)
	m.loadSubtopics(ctx)
	m.subtopicIdx = indexOfSubtopic(m.subtopics, subtopicID)
	m.syncSelection(ctx)
}

func (m *Model) loadSubtopics(ctx context.Context) {
	m.subtopics = nil
	m.subtopicIdx = 0
	if len(m.subjects) == 0 {
		return
	}
	subtopics, err := m.store.ListSubtopicsBySubject(ctx, m.subjects[m.subjectIdx].ID)
	if err != nil {
		m.fail("Failed to load subtopics", err)
		return
	}
	m.subtopics = subtopics
}

func (m *Model) moveSubject(ctx context.Context, delta int) {
	if len(m.subjects) == 0 {
		return
	}
	if m.timer.Running() {
		m.setNotice("Pause the timer to change subject", true)
		return
	}
	m.subjectIdx = wrapIndex(m.subjectIdx+delta, len(m.subjects))
	m.loadSubtopics(ctx)
	m.syncSelection(ctx)
}

func (m *Model) moveSubtopic(ctx context.Context, delta int) {
	if len(m.subtopics) == 0 {
		return
	}
	if m.timer.Running() {
		m.setNotice("Pause the timer to change subtopic", true)
		return
	}
	m.subtopicIdx = wrapIndex(m.subtopicIdx+delta, len(m.subtopics))
	m.syncSelection(ctx)
}

func (m *Model) syncSelection(ctx context.Context) {
	if m.timer.Running() {
		return
	}
	subjectID, subtopicID := m.currentSelection()
	if err := m.timer.Select(ctx, subjectID, subtopicID); err != nil {
		m.fail("Failed to remember selection", err)
	}
}

func (m *Model) currentSelection() (subjectID, subtopicID int64) {
	if len(m.subjects) > 0 {
		subjectID = m.subjects[m.subjectIdx].ID
	}
	if len(m.subtopics) > 0 {
		subtopicID = m.subtopics[m.subtopicIdx].ID
	}
	return subjectID, subtopicID
}

func (m *Model) subtopicTitle(id int64) string {
	for _, st := range m.subtopics {
		if st.ID == id {
			return st.Title
		}
	}
	return fmt.Sprintf("topic #%d", id)
}

func (m *Model) loadFooterStats() {
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		m.logger.Error("failed to load session stats", "err", err)
		return
	}
	now := m.clock.Now()
	m.today = stats.TodayStudyTime(sessions, now)
	m.streak = stats.CurrentStreak(sessions, now)
	m.best = stats.BestStreak(sessions)
}

func (m *Model) renderSelection() string {
	if len(m.subjects) == 0 {
		return noticeStyle.Render("No subjects yet. Add one with `studylog subjects add`.")
	}
	subj := m.subjects[m.subjectIdx]
	style := topicStyle
	if subj.Color != "" {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(subj.Color))
	}
	topic := "no subtopic"
	if len(m.subtopics) > 0 {
		topic = m.subtopics[m.subtopicIdx].Title
	}
	return style.Render(subj.Name) + noticeStyle.Render("  ›  ") + topicStyle.Render(topic)
}

func (m *Model) renderState() string {
	switch {
	case m.timer.Running():
		return runningStyle.Render("● studying")
	case m.elapsed > 0:
		return pausedStyle.Render("paused")
	default:
		return pausedStyle.Render("ready")
	}
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Today %s", stats.FormatHoursMinutes(m.today)),
		fmt.Sprintf("Streak %s", days(m.streak)),
		fmt.Sprintf("Best %s", days(m.best)),
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) fail(text string, err error) {
	m.logger.Error(strings.ToLower(text), "err", err)
	m.setNotice(text, true)
}

func formatClock(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func wrapIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func indexOfSubject(subjects []model.Subject, id int64) int {
	for i, s := range subjects {
		if s.ID == id {
			return i
		}
	}
	return 0
}

func indexOfSubtopic(subtopics []model.Subtopic, id int64) int {
	for i, s := range subtopics {
		if s.ID == id {
			return i
		}
	}
	return 0
}
