package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/motivation"
	"github.com/verte-zerg/studylog/internal/store"
	"github.com/verte-zerg/studylog/internal/timer"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	model    *Model
	store    *store.Store
	timer    *timer.Timer
	clock    *fakeClock
	subjects []int64
	topics   []int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "studylog.db"), store.WithoutSeed())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{store: st, clock: &fakeClock{now: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)}}
	for _, name := range []string{"Mathematics", "Physics"} {
		id, err := st.AddSubject(ctx, name, "")
		if err != nil {
			t.Fatalf("add subject: %v", err)
		}
		f.subjects = append(f.subjects, id)
	}
	for _, title := range []string{"Algebra", "Calculus"} {
		id, err := st.AddSubtopic(ctx, f.subjects[0], title)
		if err != nil {
			t.Fatalf("add subtopic: %v", err)
		}
		f.topics = append(f.topics, id)
	}
	if _, err := st.AddSubtopic(ctx, f.subjects[1], "Optics"); err != nil {
		t.Fatalf("add subtopic: %v", err)
	}

	f.timer = timer.New(f.clock, timer.NewFileSnapshotStore(filepath.Join(dir, "timer.json")), st, nil)
	cfg := model.Config{MinSaveSeconds: 60, TickInterval: time.Second}
	f.model = NewModel(cfg, st, f.timer, f.clock, nil, nil)
	return f
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func spaceKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func TestStartTickAndSave(t *testing.T) {
	f := newFixture(t)
	m := f.model

	_, cmd := m.Update(spaceKey())
	if !f.timer.Running() {
		t.Fatalf("expected timer to run after toggle")
	}
	if cmd == nil {
		t.Fatalf("expected tick to be scheduled")
	}

	if _, cmd := m.Update(tickMsg{gen: m.tickGen - 1}); cmd != nil {
		t.Fatalf("expected stale tick to be dropped")
	}

	f.clock.Advance(30 * time.Second)
	if _, cmd := m.Update(tickMsg{gen: m.tickGen}); cmd == nil {
		t.Fatalf("expected current tick to reschedule")
	}
	if m.elapsed != 30 {
		t.Fatalf("expected 30s elapsed, got %d", m.elapsed)
	}

	m.Update(runeKey("s"))
	if !strings.Contains(m.notice, "too short") || !m.noticeErr {
		t.Fatalf("expected too-short notice, got %q", m.notice)
	}
	if !f.timer.Running() {
		t.Fatalf("expected timer to keep running after rejected save")
	}

	f.clock.Advance(60 * time.Second)
	m.Update(runeKey("s"))
	if !strings.HasPrefix(m.notice, "Saved 1m of Algebra") {
		t.Fatalf("unexpected notice after save: %q", m.notice)
	}
	sessions, err := f.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].DurationSeconds != 90 || sessions[0].SubtopicID != f.topics[0] {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	if f.timer.Running() || m.elapsed != 0 {
		t.Fatalf("expected timer reset after save")
	}
	if m.today != 90*time.Second {
		t.Fatalf("expected footer to reload today total, got %s", m.today)
	}
}

func TestPauseStopsTicking(t *testing.T) {
	f := newFixture(t)
	m := f.model

	m.Update(spaceKey())
	gen := m.tickGen
	f.clock.Advance(5 * time.Second)
	m.Update(spaceKey())
	if f.timer.Running() {
		t.Fatalf("expected timer paused")
	}
	if m.elapsed != 5 {
		t.Fatalf("expected 5s elapsed, got %d", m.elapsed)
	}
	f.clock.Advance(time.Minute)
	if _, cmd := m.Update(tickMsg{gen: gen}); cmd != nil {
		t.Fatalf("expected tick from before pause to be dropped")
	}
	if m.elapsed != 5 {
		t.Fatalf("expected elapsed frozen while paused, got %d", m.elapsed)
	}
}

func TestSelectionCyclesAndLocksWhileRunning(t *testing.T) {
	f := newFixture(t)
	m := f.model

	m.Update(runeKey("j"))
	if _, sub := f.timer.Selection(); sub != f.topics[1] {
		t.Fatalf("expected second subtopic selected, got %d", sub)
	}
	m.Update(runeKey("j"))
	if _, sub := f.timer.Selection(); sub != f.topics[0] {
		t.Fatalf("expected selection to wrap, got %d", sub)
	}

	m.Update(runeKey("l"))
	if subj, _ := f.timer.Selection(); subj != f.subjects[1] {
		t.Fatalf("expected second subject selected, got %d", subj)
	}
	if len(m.subtopics) != 1 || m.subtopics[0].Title != "Optics" {
		t.Fatalf("expected subtopics of second subject, got %+v", m.subtopics)
	}

	m.Update(spaceKey())
	m.Update(runeKey("h"))
	if subj, _ := f.timer.Selection(); subj != f.subjects[1] {
		t.Fatalf("expected selection locked while running, got %d", subj)
	}
	if !strings.Contains(m.notice, "Pause the timer") {
		t.Fatalf("expected pause hint, got %q", m.notice)
	}
}

func TestSaveWithoutSubtopic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty, err := f.store.AddSubject(ctx, "History", "")
	if err != nil {
		t.Fatalf("add subject: %v", err)
	}
	cfg := model.Config{MinSaveSeconds: 0, SubjectID: empty}
	m := NewModel(cfg, f.store, f.timer, f.clock, nil, nil)
	m.Update(spaceKey())
	f.clock.Advance(2 * time.Minute)
	m.Update(runeKey("s"))
	if m.notice != "Select a subtopic before saving" {
		t.Fatalf("unexpected notice: %q", m.notice)
	}
}

func TestAddTaskFromInput(t *testing.T) {
	f := newFixture(t)
	m := f.model

	m.Update(runeKey("t"))
	if !m.adding {
		t.Fatalf("expected task input to open")
	}
	m.Update(runeKey("Revise"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.adding {
		t.Fatalf("expected task input to close")
	}
	tasks, err := f.store.ListTasksByDate(context.Background(), "2024-05-06")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Revise" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestQuoteDismissedOnEnter(t *testing.T) {
	f := newFixture(t)
	q := motivation.Quote{Text: "Little by little, one travels far.", Author: "J.R.R. Tolkien"}
	m := NewModel(model.Config{}, f.store, f.timer, f.clock, &q, nil)
	if !strings.Contains(m.View(), "Little by little") {
		t.Fatalf("expected quote in view")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.quote != nil {
		t.Fatalf("expected quote dismissed")
	}
}

func TestFlagsDoNotMovePausedSession(t *testing.T) {
	f := newFixture(t)
	m := f.model

	m.Update(spaceKey())
	f.clock.Advance(30 * time.Second)
	m.Update(spaceKey())
	if f.timer.Running() || f.timer.Elapsed() != 30 {
		t.Fatalf("expected paused timer with 30s, got running=%v elapsed=%d", f.timer.Running(), f.timer.Elapsed())
	}

	cfg := model.Config{MinSaveSeconds: 60, TickInterval: time.Second, SubjectID: f.subjects[0], SubtopicID: f.topics[1]}
	restored := NewModel(cfg, f.store, f.timer, f.clock, nil, nil)
	if _, subtopicID := f.timer.Selection(); subtopicID != f.topics[0] {
		t.Fatalf("expected paused session to keep Algebra, got subtopic %d", subtopicID)
	}
	if restored.subtopics[restored.subtopicIdx].ID != f.topics[0] {
		t.Fatalf("expected view to show Algebra")
	}
	if !strings.Contains(restored.notice, "Keeping the paused session's topic") || restored.noticeErr {
		t.Fatalf("unexpected notice: %q", restored.notice)
	}

	m.Update(runeKey("r"))
	if f.timer.Elapsed() != 0 {
		t.Fatalf("expected reset to clear elapsed time")
	}
	fresh := NewModel(cfg, f.store, f.timer, f.clock, nil, nil)
	if _, subtopicID := f.timer.Selection(); subtopicID != f.topics[1] {
		t.Fatalf("expected flags to select Calculus once reset, got subtopic %d", subtopicID)
	}
	if fresh.notice != "" {
		t.Fatalf("expected no notice for a fresh timer, got %q", fresh.notice)
	}
}
