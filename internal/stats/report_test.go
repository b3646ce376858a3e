package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "studylog.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	subjects, err := st.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("list subjects: %v", err)
	}
	if len(subjects) == 0 {
		t.Fatalf("expected seeded subjects")
	}
	subj := subjects[0]
	topics, err := st.ListSubtopicsBySubject(ctx, subj.ID)
	if err != nil {
		t.Fatalf("list subtopics: %v", err)
	}

	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		start := now.AddDate(0, 0, -i).Add(-time.Hour)
		session := model.StudySession{
			SubjectID:       subj.ID,
			SubtopicID:      topics[i].ID,
			StartTime:       start,
			EndTime:         start.Add(30 * time.Minute),
			DurationSeconds: 1800,
		}
		if _, err := st.InsertSession(ctx, session); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	if _, err := st.ToggleProgress(ctx, topics[0].ID, store.FieldTopicCompleted); err != nil {
		t.Fatalf("toggle progress: %v", err)
	}
	if _, err := st.AddTask(ctx, "2024-03-01", "Mock test"); err != nil {
		t.Fatalf("add task: %v", err)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{SubjectID: subj.ID})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(report.Sessions))
	}
	if len(report.Subtopics) != len(topics) {
		t.Fatalf("expected %d subtopics, got %d", len(topics), len(report.Subtopics))
	}

	summary := report.Summary(now)
	if summary.CurrentStreak != 3 || summary.BestStreak != 3 {
		t.Fatalf("unexpected streaks: %+v", summary)
	}
	if summary.Total != 90*time.Minute || summary.Today != 30*time.Minute {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.TopicsCompleted != 1 || summary.Overdue != 1 {
		t.Fatalf("unexpected topics/overdue: %+v", summary)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, summary); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	for _, want := range []string{"Total study time: 1h 30m", "Current streak: 3 days", "Overdue tasks: 1"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in summary:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	recent := RecentSessions(report.Sessions, 2)
	if err := RenderRecent(&buf, recent, report.SubtopicTitles(), now); err != nil {
		t.Fatalf("render recent: %v", err)
	}
	if !strings.Contains(buf.String(), topics[0].Title) || !strings.Contains(buf.String(), "ago") {
		t.Fatalf("unexpected recent output:\n%s", buf.String())
	}
}

func TestRenderSubjectTable(t *testing.T) {
	var buf bytes.Buffer
	totals := []SubjectTotal{
		{Name: "English", Seconds: 5400},
		{Name: "Mathematics", Seconds: 1800},
	}
	if err := RenderSubjectTable(&buf, totals); err != nil {
		t.Fatalf("render subjects: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "English      1h 30m    75%") {
		t.Fatalf("unexpected subject table:\n%s", out)
	}
}
