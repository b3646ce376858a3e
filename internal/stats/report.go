package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/store"
)

// Report holds every collection the views derive their numbers from.
type Report struct {
	Subjects  []model.Subject
	Subtopics []model.Subtopic
	Progress  []model.Progress
	Sessions  []model.StudySession
	Tasks     []model.Task
}

// Summary bundles the dashboard headline numbers.
type Summary struct {
	Sessions        int
	Total           time.Duration
	Today           time.Duration
	CurrentStreak   int
	BestStreak      int
	TopicsCompleted int
	TopicsTotal     int
	Completion      float64
	Overdue         int
}

// BuildReport loads the collections needed for stats rendering. Sessions
// honour the subject and since filters of cfg.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	var r Report
	var err error
	if r.Sessions, err = st.ListSessions(ctx, cfg); err != nil {
		return Report{}, fmt.Errorf("failed to load sessions: %w", err)
	}
	if r.Subjects, err = st.ListSubjects(ctx); err != nil {
		return Report{}, fmt.Errorf("failed to load subjects: %w", err)
	}
	if r.Subtopics, err = st.ListSubtopics(ctx); err != nil {
		return Report{}, fmt.Errorf("failed to load subtopics: %w", err)
	}
	if r.Progress, err = st.ListProgress(ctx); err != nil {
		return Report{}, fmt.Errorf("failed to load progress: %w", err)
	}
	if r.Tasks, err = st.ListTasks(ctx); err != nil {
		return Report{}, fmt.Errorf("failed to load tasks: %w", err)
	}
	if cfg.SubjectID > 0 {
		r.Subtopics = filterSubtopics(r.Subtopics, cfg.SubjectID)
		r.Progress = filterProgress(r.Progress, cfg.SubjectID)
	}
	return r, nil
}

// Summarize computes the headline numbers at now.
func Summarize(sessions []model.StudySession, progress []model.Progress, subtopicCount int, tasks []model.Task, now time.Time) Summary {
	completed := CompletedTopics(progress)
	return Summary{
		Sessions:        len(sessions),
		Total:           TotalStudyTime(sessions),
		Today:           TodayStudyTime(sessions, now),
		CurrentStreak:   CurrentStreak(sessions, now),
		BestStreak:      BestStreak(sessions),
		TopicsCompleted: completed,
		TopicsTotal:     subtopicCount,
		Completion:      TopicCompletionRatio(progress, subtopicCount),
		Overdue:         len(OverdueTasks(tasks, now)),
	}
}

// Summary computes the headline numbers of the report at now.
func (r Report) Summary(now time.Time) Summary {
	return Summarize(r.Sessions, r.Progress, len(r.Subtopics), r.Tasks, now)
}

// SubjectNames maps subject ids to names.
func (r Report) SubjectNames() map[int64]string {
	out := make(map[int64]string, len(r.Subjects))
	for _, subj := range r.Subjects {
		out[subj.ID] = subj.Name
	}
	return out
}

// SubtopicTitles maps subtopic ids to titles.
func (r Report) SubtopicTitles() map[int64]string {
	out := make(map[int64]string, len(r.Subtopics))
	for _, st := range r.Subtopics {
		out[st.ID] = st.Title
	}
	return out
}

func filterSubtopics(subtopics []model.Subtopic, subjectID int64) []model.Subtopic {
	var out []model.Subtopic
	for _, st := range subtopics {
		if st.SubjectID == subjectID {
			out = append(out, st)
		}
	}
	return out
}

func filterProgress(progress []model.Progress, subjectID int64) []model.Progress {
	var out []model.Progress
	for _, p := range progress {
		if p.SubjectID == subjectID {
			out = append(out, p)
		}
	}
	return out
}
