package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/studylog/internal/model"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "studylog.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestOpenSeedsStarterSubjectsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studylog.db")
	st, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()

	subjects, err := st.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	assert.Equal(t, "Mathematics", subjects[0].Name)
	assert.Equal(t, "#ef4444", subjects[0].Color)

	subtopics, err := st.ListSubtopicsBySubject(ctx, subjects[0].ID)
	require.NoError(t, err)
	assert.Len(t, subtopics, 8)

	require.NoError(t, st.Wipe(ctx))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	subjects, err = st.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects, "a wiped database must not be reseeded")
}

func TestParseSeedAssignsSequentialIDs(t *testing.T) {
	subjects, subtopics, err := ParseSeed([]byte(`
subjects:
  - name: A
    subtopics: [x, y]
  - name: B
    subtopics: [z]
`))
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.Len(t, subtopics, 3)
	assert.Equal(t, int64(2), subtopics[2].SubjectID)
	assert.Equal(t, int64(3), subtopics[2].ID)

	_, _, err = ParseSeed([]byte("subjects:\n  - color: red\n"))
	assert.Error(t, err)
}

func TestSessionsRoundTripInStartOrder(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	ctx := context.Background()
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		start := base.Add(offset)
		_, err := st.InsertSession(ctx, model.StudySession{
			SubjectID:       1,
			SubtopicID:      2,
			StartTime:       start,
			EndTime:         start.Add(25 * time.Minute),
			DurationSeconds: 1500,
		})
		require.NoError(t, err)
	}

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for i := 1; i < len(sessions); i++ {
		assert.True(t, sessions[i-1].StartTime.Before(sessions[i].StartTime))
	}
	assert.True(t, sessions[0].StartTime.Equal(base))
	assert.Equal(t, int64(1500), sessions[0].DurationSeconds)

	since := base.Add(30 * time.Minute)
	sessions, err = st.ListSessions(ctx, model.StatsConfig{Since: &since})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	_, err = st.InsertSession(ctx, model.StudySession{DurationSeconds: -1})
	assert.Error(t, err)
}

func TestToggleProgressCreatesThenFlips(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	ctx := context.Background()
	subjectID, err := st.AddSubject(ctx, "Physics", "#000000")
	require.NoError(t, err)
	topicID, err := st.AddSubtopic(ctx, subjectID, "Optics")
	require.NoError(t, err)

	p, err := st.ToggleProgress(ctx, topicID, FieldRevision1)
	require.NoError(t, err)
	assert.True(t, p.Revision1)
	assert.False(t, p.TopicCompleted)
	assert.Equal(t, subjectID, p.SubjectID)

	p, err = st.ToggleProgress(ctx, topicID, FieldRevision1)
	require.NoError(t, err)
	assert.False(t, p.Revision1)

	all, err := st.ListProgress(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = st.ToggleProgress(ctx, 999, FieldRevision1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.ToggleProgress(ctx, topicID, ProgressField("notes; DROP TABLE progress"))
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestParseProgressFieldAliases(t *testing.T) {
	f, err := ParseProgressField("PYQ")
	require.NoError(t, err)
	assert.Equal(t, FieldPYQDone, f)

	f, err = ParseProgressField("final_revision")
	require.NoError(t, err)
	assert.Equal(t, FieldFinalRevision, f)

	_, err = ParseProgressField("rev3")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestAddSubtopicRequiresSubject(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	_, err := st.AddSubtopic(context.Background(), 42, "Orphan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSubtopicRemovesProgress(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	ctx := context.Background()
	subjectID, err := st.AddSubject(ctx, "Physics", "")
	require.NoError(t, err)
	topicID, err := st.AddSubtopic(ctx, subjectID, "Optics")
	require.NoError(t, err)
	_, err = st.ToggleProgress(ctx, topicID, FieldTopicCompleted)
	require.NoError(t, err)

	require.NoError(t, st.DeleteSubtopic(ctx, topicID))
	progress, err := st.ListProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, progress)
	assert.ErrorIs(t, st.DeleteSubtopic(ctx, topicID), ErrNotFound)
}

func TestTasksLifecycle(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	ctx := context.Background()

	_, err := st.AddTask(ctx, "2024-13-01", "bad date")
	assert.Error(t, err)
	_, err = st.AddTask(ctx, "2024-03-10", "   ")
	assert.Error(t, err)

	first, err := st.AddTask(ctx, "2024-03-10", "Solve 20 algebra PYQs")
	require.NoError(t, err)
	_, err = st.AddTask(ctx, "2024-03-11", "Read editorial")
	require.NoError(t, err)

	day, err := st.ListTasksByDate(ctx, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.False(t, day[0].Completed)

	task, err := st.ToggleTask(ctx, first)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	require.NoError(t, st.SetTaskCompleted(ctx, first, false))
	task, err = st.GetTask(ctx, first)
	require.NoError(t, err)
	assert.False(t, task.Completed)

	require.NoError(t, st.DeleteTask(ctx, first))
	assert.ErrorIs(t, st.DeleteTask(ctx, first), ErrNotFound)
	assert.ErrorIs(t, st.SetTaskCompleted(ctx, first, true), ErrNotFound)

	all, err := st.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReplaceAllIsAtomic(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	ctx := context.Background()
	subjectID, err := st.AddSubject(ctx, "Keep", "")
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	broken := model.Dataset{
		Subjects: []model.Subject{{ID: 7, Name: "New"}},
		Sessions: []model.StudySession{
			{ID: 1, SubjectID: 7, StartTime: start, EndTime: start, DurationSeconds: 60},
			{ID: 1, SubjectID: 7, StartTime: start, EndTime: start, DurationSeconds: 60},
		},
	}
	require.Error(t, st.ReplaceAll(ctx, broken))

	subjects, err := st.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, subjectID, subjects[0].ID)

	good := broken
	good.Sessions = good.Sessions[:1]
	require.NoError(t, st.ReplaceAll(ctx, good))
	ds, err := st.LoadDataset(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Subjects, 1)
	assert.Equal(t, "New", ds.Subjects[0].Name)
	assert.Len(t, ds.Sessions, 1)
}

func TestClearAndSettings(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	ctx := context.Background()

	assert.ErrorIs(t, st.Clear(ctx, "settings"), ErrUnknownCollection)

	_, ok, err := st.GetSetting(ctx, "motivation.last_shown")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, st.PutSetting(ctx, "motivation.last_shown", "2024-03-10"))
	require.NoError(t, st.PutSetting(ctx, "motivation.last_shown", "2024-03-11"))
	value, ok, err := st.GetSetting(ctx, "motivation.last_shown")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024-03-11", value)

	_, err = st.AddSubject(ctx, "Physics", "")
	require.NoError(t, err)
	require.NoError(t, st.Clear(ctx, CollectionSubjects))
	subjects, err := st.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	st := openTestStore(t, WithoutSeed())
	ctx := context.Background()
	changes, cancel := st.Subscribe()

	_, err := st.AddTask(ctx, "2024-03-10", "Mock test")
	require.NoError(t, err)
	select {
	case change := <-changes:
		assert.Equal(t, CollectionTasks, change.Collection)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	cancel()
	_, open := <-changes
	assert.False(t, open)
}

func TestDataVersionSeesOtherHandleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studylog.db")
	reader, err := Open(path, WithoutSeed())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	writer, err := Open(path, WithoutSeed())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	ctx := context.Background()

	before, err := reader.DataVersion(ctx)
	require.NoError(t, err)
	same, err := reader.DataVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, same)

	_, err = writer.AddTask(ctx, "2024-05-06", "Past paper")
	require.NoError(t, err)

	after, err := reader.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}
