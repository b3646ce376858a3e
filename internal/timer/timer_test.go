package timer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/studylog/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSessions struct {
	saved []model.StudySession
	err   error
}

func (f *fakeSessions) InsertSession(_ context.Context, session model.StudySession) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, session)
	return int64(len(f.saved)), nil
}

func newTestTimer(t *testing.T) (*Timer, *fakeClock, *fakeSessions, *FileSnapshotStore) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	sessions := &fakeSessions{}
	snaps := NewFileSnapshotStore(filepath.Join(t.TempDir(), "timer.json"))
	return New(clk, snaps, sessions, nil), clk, sessions, snaps
}

func TestTickFollowsAnchorRegardlessOfTickHistory(t *testing.T) {
	tm, clk, _, _ := newTestTimer(t)
	ctx := context.Background()
	started, err := tm.Start(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, started)
	anchor := clk.Now()

	gaps := []time.Duration{
		1 * time.Second,
		999 * time.Millisecond,
		7 * time.Second,
		0,
		1500 * time.Millisecond,
		42 * time.Second,
	}
	for _, gap := range gaps {
		clk.Advance(gap)
		want := int64(clk.Now().Sub(anchor) / time.Second)
		assert.Equal(t, want, tm.Tick())
	}

	// The same instant yields the same value without any intermediate ticks.
	fresh, fclk, _, _ := newTestTimer(t)
	_, err = fresh.Start(ctx, 1, 2)
	require.NoError(t, err)
	fclk.Advance(clk.Now().Sub(anchor))
	assert.Equal(t, tm.Tick(), fresh.Tick())
}

func TestStartIsNoOpWhileRunning(t *testing.T) {
	tm, clk, _, _ := newTestTimer(t)
	ctx := context.Background()
	_, err := tm.Start(ctx, 1, 2)
	require.NoError(t, err)
	clk.Advance(10 * time.Second)

	started, err := tm.Start(ctx, 3, 4)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, int64(10), tm.Elapsed())
	subject, subtopic := tm.Selection()
	assert.Equal(t, int64(1), subject)
	assert.Equal(t, int64(2), subtopic)
}

func TestPauseResumeAccumulates(t *testing.T) {
	cases := []struct{ s1, s2 int64 }{{0, 0}, {0, 5}, {5, 0}, {17, 3600}, {59, 1}}
	for _, tc := range cases {
		tm, clk, _, _ := newTestTimer(t)
		ctx := context.Background()
		_, err := tm.Start(ctx, 1, 2)
		require.NoError(t, err)
		clk.Advance(time.Duration(tc.s1) * time.Second)
		require.NoError(t, tm.Pause(ctx))
		clk.Advance(3 * time.Hour)
		assert.Equal(t, tc.s1, tm.Elapsed(), "paused time must not accrue")

		_, err = tm.Start(ctx, 0, 0)
		require.NoError(t, err)
		clk.Advance(time.Duration(tc.s2) * time.Second)
		assert.Equal(t, tc.s1+tc.s2, tm.Elapsed())
	}
}

func TestPauseWhenStopped(t *testing.T) {
	tm, _, _, _ := newTestTimer(t)
	assert.ErrorIs(t, tm.Pause(context.Background()), ErrNotRunning)
}

func TestRestoreCountsTimeAcrossReload(t *testing.T) {
	tm, clk, sessions, snaps := newTestTimer(t)
	ctx := context.Background()
	_, err := tm.Start(ctx, 1, 2)
	require.NoError(t, err)
	anchor := clk.Now()

	const gap = 90 * time.Second
	clk.now = anchor.Add(gap + time.Second)
	reloaded := New(clk, snaps, sessions, nil)
	require.NoError(t, reloaded.Restore(ctx))
	assert.True(t, reloaded.Running())
	assert.Equal(t, int64(91), reloaded.Tick())
	assert.Equal(t, tm.RunID(), reloaded.RunID())
}

func TestRestorePausedSnapshot(t *testing.T) {
	tm, clk, sessions, snaps := newTestTimer(t)
	ctx := context.Background()
	_, err := tm.Start(ctx, 1, 2)
	require.NoError(t, err)
	clk.Advance(125 * time.Second)
	require.NoError(t, tm.Pause(ctx))

	snap, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.AnchorMillis)
	require.NotNil(t, snap.AccumulatedSeconds)
	assert.Equal(t, int64(125), *snap.AccumulatedSeconds)

	clk.Advance(time.Hour)
	reloaded := New(clk, snaps, sessions, nil)
	require.NoError(t, reloaded.Restore(ctx))
	assert.False(t, reloaded.Running())
	assert.Equal(t, int64(125), reloaded.Tick())
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	tm, _, _, _ := newTestTimer(t)
	require.NoError(t, tm.Restore(context.Background()))
	assert.False(t, tm.Running())
	assert.Zero(t, tm.Elapsed())
}

func TestSaveGating(t *testing.T) {
	tm, clk, sessions, _ := newTestTimer(t)
	ctx := context.Background()
	_, err := tm.Start(ctx, 1, 2)
	require.NoError(t, err)
	clk.Advance(3599 * time.Second)

	_, err = tm.Save(ctx, 3600)
	require.ErrorIs(t, err, ErrSessionTooShort)
	assert.Empty(t, sessions.saved)
	assert.True(t, tm.Running())
	assert.Equal(t, int64(3599), tm.Elapsed())

	clk.Advance(time.Second)
	session, err := tm.Save(ctx, 3600)
	require.NoError(t, err)
	require.Len(t, sessions.saved, 1)
	assert.Equal(t, int64(3600), session.DurationSeconds)
	assert.Equal(t, int64(1), session.ID)
	assert.True(t, session.EndTime.Equal(clk.Now()))
	assert.Equal(t, time.Hour, session.EndTime.Sub(session.StartTime))
	assert.Empty(t, session.Notes)

	assert.False(t, tm.Running())
	assert.Zero(t, tm.Elapsed())
	_, subtopic := tm.Selection()
	assert.Equal(t, int64(2), subtopic, "selection survives save")
}

func TestSaveChecksDurationBeforeSubtopic(t *testing.T) {
	tm, clk, sessions, _ := newTestTimer(t)
	ctx := context.Background()
	_, err := tm.Start(ctx, 1, 0)
	require.NoError(t, err)
	clk.Advance(30 * time.Second)

	_, err = tm.Save(ctx, 60)
	assert.ErrorIs(t, err, ErrSessionTooShort)

	clk.Advance(time.Minute)
	_, err = tm.Save(ctx, 60)
	assert.ErrorIs(t, err, ErrNoSubtopicSelected)
	assert.Empty(t, sessions.saved)
	assert.Equal(t, int64(90), tm.Elapsed())
}

func TestSaveWriteFailureKeepsState(t *testing.T) {
	tm, clk, sessions, _ := newTestTimer(t)
	ctx := context.Background()
	sessions.err = errors.New("disk full")
	_, err := tm.Start(ctx, 1, 2)
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	_, err = tm.Save(ctx, 60)
	require.Error(t, err)
	assert.True(t, tm.Running())
	assert.Equal(t, int64(120), tm.Elapsed())
}

func TestSelectWhileRunning(t *testing.T) {
	tm, _, _, snaps := newTestTimer(t)
	ctx := context.Background()
	require.NoError(t, tm.Select(ctx, 3, 9))
	snap, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.SubtopicID)

	_, err = tm.Start(ctx, 0, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, tm.Select(ctx, 1, 1), ErrRunning)
}

func TestResetClearsPersistedTime(t *testing.T) {
	tm, clk, _, snaps := newTestTimer(t)
	ctx := context.Background()
	_, err := tm.Start(ctx, 1, 2)
	require.NoError(t, err)
	clk.Advance(time.Minute)
	require.NoError(t, tm.Reset(ctx))
	require.NoError(t, tm.Reset(ctx))

	snap, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Running)
	assert.Nil(t, snap.AnchorMillis)
	assert.Nil(t, snap.AccumulatedSeconds)
	assert.Equal(t, int64(2), snap.SubtopicID)
	assert.Empty(t, snap.RunID)
}

func TestElapsedClampsClockSkew(t *testing.T) {
	tm, clk, _, _ := newTestTimer(t)
	_, err := tm.Start(context.Background(), 1, 2)
	require.NoError(t, err)
	clk.Advance(-time.Minute)
	assert.Zero(t, tm.Elapsed())
}
