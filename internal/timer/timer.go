// Package timer implements the wall-clock anchored study stopwatch.
//
// Elapsed time is never incremented per tick. While running it is always
// floor((now - anchor) / 1s), so delayed, skipped or coalesced ticks and
// process restarts cannot understate it.
package timer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/verte-zerg/studylog/internal/model"
)

var (
	// ErrSessionTooShort is returned by Save when elapsed time is below the minimum.
	ErrSessionTooShort = errors.New("session too short")
	// ErrNoSubtopicSelected is returned by Save when no subtopic is chosen.
	ErrNoSubtopicSelected = errors.New("no subtopic selected")
	// ErrNotRunning is returned by Pause when the timer is stopped.
	ErrNotRunning = errors.New("timer is not running")
	// ErrRunning is returned when the selection changes during a run.
	ErrRunning = errors.New("timer is running")
	// ErrNoSnapshot is returned by a SnapshotStore with nothing persisted.
	ErrNoSnapshot = errors.New("no timer snapshot")
)

// SessionWriter receives finalized sessions.
type SessionWriter interface {
	InsertSession(ctx context.Context, session model.StudySession) (int64, error)
}

// Timer is a single running-or-paused stopwatch.
type Timer struct {
	clock     Clock
	snapshots SnapshotStore
	sessions  SessionWriter
	logger    *log.Logger

	runID       string
	running     bool
	anchorMs    int64
	accumulated int64
	subjectID   int64
	subtopicID  int64
}

// New creates a stopped timer with zero elapsed time. Call Restore to pick
// up a persisted snapshot.
func New(clock Clock, snapshots SnapshotStore, sessions SessionWriter, logger *log.Logger) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Timer{clock: clock, snapshots: snapshots, sessions: sessions, logger: logger}
}

// Running reports whether the timer is accruing time.
func (t *Timer) Running() bool {
	return t.running
}

// Selection returns the pending subject and subtopic.
func (t *Timer) Selection() (subjectID, subtopicID int64) {
	return t.subjectID, t.subtopicID
}

// RunID identifies the current run; empty when nothing has been started
// since the last reset.
func (t *Timer) RunID() string {
	return t.runID
}

// Snapshot returns the state as it is persisted.
func (t *Timer) Snapshot() Snapshot {
	snap := Snapshot{
		RunID:      t.runID,
		Running:    t.running,
		SubjectID:  t.subjectID,
		SubtopicID: t.subtopicID,
	}
	if t.running {
		anchor := t.anchorMs
		snap.AnchorMillis = &anchor
	} else if t.accumulated > 0 {
		acc := t.accumulated
		snap.AccumulatedSeconds = &acc
	}
	return snap
}

// Start begins or resumes a run. It is a no-op returning false when the
// timer is already running. Non-zero ids replace the current selection.
func (t *Timer) Start(ctx context.Context, subjectID, subtopicID int64) (bool, error) {
	if t.running {
		return false, nil
	}
	if subjectID != 0 {
		t.subjectID = subjectID
	}
	if subtopicID != 0 {
		t.subtopicID = subtopicID
	}
	if t.runID == "" {
		t.runID = uuid.NewString()
	}
	t.anchorMs = t.clock.Now().UnixMilli() - t.accumulated*1000
	t.accumulated = 0
	t.running = true
	t.logger.Debug("timer started", "run", t.runID, "subject", t.subjectID, "subtopic", t.subtopicID)
	return true, t.persist(ctx)
}

// Tick recomputes elapsed seconds for display. It carries no state.
func (t *Timer) Tick() int64 {
	return t.Elapsed()
}

// Elapsed returns whole seconds accrued in the current run.
func (t *Timer) Elapsed() int64 {
	return t.elapsedAt(t.clock.Now())
}

func (t *Timer) elapsedAt(now time.Time) int64 {
	if !t.running {
		return t.accumulated
	}
	diff := now.UnixMilli() - t.anchorMs
	if diff < 0 {
		return 0
	}
	return diff / 1000
}

// Pause freezes elapsed time and discards the anchor.
func (t *Timer) Pause(ctx context.Context) error {
	if !t.running {
		return ErrNotRunning
	}
	t.accumulated = t.elapsedAt(t.clock.Now())
	t.running = false
	t.anchorMs = 0
	t.logger.Debug("timer paused", "run", t.runID, "elapsed", t.accumulated)
	return t.persist(ctx)
}

// Reset returns to zero elapsed, stopped. The selection is kept.
func (t *Timer) Reset(ctx context.Context) error {
	t.logger.Debug("timer reset", "run", t.runID)
	t.running = false
	t.anchorMs = 0
	t.accumulated = 0
	t.runID = ""
	return t.persist(ctx)
}

// Select changes the pending classification. Not allowed while running.
func (t *Timer) Select(ctx context.Context, subjectID, subtopicID int64) error {
	if t.running {
		return ErrRunning
	}
	t.subjectID = subjectID
	t.subtopicID = subtopicID
	return t.persist(ctx)
}

// Restore loads the persisted snapshot. A running snapshot resumes from its
// stored anchor, so time that passed while the process was gone counts.
func (t *Timer) Restore(ctx context.Context) error {
	snap, err := t.snapshots.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		t.running = false
		t.anchorMs = 0
		t.accumulated = 0
		t.runID = ""
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore timer: %w", err)
	}
	t.runID = snap.RunID
	t.subjectID = snap.SubjectID
	t.subtopicID = snap.SubtopicID
	t.running = false
	t.anchorMs = 0
	t.accumulated = 0
	switch {
	case snap.Running && snap.AnchorMillis != nil:
		t.running = true
		t.anchorMs = *snap.AnchorMillis
	case snap.AccumulatedSeconds != nil && *snap.AccumulatedSeconds > 0:
		t.accumulated = *snap.AccumulatedSeconds
	}
	t.logger.Debug("timer restored", "run", t.runID, "running", t.running, "elapsed", t.Elapsed())
	return nil
}

// Save finalizes the current run into one study session and resets. On any
// error the timer and the session store are left untouched.
func (t *Timer) Save(ctx context.Context, minimumSeconds int64) (model.StudySession, error) {
	now := t.clock.Now()
	elapsed := t.elapsedAt(now)
	if elapsed < minimumSeconds {
		return model.StudySession{}, fmt.Errorf("%w: %ds recorded, %ds required", ErrSessionTooShort, elapsed, minimumSeconds)
	}
	if t.subtopicID == 0 {
		return model.StudySession{}, ErrNoSubtopicSelected
	}
	session := model.StudySession{
		SubjectID:       t.subjectID,
		SubtopicID:      t.subtopicID,
		StartTime:       now.Add(-time.Duration(elapsed) * time.Second),
		EndTime:         now,
		DurationSeconds: elapsed,
	}
	id, err := t.sessions.InsertSession(ctx, session)
	if err != nil {
		return model.StudySession{}, fmt.Errorf("failed to save session: %w", err)
	}
	session.ID = id
	t.logger.Debug("session saved", "run", t.runID, "id", id, "seconds", elapsed)
	if err := t.Reset(ctx); err != nil {
		return session, err
	}
	return session, nil
}

func (t *Timer) persist(ctx context.Context) error {
	if t.snapshots == nil {
		return nil
	}
	if err := t.snapshots.Save(ctx, t.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist timer: %w", err)
	}
	return nil
}
