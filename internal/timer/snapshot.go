package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the persisted timer state. AnchorMillis is set only while
// running and AccumulatedSeconds only while paused.
type Snapshot struct {
	RunID              string `json:"run_id,omitempty"`
	Running            bool   `json:"running"`
	AnchorMillis       *int64 `json:"anchor_ms,omitempty"`
	AccumulatedSeconds *int64 `json:"accumulated_seconds,omitempty"`
	SubjectID          int64  `json:"subject_id,omitempty"`
	SubtopicID         int64  `json:"subtopic_id,omitempty"`
}

// SnapshotStore persists the single timer snapshot.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Clear(ctx context.Context) error
}

// FileSnapshotStore keeps the snapshot in a JSON file.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore returns a store backed by path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Load reads the snapshot. A missing file yields ErrNoSnapshot.
func (s *FileSnapshotStore) Load(_ context.Context) (Snapshot, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("read timer snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode timer snapshot: %w", err)
	}
	return snap, nil
}

// Save replaces the snapshot file atomically.
func (s *FileSnapshotStore) Save(_ context.Context, snap Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create timer state dir: %w", err)
	}
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timer snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".timer-*.json")
	if err != nil {
		return fmt.Errorf("create timer snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write timer snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write timer snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace timer snapshot: %w", err)
	}
	return nil
}

// Clear removes the snapshot file. Clearing a missing file is not an error.
func (s *FileSnapshotStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear timer snapshot: %w", err)
	}
	return nil
}
