// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Collection names shared by change notifications, Clear and backups.
const (
	CollectionSubjects  = "subjects"
	CollectionSubtopics = "subtopics"
	CollectionProgress  = "progress"
	CollectionSessions  = "sessions"
	CollectionTasks     = "tasks"
	CollectionSettings  = "settings"
)

// Timestamps are stored as fixed-width UTC text so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	// ErrNotFound is returned when a record addressed by id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCollection is returned for a collection name the store does not manage.
	ErrUnknownCollection = errors.New("unknown collection")
)

var dataCollections = []string{
	CollectionSubjects,
	CollectionSubtopics,
	CollectionProgress,
	CollectionSessions,
	CollectionTasks,
}

// Change reports a committed write to one collection.
type Change struct {
	Collection string
}

// Store wraps SQLite access for study data.
type Store struct {
	db *sql.DB

	mu          sync.Mutex
	subscribers map[int]chan Change
	nextSub     int
}

// Option customizes Open.
type Option func(*options)

type options struct {
	seed bool
}

// WithoutSeed skips inserting the starter subjects on first open.
func WithoutSeed() Option {
	return func(o *options) { o.seed = false }
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{seed: true}
	for _, opt := range opts {
		opt(&o)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers; every statement inside a
	// transaction must go through the *sql.Tx.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, subscribers: map[int]chan Change{}}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	if o.seed {
		if err := store.seedIfEmpty(context.Background()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to seed db: %w", err)
		}
	}
	return store, nil
}

// Close closes the underlying database and ends all subscriptions.
func (s *Store) Close() error {
	s.mu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subjects (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS subtopics (
			id INTEGER PRIMARY KEY,
			subject_id INTEGER NOT NULL,
			title TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS progress (
			id INTEGER PRIMARY KEY,
			subtopic_id INTEGER NOT NULL,
			subject_id INTEGER NOT NULL,
			topic_completed INTEGER NOT NULL DEFAULT 0,
			revision1 INTEGER NOT NULL DEFAULT 0,
			revision2 INTEGER NOT NULL DEFAULT 0,
			pyq_done INTEGER NOT NULL DEFAULT 0,
			final_revision INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			subject_id INTEGER NOT NULL,
			subtopic_id INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY,
			date TEXT NOT NULL,
			title TEXT NOT NULL,
			is_completed INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_subtopics_subject ON subtopics(subject_id);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_subtopic ON progress(subtopic_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe returns a channel that receives a Change after every committed
// write, and a function that ends the subscription. Notifications are
// dropped rather than queued when the receiver falls behind.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Change, 16)
	s.subscribers[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				close(sub)
				delete(s.subscribers, id)
			}
		})
	}
}

func (s *Store) publish(collections ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, collection := range collections {
		for _, ch := range s.subscribers {
			select {
			case ch <- Change{Collection: collection}:
			default:
			}
		}
	}
}

// Clear deletes every record of one collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if !knownCollection(collection) {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+collection); err != nil {
		return err
	}
	s.publish(collection)
	return nil
}

// Wipe deletes all study records in one transaction. Settings survive.
func (s *Store) Wipe(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, collection := range dataCollections {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+collection); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(dataCollections...)
	return nil
}

// GetSetting returns a stored setting and whether it exists.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PutSetting inserts or replaces a setting.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return err
	}
	s.publish(CollectionSettings)
	return nil
}

// DataVersion returns SQLite's data_version for this handle. The value
// changes after another connection, including one in another process,
// commits a write. Writes through this handle are reported by Subscribe.
func (s *Store) DataVersion(ctx context.Context) (int64, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read data version: %w", err)
	}
	return version, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func knownCollection(name string) bool {
	for _, c := range dataCollections {
		if c == name {
			return true
		}
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		// Rows written by other tools may carry full RFC 3339 precision.
		t, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.Local(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
