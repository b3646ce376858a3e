package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/verte-zerg/studylog/internal/model"
)

const sessionColumns = `id, subject_id, subtopic_id, start_time, end_time, duration_seconds, notes`

// InsertSession stores a completed study session and returns its id.
func (s *Store) InsertSession(ctx context.Context, session model.StudySession) (int64, error) {
	if session.DurationSeconds < 0 {
		return 0, fmt.Errorf("session duration must be >= 0, got %d", session.DurationSeconds)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (subject_id, subtopic_id, start_time, end_time, duration_seconds, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.SubjectID,
		session.SubtopicID,
		formatTime(session.StartTime),
		formatTime(session.EndTime),
		session.DurationSeconds,
		session.Notes,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.publish(CollectionSessions)
	return id, nil
}

// ListSessions returns sessions matching the stats filters, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.StudySession, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.SubjectID > 0 {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, cfg.SubjectID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE %s ORDER BY start_time ASC, id ASC`,
		sessionColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSession(row rowScanner) (model.StudySession, error) {
	var session model.StudySession
	var start, end string
	if err := row.Scan(&session.ID, &session.SubjectID, &session.SubtopicID, &start, &end, &session.DurationSeconds, &session.Notes); err != nil {
		return model.StudySession{}, err
	}
	var err error
	if session.StartTime, err = parseTime(start); err != nil {
		return model.StudySession{}, fmt.Errorf("session %d start_time: %w", session.ID, err)
	}
	if session.EndTime, err = parseTime(end); err != nil {
		return model.StudySession{}, fmt.Errorf("session %d end_time: %w", session.ID, err)
	}
	return session, nil
}

func insertSessions(ctx context.Context, tx *sql.Tx, sessions []model.StudySession) error {
	if len(sessions) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sessions (id, subject_id, subtopic_id, start_time, end_time, duration_seconds, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, session := range sessions {
		if session.DurationSeconds < 0 {
			return fmt.Errorf("session %d has negative duration", session.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			nullableID(session.ID),
			session.SubjectID,
			session.SubtopicID,
			formatTime(session.StartTime),
			formatTime(session.EndTime),
			session.DurationSeconds,
			session.Notes,
		); err != nil {
			return fmt.Errorf("insert session %d: %w", session.ID, err)
		}
	}
	return nil
}
