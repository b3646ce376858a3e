package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/studylog/internal/model"
)

// ProgressField names one checklist column.
type ProgressField string

// Checklist stages in the order they are shown.
const (
	FieldTopicCompleted ProgressField = "topic_completed"
	FieldRevision1      ProgressField = "revision1"
	FieldRevision2      ProgressField = "revision2"
	FieldPYQDone        ProgressField = "pyq_done"
	FieldFinalRevision  ProgressField = "final_revision"
)

// ErrUnknownField is returned for a checklist field name that does not exist.
var ErrUnknownField = errors.New("unknown progress field")

// ProgressFields lists every checklist stage.
var ProgressFields = []ProgressField{
	FieldTopicCompleted,
	FieldRevision1,
	FieldRevision2,
	FieldPYQDone,
	FieldFinalRevision,
}

var progressAliases = map[string]ProgressField{
	"topic": FieldTopicCompleted,
	"rev1":  FieldRevision1,
	"rev2":  FieldRevision2,
	"pyq":   FieldPYQDone,
	"final": FieldFinalRevision,
}

// ParseProgressField accepts a short alias (topic, rev1, rev2, pyq, final)
// or a column name.
func ParseProgressField(name string) (ProgressField, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if f, ok := progressAliases[name]; ok {
		return f, nil
	}
	for _, f := range ProgressFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (use topic, rev1, rev2, pyq or final)", ErrUnknownField, name)
}

// AddSubject inserts a subject and returns its id.
func (s *Store) AddSubject(ctx context.Context, name, color string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("subject name must not be empty")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO subjects(name, color) VALUES(?, ?)`, name, strings.TrimSpace(color))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.publish(CollectionSubjects)
	return id, nil
}

// ListSubjects returns all subjects ordered by id.
func (s *Store) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM subjects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var out []model.Subject
	for rows.Next() {
		var subj model.Subject
		if err := rows.Scan(&subj.ID, &subj.Name, &subj.Color); err != nil {
			return nil, err
		}
		out = append(out, subj)
	}
	return out, rows.Err()
}

// AddSubtopic inserts a subtopic under an existing subject.
func (s *Store) AddSubtopic(ctx context.Context, subjectID int64, title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("subtopic title must not be empty")
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM subjects WHERE id = ?`, subjectID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("subject %d: %w", subjectID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO subtopics(subject_id, title) VALUES(?, ?)`, subjectID, title)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.publish(CollectionSubtopics)
	return id, nil
}

// ListSubtopics returns every subtopic ordered by subject, then id.
func (s *Store) ListSubtopics(ctx context.Context) ([]model.Subtopic, error) {
	return s.querySubtopics(ctx, `SELECT id, subject_id, title FROM subtopics ORDER BY subject_id, id`)
}

// ListSubtopicsBySubject returns the subtopics of one subject.
func (s *Store) ListSubtopicsBySubject(ctx context.Context, subjectID int64) ([]model.Subtopic, error) {
	return s.querySubtopics(ctx, `SELECT id, subject_id, title FROM subtopics WHERE subject_id = ? ORDER BY id`, subjectID)
}

func (s *Store) querySubtopics(ctx context.Context, query string, args ...any) ([]model.Subtopic, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var out []model.Subtopic
	for rows.Next() {
		var st model.Subtopic
		if err := rows.Scan(&st.ID, &st.SubjectID, &st.Title); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteSubtopic removes a subtopic and its checklist. Sessions logged
// against it are kept.
func (s *Store) DeleteSubtopic(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM subtopics WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("subtopic %d: %w", id, ErrNotFound)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM progress WHERE subtopic_id = ?`, id)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(CollectionSubtopics, CollectionProgress)
	return nil
}

const progressColumns = `id, subtopic_id, subject_id, topic_completed, revision1, revision2, pyq_done, final_revision`

// ListProgress returns every checklist record.
func (s *Store) ListProgress(ctx context.Context) ([]model.Progress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+progressColumns+` FROM progress ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var out []model.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ToggleProgress flips one checklist stage of a subtopic. A subtopic without
// a checklist gets a new record with only that stage set.
func (s *Store) ToggleProgress(ctx context.Context, subtopicID int64, field ProgressField) (model.Progress, error) {
	if _, err := ParseProgressField(string(field)); err != nil {
		return model.Progress{}, err
	}
	var result model.Progress
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM progress WHERE subtopic_id = ? ORDER BY id LIMIT 1`, subtopicID)
		existing, err := scanProgress(row)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE progress SET %[1]s = 1 - %[1]s WHERE id = ?`, field), existing.ID); err != nil {
				return err
			}
			row = tx.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM progress WHERE id = ?`, existing.ID)
			result, err = scanProgress(row)
			return err
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		var subjectID int64
		err = tx.QueryRowContext(ctx, `SELECT subject_id FROM subtopics WHERE id = ?`, subtopicID).Scan(&subjectID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("subtopic %d: %w", subtopicID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO progress(subtopic_id, subject_id, %s) VALUES(?, ?, 1)`, field),
			subtopicID, subjectID)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		row = tx.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM progress WHERE id = ?`, id)
		result, err = scanProgress(row)
		return err
	})
	if err != nil {
		return model.Progress{}, err
	}
	s.publish(CollectionProgress)
	return result, nil
}

func scanProgress(row rowScanner) (model.Progress, error) {
	var p model.Progress
	var topic, rev1, rev2, pyq, final int
	if err := row.Scan(&p.ID, &p.SubtopicID, &p.SubjectID, &topic, &rev1, &rev2, &pyq, &final); err != nil {
		return model.Progress{}, err
	}
	p.TopicCompleted = topic != 0
	p.Revision1 = rev1 != 0
	p.Revision2 = rev2 != 0
	p.PYQDone = pyq != 0
	p.FinalRevision = final != 0
	return p, nil
}

func insertSubjects(ctx context.Context, tx *sql.Tx, subjects []model.Subject) error {
	for _, subj := range subjects {
		if _, err := tx.ExecContext(ctx, `INSERT INTO subjects(id, name, color) VALUES(?, ?, ?)`,
			nullableID(subj.ID), subj.Name, subj.Color); err != nil {
			return fmt.Errorf("insert subject %d: %w", subj.ID, err)
		}
	}
	return nil
}

func insertSubtopics(ctx context.Context, tx *sql.Tx, subtopics []model.Subtopic) error {
	for _, st := range subtopics {
		if _, err := tx.ExecContext(ctx, `INSERT INTO subtopics(id, subject_id, title) VALUES(?, ?, ?)`,
			nullableID(st.ID), st.SubjectID, st.Title); err != nil {
			return fmt.Errorf("insert subtopic %d: %w", st.ID, err)
		}
	}
	return nil
}

func insertProgress(ctx context.Context, tx *sql.Tx, progress []model.Progress) error {
	for _, p := range progress {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO progress(`+progressColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableID(p.ID), p.SubtopicID, p.SubjectID,
			boolInt(p.TopicCompleted), boolInt(p.Revision1), boolInt(p.Revision2),
			boolInt(p.PYQDone), boolInt(p.FinalRevision)); err != nil {
			return fmt.Errorf("insert progress %d: %w", p.ID, err)
		}
	}
	return nil
}
