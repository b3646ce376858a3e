package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/studylog/internal/model"
)

// AddTask pins a new open task to a day (YYYY-MM-DD).
func (s *Store) AddTask(ctx context.Context, date, title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("task title must not be empty")
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return 0, fmt.Errorf("invalid task date %q (expected YYYY-MM-DD)", date)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(date, title, is_completed) VALUES(?, ?, 0)`, date, title)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.publish(CollectionTasks)
	return id, nil
}

// ListTasks returns all tasks ordered by day, then id.
func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.queryTasks(ctx, `SELECT id, date, title, is_completed FROM tasks ORDER BY date, id`)
}

// ListTasksByDate returns the tasks of one day.
func (s *Store) ListTasksByDate(ctx context.Context, date string) ([]model.Task, error) {
	return s.queryTasks(ctx, `SELECT id, date, title, is_completed FROM tasks WHERE date = ? ORDER BY id`, date)
}

// GetTask loads one task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, date, title, is_completed FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return task, err
}

// SetTaskCompleted updates only the completion flag of a task.
func (s *Store) SetTaskCompleted(ctx context.Context, id int64, completed bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET is_completed = ? WHERE id = ?`, boolInt(completed), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	s.publish(CollectionTasks)
	return nil
}

// ToggleTask flips the completion flag and returns the updated task.
func (s *Store) ToggleTask(ctx context.Context, id int64) (model.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	task.Completed = !task.Completed
	if err := s.SetTaskCompleted(ctx, id, task.Completed); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	s.publish(CollectionTasks)
	return nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var out []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func scanTask(row rowScanner) (model.Task, error) {
	var task model.Task
	var completed int
	if err := row.Scan(&task.ID, &task.Date, &task.Title, &completed); err != nil {
		return model.Task{}, err
	}
	task.Completed = completed != 0
	return task, nil
}
