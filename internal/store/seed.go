package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/studylog/internal/model"
)

const seededKey = "store.seeded"

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Subjects []seedSubject `yaml:"subjects"`
}

type seedSubject struct {
	Name      string   `yaml:"name"`
	Color     string   `yaml:"color"`
	Subtopics []string `yaml:"subtopics"`
}

// ParseSeed decodes a seed document into subjects and subtopics with
// sequential ids starting at 1.
func ParseSeed(data []byte) ([]model.Subject, []model.Subtopic, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	var subjects []model.Subject
	var subtopics []model.Subtopic
	var nextTopic int64 = 1
	for i, subj := range doc.Subjects {
		if subj.Name == "" {
			return nil, nil, fmt.Errorf("seed subject %d has no name", i+1)
		}
		id := int64(i + 1)
		subjects = append(subjects, model.Subject{ID: id, Name: subj.Name, Color: subj.Color})
		for _, title := range subj.Subtopics {
			subtopics = append(subtopics, model.Subtopic{ID: nextTopic, SubjectID: id, Title: title})
			nextTopic++
		}
	}
	return subjects, subtopics, nil
}

// seedIfEmpty inserts the starter subjects once per database.
func (s *Store) seedIfEmpty(ctx context.Context) error {
	if _, seeded, err := s.GetSetting(ctx, seededKey); err != nil || seeded {
		return err
	}
	subjects, subtopics, err := ParseSeed(seedYAML)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM subjects`).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			if err := insertSubjects(ctx, tx, subjects); err != nil {
				return err
			}
			if err := insertSubtopics(ctx, tx, subtopics); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO settings(key, value) VALUES(?, '1')`, seededKey)
		return err
	})
}
