package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verte-zerg/studylog/internal/model"
)

var datasetCollections = []string{
	CollectionSubjects,
	CollectionSubtopics,
	CollectionProgress,
	CollectionSessions,
}

// LoadDataset reads the four backup collections.
func (s *Store) LoadDataset(ctx context.Context) (model.Dataset, error) {
	var ds model.Dataset
	var err error
	if ds.Subjects, err = s.ListSubjects(ctx); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read subjects: %w", err)
	}
	if ds.Subtopics, err = s.ListSubtopics(ctx); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read subtopics: %w", err)
	}
	if ds.Progress, err = s.ListProgress(ctx); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read progress: %w", err)
	}
	if ds.Sessions, err = s.ListSessions(ctx, model.StatsConfig{}); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read sessions: %w", err)
	}
	return ds, nil
}

// ReplaceAll clears subjects, subtopics, progress and sessions and refills
// them from ds in a single transaction. Either every collection is replaced
// or none is.
func (s *Store) ReplaceAll(ctx context.Context, ds model.Dataset) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, collection := range datasetCollections {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+collection); err != nil {
				return fmt.Errorf("clear %s: %w", collection, err)
			}
		}
		if err := insertSubjects(ctx, tx, ds.Subjects); err != nil {
			return err
		}
		if err := insertSubtopics(ctx, tx, ds.Subtopics); err != nil {
			return err
		}
		if err := insertProgress(ctx, tx, ds.Progress); err != nil {
			return err
		}
		return insertSessions(ctx, tx, ds.Sessions)
	})
	if err != nil {
		return err
	}
	s.publish(datasetCollections...)
	return nil
}
