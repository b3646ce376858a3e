// Package backup writes and restores the single-document JSON backup of
// subjects, subtopics, progress and sessions.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/studylog/internal/model"
)

var (
	// ErrImportParse is returned when the document is not valid JSON or
	// lacks a collection. Nothing is written.
	ErrImportParse = errors.New("backup is not a valid studylog export")
	// ErrImportWrite is returned when the replace transaction fails. The
	// store keeps its previous contents.
	ErrImportWrite = errors.New("failed to write backup into store")
)

// Document is the exported JSON shape.
type Document struct {
	Timestamp time.Time            `json:"timestamp"`
	Subjects  []model.Subject      `json:"subjects"`
	Subtopics []model.Subtopic     `json:"subtopics"`
	Progress  []model.Progress     `json:"progress"`
	Sessions  []model.StudySession `json:"sessions"`
}

// Dataset returns the collections carried by the document.
func (d Document) Dataset() model.Dataset {
	return model.Dataset{
		Subjects:  d.Subjects,
		Subtopics: d.Subtopics,
		Progress:  d.Progress,
		Sessions:  d.Sessions,
	}
}

// Source provides the collections to export.
type Source interface {
	LoadDataset(ctx context.Context) (model.Dataset, error)
}

// Destination replaces every backed-up collection in one transaction.
type Destination interface {
	ReplaceAll(ctx context.Context, ds model.Dataset) error
}

// wireDocument distinguishes a missing collection from an empty one.
type wireDocument struct {
	Timestamp *time.Time            `json:"timestamp"`
	Subjects  *[]model.Subject      `json:"subjects"`
	Subtopics *[]model.Subtopic     `json:"subtopics"`
	Progress  *[]model.Progress     `json:"progress"`
	Sessions  *[]model.StudySession `json:"sessions"`
}

// Export writes the current collections as one JSON document stamped with now.
func Export(ctx context.Context, src Source, w io.Writer, now time.Time) error {
	ds, err := src.LoadDataset(ctx)
	if err != nil {
		return fmt.Errorf("failed to read collections: %w", err)
	}
	doc := Document{
		Timestamp: now.UTC(),
		Subjects:  nonNil(ds.Subjects),
		Subtopics: nonNil(ds.Subtopics),
		Progress:  nonNil(ds.Progress),
		Sessions:  nonNil(ds.Sessions),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Decode parses and validates a backup document without touching any store.
func Decode(r io.Reader) (Document, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrImportParse, err)
	}
	var wire wireDocument
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrImportParse, err)
	}
	missing := func(name string) error {
		return fmt.Errorf("%w: missing %q collection", ErrImportParse, name)
	}
	switch {
	case wire.Subjects == nil:
		return Document{}, missing("subjects")
	case wire.Subtopics == nil:
		return Document{}, missing("subtopics")
	case wire.Progress == nil:
		return Document{}, missing("progress")
	case wire.Sessions == nil:
		return Document{}, missing("sessions")
	}
	doc := Document{
		Subjects:  *wire.Subjects,
		Subtopics: *wire.Subtopics,
		Progress:  *wire.Progress,
		Sessions:  *wire.Sessions,
	}
	if wire.Timestamp != nil {
		doc.Timestamp = *wire.Timestamp
	}
	for _, s := range doc.Sessions {
		if s.DurationSeconds < 0 {
			return Document{}, fmt.Errorf("%w: session %d has negative duration", ErrImportParse, s.ID)
		}
	}
	return doc, nil
}

// Import replaces the four backed-up collections with the document read
// from r. Either all of them are replaced or none is.
func Import(ctx context.Context, dst Destination, r io.Reader) (Document, error) {
	doc, err := Decode(r)
	if err != nil {
		return Document{}, err
	}
	if err := dst.ReplaceAll(ctx, doc.Dataset()); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrImportWrite, err)
	}
	return doc, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
