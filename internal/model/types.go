// Package model defines shared data structures.
package model

import "time"

// DateLayout is the calendar-day key used for tasks and day aggregates.
const DateLayout = "2006-01-02"

// Config defines timer settings.
type Config struct {
	MinSaveSeconds int64
	TickInterval   time.Duration
	SubjectID      int64
	SubtopicID     int64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	SubjectID int64
	Since     *time.Time
	Days      int
	Month     time.Time
}

// Subject is a top-level area of study.
type Subject struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Subtopic belongs to a subject and carries its own revision checklist.
type Subtopic struct {
	ID        int64  `json:"id"`
	SubjectID int64  `json:"subjectId"`
	Title     string `json:"title"`
}

// Progress is the five-stage revision checklist for one subtopic.
type Progress struct {
	ID             int64 `json:"id"`
	SubtopicID     int64 `json:"subtopicId"`
	SubjectID      int64 `json:"subjectId"`
	TopicCompleted bool  `json:"topicCompleted"`
	Revision1      bool  `json:"revision1"`
	Revision2      bool  `json:"revision2"`
	PYQDone        bool  `json:"pyqDone"`
	FinalRevision  bool  `json:"finalRevision"`
}

// StudySession captures one completed, timed study interval. Never mutated
// after insert.
type StudySession struct {
	ID              int64     `json:"id"`
	SubjectID       int64     `json:"subjectId"`
	SubtopicID      int64     `json:"subtopicId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationSeconds int64     `json:"durationSeconds"`
	Notes           string    `json:"notes"`
}

// Duration returns the recorded duration.
func (s StudySession) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Task is a to-do item pinned to a calendar day.
type Task struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	Completed bool   `json:"isCompleted"`
}

// Dataset is the set of collections covered by backup and bulk replace.
type Dataset struct {
	Subjects  []Subject
	Subtopics []Subtopic
	Progress  []Progress
	Sessions  []StudySession
}
