package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/studylog/internal/model"
)

// RenderSummary prints the headline numbers.
func RenderSummary(w io.Writer, s Summary) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.Sessions),
		fmt.Sprintf("Total study time: %s", FormatHoursMinutes(s.Total)),
		fmt.Sprintf("Today: %s", FormatHoursMinutes(s.Today)),
		fmt.Sprintf("Current streak: %s", pluralDays(s.CurrentStreak)),
		fmt.Sprintf("Best streak: %s", pluralDays(s.BestStreak)),
		fmt.Sprintf("Topics covered: %d/%d (%.0f%%)", s.TopicsCompleted, s.TopicsTotal, s.Completion*100),
	}
	if s.Overdue > 0 {
		lines = append(lines, fmt.Sprintf("Overdue tasks: %d", s.Overdue))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSubjectTable prints time per subject with its share of the total.
func RenderSubjectTable(w io.Writer, totals []SubjectTotal) error {
	if len(totals) == 0 {
		_, err := fmt.Fprintln(w, "No subjects found.")
		return err
	}
	var all int64
	for _, t := range totals {
		all += t.Seconds
	}
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		share := 0.0
		if all > 0 {
			share = float64(t.Seconds) / float64(all) * 100
		}
		rows = append(rows, []string{
			t.Name,
			FormatHoursMinutes(time.Duration(t.Seconds) * time.Second),
			fmt.Sprintf("%.0f%%", share),
		})
	}
	if _, err := fmt.Fprintln(w, "By Subject"); err != nil {
		return err
	}
	for _, line := range formatTable([]string{"Subject", "Time", "Share"}, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRecent prints the given sessions with subtopic titles and relative
// start times.
func RenderRecent(w io.Writer, sessions []model.StudySession, titles map[int64]string, now time.Time) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			SubtopicLabel(titles, s.SubtopicID),
			FormatHoursMinutes(s.Duration()),
			humanize.RelTime(s.StartTime, now, "ago", "from now"),
		})
	}
	if _, err := fmt.Fprintln(w, "Recent Sessions"); err != nil {
		return err
	}
	for _, line := range formatTable([]string{"Topic", "Duration", "Started"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SubtopicLabel resolves a subtopic title, falling back to its id.
func SubtopicLabel(titles map[int64]string, id int64) string {
	if title, ok := titles[id]; ok {
		return title
	}
	return fmt.Sprintf("Topic #%d", id)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
