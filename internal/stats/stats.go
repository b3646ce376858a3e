// Package stats derives every reporting aggregate from the full session,
// progress and task history. Nothing is cached: each call rescans its input.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/studylog/internal/model"
)

const trendEmpty = '·'

// DayTotal is the study time that started on one calendar day.
type DayTotal struct {
	Date    time.Time
	Label   string
	Seconds int64
}

// Minutes returns the day total rounded to whole minutes.
func (d DayTotal) Minutes() int {
	return int(math.Round(float64(d.Seconds) / 60))
}

// SubjectTotal is the study time logged against one subject.
type SubjectTotal struct {
	SubjectID int64
	Name      string
	Color     string
	Seconds   int64
}

// TotalStudyTime sums the duration of every session.
func TotalStudyTime(sessions []model.StudySession) time.Duration {
	var secs int64
	for _, s := range sessions {
		secs += s.DurationSeconds
	}
	return time.Duration(secs) * time.Second
}

// FormatHoursMinutes renders "2h 15m", "2h", "45m" or "0m".
func FormatHoursMinutes(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	hours, minutes := total/60, total%60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// TodayStudyTime sums sessions that started on the calendar date of now.
func TodayStudyTime(sessions []model.StudySession, now time.Time) time.Duration {
	today := civilDate(now, now.Location())
	var secs int64
	for _, s := range sessions {
		if civilDate(s.StartTime, now.Location()).Equal(today) {
			secs += s.DurationSeconds
		}
	}
	return time.Duration(secs) * time.Second
}

// DailySeries returns one entry per day for the last days calendar days
// ending today, oldest first. Days without sessions are included with zero.
func DailySeries(sessions []model.StudySession, now time.Time, days int) []DayTotal {
	if days <= 0 {
		return nil
	}
	loc := now.Location()
	totals := totalsByDay(sessions, loc)
	today := civilDate(now, loc)
	out := make([]DayTotal, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		out = append(out, DayTotal{
			Date:    time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc),
			Label:   day.Format("Mon"),
			Seconds: totals[day],
		})
	}
	return out
}

// MonthlySeries returns one entry for every day of the month containing
// month, labelled with the day number.
func MonthlySeries(sessions []model.StudySession, month time.Time) []DayTotal {
	loc := month.Location()
	totals := totalsByDay(sessions, loc)
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []DayTotal
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		out = append(out, DayTotal{
			Date:    time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc),
			Label:   fmt.Sprintf("%d", day.Day()),
			Seconds: totals[day],
		})
	}
	return out
}

// CompletedTopics counts checklist records with the topic stage done.
func CompletedTopics(progress []model.Progress) int {
	n := 0
	for _, p := range progress {
		if p.TopicCompleted {
			n++
		}
	}
	return n
}

// TopicCompletionRatio is CompletedTopics over subtopicCount, or 0 when
// there are no subtopics.
func TopicCompletionRatio(progress []model.Progress, subtopicCount int) float64 {
	if subtopicCount <= 0 {
		return 0
	}
	return float64(CompletedTopics(progress)) / float64(subtopicCount)
}

// RecentSessions returns up to n sessions, newest first. The input is not
// modified.
func RecentSessions(sessions []model.StudySession, n int) []model.StudySession {
	if n <= 0 || len(sessions) == 0 {
		return nil
	}
	out := make([]model.StudySession, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	if n > len(out) {
		n = len(out)
	}
	return out[:n]
}

// TaskSummary counts the completed and total tasks of one day.
func TaskSummary(tasks []model.Task, day string) (completed, total int) {
	for _, task := range tasks {
		if task.Date != day {
			continue
		}
		total++
		if task.Completed {
			completed++
		}
	}
	return completed, total
}

// OverdueTasks returns open tasks dated before the calendar date of now,
// oldest first.
func OverdueTasks(tasks []model.Task, now time.Time) []model.Task {
	today := now.Format(model.DateLayout)
	var out []model.Task
	for _, task := range tasks {
		if !task.Completed && task.Date < today {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Trend renders one glyph per day, scaled against the busiest day of the
// series. Days without study show as a dot.
func Trend(days []DayTotal) string {
	var top int64
	for _, d := range days {
		if d.Seconds > top {
			top = d.Seconds
		}
	}
	blocks := []rune(barBlocks)
	var b strings.Builder
	for _, d := range days {
		if d.Seconds <= 0 || top == 0 {
			b.WriteRune(trendEmpty)
			continue
		}
		level := int(math.Ceil(float64(d.Seconds) / float64(top) * float64(len(blocks)-1)))
		b.WriteRune(blocks[level])
	}
	return b.String()
}

// civilDate maps t to midnight UTC of its calendar date in loc, so day
// arithmetic is free of DST shifts.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func totalsByDay(sessions []model.StudySession, loc *time.Location) map[time.Time]int64 {
	totals := make(map[time.Time]int64)
	for _, s := range sessions {
		totals[civilDate(s.StartTime, loc)] += s.DurationSeconds
	}
	return totals
}
