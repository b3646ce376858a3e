// Package calendar lays out a Sunday-first month grid and marks days that
// carry tasks.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/studylog/internal/model"
)

// Marker summarizes the tasks of one day.
type Marker int

const (
	// MarkerNone means the day has no tasks.
	MarkerNone Marker = iota
	// MarkerPending means at least one task of the day is open.
	MarkerPending
	// MarkerCleared means every task of the day is done.
	MarkerCleared
)

const cellWidth = 4

var weekdayHeader = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// Glyph returns the single-cell symbol drawn next to a day number.
func (m Marker) Glyph() string {
	switch m {
	case MarkerPending:
		return "•"
	case MarkerCleared:
		return "✓"
	default:
		return " "
	}
}

// MonthGrid returns the weeks of the month containing month, Sunday first.
// Cells before the first and after the last day are zero times.
func MonthGrid(month time.Time) [][]time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	var weeks [][]time.Time
	week := make([]time.Time, 7)
	col := int(first.Weekday())
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = make([]time.Time, 7)
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// Markers derives a marker per task date (YYYY-MM-DD).
func Markers(tasks []model.Task) map[string]Marker {
	open := map[string]bool{}
	for _, task := range tasks {
		if !task.Completed {
			open[task.Date] = true
		} else if _, seen := open[task.Date]; !seen {
			open[task.Date] = false
		}
	}
	out := make(map[string]Marker, len(open))
	for date, pending := range open {
		if pending {
			out[date] = MarkerPending
		} else {
			out[date] = MarkerCleared
		}
	}
	return out
}

// Render draws the month with today and the selected day highlighted.
// Styling is dropped when w is not a terminal.
func Render(w io.Writer, month, today, selected time.Time, markers map[string]Marker) error {
	r := lipgloss.NewRenderer(w)
	titleStyle := r.NewStyle().Bold(true)
	todayStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle := r.NewStyle().Reverse(true)
	pendingStyle := r.NewStyle().Foreground(lipgloss.Color("11"))
	clearedStyle := r.NewStyle().Foreground(lipgloss.Color("10"))

	todayKey := today.Format(model.DateLayout)
	selectedKey := ""
	if !selected.IsZero() {
		selectedKey = selected.Format(model.DateLayout)
	}

	var b strings.Builder
	title := month.Format("January 2006")
	pad := (cellWidth*7 - runewidth.StringWidth(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + titleStyle.Render(title) + "\n")
	for _, day := range weekdayHeader {
		b.WriteString(runewidth.FillRight(day, cellWidth))
	}
	b.WriteString("\n")

	for _, week := range MonthGrid(month) {
		var line strings.Builder
		for _, day := range week {
			if day.IsZero() {
				line.WriteString(strings.Repeat(" ", cellWidth))
				continue
			}
			key := day.Format(model.DateLayout)
			num := fmt.Sprintf("%2d", day.Day())
			switch {
			case key == selectedKey:
				num = selectedStyle.Render(num)
			case key == todayKey:
				num = todayStyle.Render(num)
			}
			marker := markers[key]
			glyph := marker.Glyph()
			switch marker {
			case MarkerPending:
				glyph = pendingStyle.Render(glyph)
			case MarkerCleared:
				glyph = clearedStyle.Render(glyph)
			}
			line.WriteString(num + glyph + " ")
		}
		b.WriteString(strings.TrimRight(line.String(), " ") + "\n")
	}
	b.WriteString(fmt.Sprintf("%s pending  %s cleared\n", MarkerPending.Glyph(), MarkerCleared.Glyph()))
	_, err := io.WriteString(w, b.String())
	return err
}
