package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultChartHeight  = 8
	minChartWidth       = 7
	axisLabelWidth      = 7
	axisSeparator       = " │ "
	barBlocks           = " ▁▂▃▄▅▆▇█"
	maxBarWidth         = 3
	colorReset          = "\x1b[0m"
	barColor            = "\x1b[36m"
	terminalWidthBackup = 80
)

// RenderBars draws a vertical bar chart with one bar per day. A width of
// zero sizes the chart to the terminal.
func RenderBars(w io.Writer, title string, days []DayTotal, width, height int) error {
	return renderBars(w, title, days, width, height, false)
}

// RenderBarsWithColor renders the chart with optional forced color output.
func RenderBarsWithColor(w io.Writer, title string, days []DayTotal, width, height int, forceColor bool) error {
	return renderBars(w, title, days, width, height, forceColor)
}

func renderBars(w io.Writer, title string, days []DayTotal, width, height int, forceColor bool) error {
	if len(days) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minChartWidth {
		width = minChartWidth
	}

	slot := width / len(days)
	if slot < 1 {
		slot = 1
	}
	barWidth := slot
	if slot > 1 {
		barWidth = slot - 1
	}
	if barWidth > maxBarWidth {
		barWidth = maxBarWidth
	}

	var maxSecs int64
	best := -1
	for i, d := range days {
		if d.Seconds > maxSecs {
			maxSecs = d.Seconds
			best = i
		}
	}
	levels := height * 8
	fills := make([]int, len(days))
	if maxSecs > 0 {
		for i, d := range days {
			fills[i] = int(math.Round(float64(d.Seconds) / float64(maxSecs) * float64(levels)))
		}
	}

	useColor := shouldUseColor(w, forceColor)
	blocks := []rune(barBlocks)
	axisLabels := makeAxisLabels(height, time.Duration(maxSecs)*time.Second)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabels[y], axisSeparator))
		base := (height - 1 - y) * 8
		for _, fill := range fills {
			level := fill - base
			if level < 0 {
				level = 0
			}
			if level > 8 {
				level = 8
			}
			bar := strings.Repeat(string(blocks[level]), barWidth)
			if useColor && level > 0 {
				bar = barColor + bar + colorReset
			}
			row.WriteString(bar)
			row.WriteString(strings.Repeat(" ", slot-barWidth))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(row.String(), " ")); err != nil {
			return err
		}
	}
	labelPrefix := strings.Repeat(" ", axisLabelWidth+utf8.RuneCountInString(axisSeparator))
	if _, err := fmt.Fprintln(w, labelPrefix+dayLabels(days, slot)); err != nil {
		return err
	}

	footer := fmt.Sprintf("Total: %s over %d days", FormatHoursMinutes(TotalDays(days)), len(days))
	if best >= 0 {
		footer += fmt.Sprintf(", best %s (%s)", days[best].Date.Format("Mon Jan 2"),
			FormatHoursMinutes(time.Duration(days[best].Seconds)*time.Second))
	}
	if _, err := fmt.Fprintln(w, footer); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// TotalDays sums a day series.
func TotalDays(days []DayTotal) time.Duration {
	var secs int64
	for _, d := range days {
		secs += d.Seconds
	}
	return time.Duration(secs) * time.Second
}

// dayLabels lays labels under their bars, skipping any that would overlap
// the previous one.
func dayLabels(days []DayTotal, slot int) string {
	line := []rune(strings.Repeat(" ", slot*len(days)+maxBarWidth))
	next := 0
	for i, d := range days {
		start := i * slot
		if start < next {
			continue
		}
		label := []rune(d.Label)
		for j, r := range label {
			if start+j < len(line) {
				line[start+j] = r
			}
		}
		next = start + len(label) + 1
	}
	return strings.TrimRight(string(line), " ")
}

func makeAxisLabels(height int, top time.Duration) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = FormatHoursMinutes(top)
	if height > 2 {
		labels[height/2] = FormatHoursMinutes(top / 2)
	}
	if height > 1 {
		labels[height-1] = "0m"
	}
	return labels
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes the bar area width that fits within totalWidth.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minChartWidth
	}
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minChartWidth {
		plotWidth = minChartWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
