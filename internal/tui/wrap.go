package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks text at spaces so no line is wider than width cells.
// Words wider than a line are split.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, word := range strings.Fields(text) {
		for runewidth.StringWidth(word) > width {
			if lineWidth > 0 {
				flush()
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				break
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		wordWidth := runewidth.StringWidth(word)
		if wordWidth == 0 {
			continue
		}
		switch {
		case lineWidth == 0:
		case lineWidth+1+wordWidth > width:
			flush()
		default:
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += wordWidth
	}
	if lineWidth > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}
