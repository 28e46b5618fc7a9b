package tui

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const valueSeparator = ", "

// wrapValues lays out die values as comma-separated lines no wider than
// width cells. A non-positive width keeps everything on one line.
func wrapValues(values []int, width int) []string {
	if len(values) == 0 {
		return nil
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	sepWidth := runewidth.StringWidth(valueSeparator)
	for i, v := range values {
		cell := strconv.Itoa(v)
		cellWidth := runewidth.StringWidth(cell)
		if i > 0 {
			if width > 0 && lineWidth+sepWidth+cellWidth > width {
				lines = append(lines, strings.TrimRight(line.String()+",", " "))
				line.Reset()
				lineWidth = 0
			} else {
				line.WriteString(valueSeparator)
				lineWidth += sepWidth
			}
		}
		line.WriteString(cell)
		lineWidth += cellWidth
	}
	lines = append(lines, line.String())
	return lines
}
