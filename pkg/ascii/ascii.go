// Package ascii renders aligned terminal output: boxes and column tables.
// Widths are display widths, so CJK and accented file names line up.
package ascii

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Box builds a box containing the provided lines and returns it as a string.
// Lines are left-aligned with single-space padding on each side.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	trimmed := make([]string, len(lines))
	maxWidth := 0
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " ")
		if w := StringWidth(trimmed[i]); w > maxWidth {
			maxWidth = w
		}
	}

	border := strings.Repeat("─", maxWidth+2)

	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range trimmed {
		sb.WriteString("│ " + Pad(line, maxWidth) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// Table lays out rows in columns separated by two spaces. The first row is
// treated as a header and underlined. Cells wider than maxCell display
// columns are truncated; maxCell <= 0 disables truncation.
func Table(rows [][]string, maxCell int) string {
	if len(rows) == 0 {
		return ""
	}
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	cells := make([][]string, len(rows))
	widths := make([]int, cols)
	for i, row := range rows {
		cells[i] = make([]string, cols)
		for j := 0; j < cols; j++ {
			if j >= len(row) {
				continue
			}
			v := row[j]
			if maxCell > 0 {
				v = Truncate(v, maxCell)
			}
			cells[i][j] = v
			if w := StringWidth(v); w > widths[j] {
				widths[j] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		var line strings.Builder
		for j, v := range row {
			if j > 0 {
				line.WriteString("  ")
			}
			line.WriteString(Pad(v, widths[j]))
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}

	writeRow(cells[0])
	rule := make([]string, cols)
	for j, w := range widths {
		rule[j] = strings.Repeat("-", w)
	}
	writeRow(rule)
	for _, row := range cells[1:] {
		writeRow(row)
	}
	return sb.String()
}

// Pad right-fills s with spaces to width display columns.
func Pad(s string, width int) string {
	if fill := width - StringWidth(s); fill > 0 {
		return s + strings.Repeat(" ", fill)
	}
	return s
}

// Truncate shortens value so that its display width fits within width. An
// ellipsis ("...") is appended when truncation occurs and there is space for it.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return substringWithWidth(value, width)
	}
	return substringWithWidth(value, width-3) + "..."
}

func substringWithWidth(s string, target int) string {
	width := 0
	var sb strings.Builder
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > target {
			break
		}
		width += w
		sb.WriteRune(r)
	}
	return sb.String()
}

// StringWidth returns the display width of s.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}
