// Package overlay draws floating boxes over rendered views.
package overlay

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Center draws box over the middle of base. base is width columns wide;
// shorter lines are padded. Spaces around the box's visible content on
// each line let base show through.
func Center(base, box string, width int) string {
	baseLines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")

	top := max((len(baseLines)-len(boxLines))/2, 0)
	left := max((width-maxWidth(boxLines))/2, 0)

	for i, line := range boxLines {
		row := top + i
		if row >= len(baseLines) {
			break
		}
		baseLines[row] = place(baseLines[row], line, left, width)
	}
	return strings.Join(baseLines, "\n")
}

// place writes the visible part of line over base starting at column col.
func place(base, line string, col, width int) string {
	plain := ansi.Strip(line)
	if strings.TrimSpace(plain) == "" {
		return base
	}
	lead := len(plain) - len(strings.TrimLeft(plain, " "))
	end := ansi.StringWidth(strings.TrimRight(plain, " "))
	content := ansi.Cut(line, lead, end)

	start := col + lead
	stop := col + end
	if w := ansi.StringWidth(base); w < width {
		base += strings.Repeat(" ", width-w)
	}

	out := ansi.Cut(base, 0, start) + content
	if stop < width {
		out += ansi.Cut(base, stop, width)
	}
	return out
}

func maxWidth(lines []string) int {
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return w
}
