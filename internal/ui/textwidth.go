package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Widths are display columns, not bytes.

// RuneWidth returns the display width of a single rune. Control and
// combining characters are 0 columns wide.
func RuneWidth(r rune) int {
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 0
}

// StringWidth returns the display width of a string
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateToWidth truncates s to at most maxWidth columns without splitting
// a rune.
func TruncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	width := 0
	for i, r := range s {
		rw := RuneWidth(r)
		if width+rw > maxWidth {
			return s[:i]
		}
		width += rw
	}
	return s
}

// TruncateToWidthWithEllipsis truncates s with "..." if it exceeds maxWidth
func TruncateToWidthWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return TruncateToWidth(s, maxWidth)
	}
	if StringWidth(s) <= maxWidth {
		return s
	}
	return TruncateToWidth(s, maxWidth-3) + "..."
}

// PadStringToWidth pads s with spaces to width columns.
func PadStringToWidth(s string, width int) string {
	if current := StringWidth(s); current < width {
		return s + strings.Repeat(" ", width-current)
	}
	return s
}
