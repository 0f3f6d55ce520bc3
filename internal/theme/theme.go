// Package theme holds the color themes of the record viewer.
package theme

import (
	"github.com/gdamore/tcell/v2"
)

// Colors holds all the color definitions for the theme
type Colors struct {
	Text       tcell.Color
	Background tcell.Color
	Border     tcell.Color

	// Header and footer
	HeaderTitle tcell.Color
	HeaderBg    tcell.Color

	// Diff lines
	Added   tcell.Color
	Removed tcell.Color
	Updated tcell.Color
	Moved   tcell.Color
	Detail  tcell.Color
	Summary tcell.Color
}

// Theme represents a complete color theme
type Theme struct {
	Name   string
	Colors Colors
}

// Default returns a default theme using terminal defaults
func Default() *Theme {
	return &Theme{
		Name: "default",
		Colors: Colors{
			Text:        tcell.ColorDefault,
			Background:  tcell.ColorDefault,
			Border:      tcell.ColorDefault,
			HeaderTitle: tcell.ColorDefault,
			HeaderBg:    tcell.ColorDefault,
			Added:       tcell.ColorGreen,
			Removed:     tcell.ColorRed,
			Updated:     tcell.ColorYellow,
			Moved:       tcell.ColorTeal,
			Detail:      tcell.ColorGray,
			Summary:     tcell.ColorDefault,
		},
	}
}

// TokyoNight returns the Tokyo Night theme
func TokyoNight() *Theme {
	return &Theme{
		Name: "tokyo-night",
		Colors: Colors{
			Text:        ParseColorString("#c0caf5"), // Light gray-blue
			Background:  ParseColorString("#1a1b26"), // Dark background
			Border:      ParseColorString("#7dcfff"), // Cyan
			HeaderTitle: ParseColorString("#bb9af7"), // Magenta
			HeaderBg:    ParseColorString("#24283b"),
			Added:       ParseColorString("#9ece6a"), // Green
			Removed:     ParseColorString("#f7768e"), // Red
			Updated:     ParseColorString("#e0af68"), // Yellow
			Moved:       ParseColorString("#7aa2f7"), // Blue
			Detail:      ParseColorString("#565f89"), // Comment gray
			Summary:     ParseColorString("#bb9af7"),
		},
	}
}

// Apply overrides colors by key. Keys are the names used in theme files:
// text, background, border, header, header_bg, add, remove, update, move,
// detail and summary. Unknown keys and unparsable colors are ignored.
func (t *Theme) Apply(colors map[string]string) {
	for key, value := range colors {
		c := ParseColorString(value)
		if c == tcell.ColorDefault {
			continue
		}
		if slot := t.slot(key); slot != nil {
			*slot = c
		}
	}
}

func (t *Theme) slot(key string) *tcell.Color {
	switch key {
	case "text":
		return &t.Colors.Text
	case "background":
		return &t.Colors.Background
	case "border":
		return &t.Colors.Border
	case "header":
		return &t.Colors.HeaderTitle
	case "header_bg":
		return &t.Colors.HeaderBg
	case "add":
		return &t.Colors.Added
	case "remove":
		return &t.Colors.Removed
	case "update":
		return &t.Colors.Updated
	case "move":
		return &t.Colors.Moved
	case "detail":
		return &t.Colors.Detail
	case "summary":
		return &t.Colors.Summary
	}
	return nil
}
