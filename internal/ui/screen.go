// Package ui is the terminal viewer for diffs and mutation records.
package ui

import (
	"github.com/cockroachdb/errors"
	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/scene-diff/internal/theme"
)

// Screen manages the tcell screen and rendering
type Screen struct {
	tcellScreen tcell.Screen
	width       int
	height      int
	Theme       *theme.Theme
}

// NewScreen creates a terminal screen with the given theme
func NewScreen(t *theme.Theme) (*Screen, error) {
	tcellScreen, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create screen")
	}
	return NewScreenFrom(tcellScreen, t)
}

// NewScreenFrom initializes s and wraps it. Tests pass a simulation screen.
func NewScreenFrom(s tcell.Screen, t *theme.Theme) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to init screen")
	}
	if t == nil {
		t = theme.Default()
	}
	width, height := s.Size()
	return &Screen{
		tcellScreen: s,
		width:       width,
		height:      height,
		Theme:       t,
	}, nil
}

// Close closes the screen
func (s *Screen) Close() error {
	s.tcellScreen.Fini()
	return nil
}

// Clear clears the entire screen
func (s *Screen) Clear() {
	s.tcellScreen.Clear()
}

// SetCell sets a cell at the given position
func (s *Screen) SetCell(x, y int, r rune, style tcell.Style) {
	if x >= 0 && x < s.width && y >= 0 && y < s.height {
		s.tcellScreen.SetContent(x, y, r, nil, style)
	}
}

// DrawStringLimited draws text at x, y and stops at maxWidth columns. It
// returns the number of columns used.
func (s *Screen) DrawStringLimited(x, y int, text string, maxWidth int, style tcell.Style) int {
	col := 0
	for _, r := range text {
		w := RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > maxWidth {
			break
		}
		s.SetCell(x+col, y, r, style)
		col += w
	}
	return col
}

// PollEvent polls for the next event (key press, resize, etc.)
func (s *Screen) PollEvent() tcell.Event {
	return s.tcellScreen.PollEvent()
}

// Show shows the screen
func (s *Screen) Show() {
	s.tcellScreen.Show()
}

// Size returns the width and height of the screen
func (s *Screen) Size() (int, int) {
	s.width, s.height = s.tcellScreen.Size()
	return s.width, s.height
}

// NormalStyle returns the style for plain text
func (s *Screen) NormalStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.Text, s.Theme.Colors.Background)
}

// BorderStyle returns the style for box borders
func (s *Screen) BorderStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.Border, s.Theme.Colors.Background)
}

// HeaderStyle returns the style for the title bar
func (s *Screen) HeaderStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.HeaderTitle, s.Theme.Colors.HeaderBg).Bold(true)
}

// LineStyle returns the style for one color slot over the background
func (s *Screen) LineStyle(c tcell.Color) tcell.Style {
	return theme.ColorPairToStyle(c, s.Theme.Colors.Background)
}
