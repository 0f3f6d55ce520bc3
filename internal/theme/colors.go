package theme

import (
	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// ParseColorString handles #RRGGBB, #RGB and rgb(r,g,b). Anything else is
// the terminal default.
func ParseColorString(colorStr string) tcell.Color {
	c, ok := model.ParseColor(colorStr)
	if !ok {
		return tcell.ColorDefault
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// ColorToStyle creates a style with a specific foreground color
func ColorToStyle(fgColor tcell.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(fgColor)
}

// ColorPairToStyle creates a style with specific foreground and background colors
func ColorPairToStyle(fgColor, bgColor tcell.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(fgColor).Background(bgColor)
}
