package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/mutation"
)

// RecordView displays formatted diff lines or mutation records in a
// scrollable box
type RecordView struct {
	visible      bool
	title        string
	lines        []diff.DiffLine
	scrollOffset int
	maxHeight    int
}

// NewRecordView creates a new, hidden view
func NewRecordView() *RecordView {
	return &RecordView{lines: make([]diff.DiffLine, 0)}
}

// Show displays lines under a title naming both scene files
func (rv *RecordView) Show(lines []diff.DiffLine, oldPath, newPath string) {
	rv.title = fmt.Sprintf(" Diff: %s → %s ", filepath.Base(oldPath), filepath.Base(newPath))
	rv.lines = lines
	rv.scrollOffset = 0
	rv.visible = true
}

// RecordLines renders mutation records as display lines, one per record,
// followed by a count summary.
func RecordLines(records []mutation.Record) []diff.DiffLine {
	lines := make([]diff.DiffLine, 0, len(records)+2)
	for _, r := range records {
		lines = append(lines, diff.DiffLine{Type: lineType(r.Kind()), Content: r.String()})
	}
	counts := mutation.Count(records)
	lines = append(lines, diff.DiffLine{Type: diff.DiffTypeBlank})
	lines = append(lines, diff.DiffLine{
		Type: diff.DiffTypeSummary,
		Content: fmt.Sprintf("%d records: %d add, %d remove, %d move, %d attributes, %d text",
			len(records), counts[mutation.KindAdd], counts[mutation.KindRemove], counts[mutation.KindMove],
			counts[mutation.KindAttributes], counts[mutation.KindText]),
	})
	return lines
}

func lineType(k mutation.Kind) diff.DiffLineType {
	switch k {
	case mutation.KindAdd:
		return diff.DiffTypeNewItem
	case mutation.KindRemove:
		return diff.DiffTypeDeletedItem
	case mutation.KindMove:
		return diff.DiffTypeMovedItem
	default:
		return diff.DiffTypeModifiedItem
	}
}

// Hide closes the view
func (rv *RecordView) Hide() {
	rv.visible = false
}

// IsVisible returns whether the view is currently visible
func (rv *RecordView) IsVisible() bool {
	return rv.visible
}

// ScrollOffset returns the index of the first visible line
func (rv *RecordView) ScrollOffset() int {
	return rv.scrollOffset
}

// HandleKeyEvent processes keyboard input
func (rv *RecordView) HandleKeyEvent(ev *tcell.EventKey) {
	if !rv.visible {
		return
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		rv.Hide()
	case tcell.KeyUp, tcell.KeyCtrlK:
		rv.scroll(-1)
	case tcell.KeyDown, tcell.KeyCtrlJ:
		rv.scroll(1)
	case tcell.KeyPgUp, tcell.KeyCtrlU:
		rv.scroll(-rv.maxHeight / 2)
	case tcell.KeyPgDn, tcell.KeyCtrlD:
		rv.scroll(rv.maxHeight / 2)
	case tcell.KeyHome:
		rv.scrollOffset = 0
	case tcell.KeyEnd:
		rv.scrollOffset = rv.maxScroll()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			rv.Hide()
		case 'j':
			rv.scroll(1)
		case 'k':
			rv.scroll(-1)
		case 'g':
			rv.scrollOffset = 0
		case 'G':
			rv.scrollOffset = rv.maxScroll()
		}
	}
}

// contentHeight is the box height minus the border, title and footer rows.
func (rv *RecordView) contentHeight() int {
	return rv.maxHeight - 8
}

func (rv *RecordView) maxScroll() int {
	if m := len(rv.lines) - rv.contentHeight(); m > 0 {
		return m
	}
	return 0
}

// scroll moves the view up or down
func (rv *RecordView) scroll(lines int) {
	offset := rv.scrollOffset + lines
	if limit := rv.maxScroll(); offset > limit {
		offset = limit
	}
	if offset < 0 {
		offset = 0
	}
	rv.scrollOffset = offset
}

// Render draws the view on the screen
func (rv *RecordView) Render(screen *Screen) {
	if !rv.visible {
		return
	}

	width, height := screen.Size()
	rv.maxHeight = height

	boxWidth := width - 4
	boxHeight := height - 4
	startX := 2
	startY := 2

	if boxWidth < 20 || boxHeight < 5 {
		return // Too small to render
	}

	drawBox(screen, startX, startY, boxWidth, boxHeight, screen.BorderStyle())

	header := TruncateToWidthWithEllipsis(rv.title, boxWidth-2)
	screen.DrawStringLimited(startX+1, startY, header, boxWidth-2, screen.HeaderStyle())

	rv.renderContent(screen, startX+1, startY+2, boxWidth-2, boxHeight-4)

	footer := TruncateToWidthWithEllipsis("j/k/↓/↑: scroll | Ctrl+U/D: page | g/G: top/bottom | q/Esc: close", boxWidth-2)
	screen.DrawStringLimited(startX+1, startY+boxHeight-1, footer, boxWidth-2, screen.NormalStyle())
}

// renderContent draws the visible lines
func (rv *RecordView) renderContent(screen *Screen, x, y, width, height int) {
	end := rv.scrollOffset + height
	if end > len(rv.lines) {
		end = len(rv.lines)
	}

	for i := rv.scrollOffset; i < end; i++ {
		line := rv.lines[i]
		text := strings.Repeat("  ", line.Indent) + line.Content
		text = TruncateToWidthWithEllipsis(text, width)
		screen.DrawStringLimited(x, y+i-rv.scrollOffset, text, width, rv.styleFor(screen, line.Type))
	}

	if len(rv.lines) > height {
		scrollbarY := y + (rv.scrollOffset * height / len(rv.lines))
		screen.SetCell(x+width-1, scrollbarY, '█', screen.HeaderStyle())
	}
}

func (rv *RecordView) styleFor(screen *Screen, lineType diff.DiffLineType) tcell.Style {
	colors := screen.Theme.Colors
	switch lineType {
	case diff.DiffTypeHeader, diff.DiffTypeSummary:
		return screen.LineStyle(colors.Summary).Bold(true)
	case diff.DiffTypeNewSection, diff.DiffTypeNewItem:
		return screen.LineStyle(colors.Added)
	case diff.DiffTypeDeletedSection, diff.DiffTypeDeletedItem:
		return screen.LineStyle(colors.Removed)
	case diff.DiffTypeModifiedSection, diff.DiffTypeModifiedItem:
		return screen.LineStyle(colors.Updated)
	case diff.DiffTypeMovedSection, diff.DiffTypeMovedItem:
		return screen.LineStyle(colors.Moved)
	case diff.DiffTypeItemDetail:
		return screen.LineStyle(colors.Detail)
	default:
		return screen.NormalStyle()
	}
}

// Run shows the view until it is closed.
func (rv *RecordView) Run(screen *Screen) {
	for rv.visible {
		screen.Clear()
		rv.Render(screen)
		screen.Show()

		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			rv.HandleKeyEvent(ev)
		case nil:
			return
		}
	}
}

// drawBox draws a simple box border
func drawBox(screen *Screen, x, y, width, height int, style tcell.Style) {
	screen.SetCell(x, y, '┌', style)
	screen.SetCell(x+width-1, y, '┐', style)
	screen.SetCell(x, y+height-1, '└', style)
	screen.SetCell(x+width-1, y+height-1, '┘', style)
	for i := 1; i < width-1; i++ {
		screen.SetCell(x+i, y, '─', style)
		screen.SetCell(x+i, y+height-1, '─', style)
	}
	for i := 1; i < height-1; i++ {
		screen.SetCell(x, y+i, '│', style)
		screen.SetCell(x+width-1, y+i, '│', style)
	}
}
