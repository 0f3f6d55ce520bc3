package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/pstuifzand/scene-diff/internal/mutation"
	"github.com/pstuifzand/scene-diff/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScreen(t *testing.T, width, height int) (*Screen, tcell.SimulationScreen) {
	sim := tcell.NewSimulationScreen("UTF-8")
	s, err := NewScreenFrom(sim, theme.TokyoNight())
	require.NoError(t, err)
	sim.SetSize(width, height)
	t.Cleanup(func() { _ = s.Close() })
	return s, sim
}

func row(sim tcell.SimulationScreen, x, y, n int) string {
	cells, width, _ := sim.GetContents()
	var b strings.Builder
	for i := 0; i < n; i++ {
		c := cells[y*width+x+i]
		if len(c.Runes) == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return b.String()
}

func numbered(n int) []diff.DiffLine {
	lines := make([]diff.DiffLine, n)
	for i := range lines {
		lines[i] = diff.DiffLine{Type: diff.DiffTypeNewItem, Content: fmt.Sprintf("line %d", i)}
	}
	return lines
}

func key(k tcell.Key, r rune) *tcell.EventKey {
	return tcell.NewEventKey(k, r, tcell.ModNone)
}

func TestRecordViewRender(t *testing.T) {
	screen, sim := newTestScreen(t, 40, 14)
	rv := NewRecordView()
	rv.Show(numbered(10), "/tmp/a.json", "/tmp/b.json")
	rv.Render(screen)
	screen.Show()

	assert.Equal(t, "┌", row(sim, 2, 2, 1))
	assert.Equal(t, " Diff: a.json → b.json ", row(sim, 3, 2, 23))
	assert.Equal(t, "line 0", row(sim, 3, 4, 6))
	assert.Equal(t, "line 5", row(sim, 3, 9, 6))

	cells, width, _ := sim.GetContents()
	fg, _, _ := cells[4*width+3].Style.Decompose()
	assert.Equal(t, theme.TokyoNight().Colors.Added, fg)
}

func TestRecordViewScroll(t *testing.T) {
	screen, sim := newTestScreen(t, 40, 14)
	rv := NewRecordView()
	rv.Show(numbered(10), "a", "b")
	rv.Render(screen)

	rv.HandleKeyEvent(key(tcell.KeyDown, 0))
	assert.Equal(t, 1, rv.ScrollOffset())
	rv.HandleKeyEvent(key(tcell.KeyRune, 'k'))
	rv.HandleKeyEvent(key(tcell.KeyRune, 'k'))
	assert.Equal(t, 0, rv.ScrollOffset())

	rv.HandleKeyEvent(key(tcell.KeyEnd, 0))
	assert.Equal(t, 4, rv.ScrollOffset())
	rv.HandleKeyEvent(key(tcell.KeyPgDn, 0))
	assert.Equal(t, 4, rv.ScrollOffset())

	screen.Clear()
	rv.Render(screen)
	screen.Show()
	assert.Equal(t, "line 4", row(sim, 3, 4, 6))
	assert.Equal(t, "line 9", row(sim, 3, 9, 6))

	rv.HandleKeyEvent(key(tcell.KeyRune, 'q'))
	assert.False(t, rv.IsVisible())
}

func TestRecordViewTooSmall(t *testing.T) {
	screen, sim := newTestScreen(t, 10, 4)
	rv := NewRecordView()
	rv.Show(numbered(3), "a", "b")
	rv.Render(screen)
	screen.Show()
	assert.Equal(t, strings.Repeat(" ", 10), row(sim, 0, 2, 10))
}

func TestRecordLines(t *testing.T) {
	n := model.NewNode(5, model.Root, model.Content{Text: "hi"})
	lines := RecordLines([]mutation.Record{
		&mutation.AddRecord{Node: n, ParentID: model.Root},
		&mutation.TextRecord{ID: 5, Text: "hi"},
		&mutation.RemoveRecord{ID: 2, ParentID: 1},
	})
	require.Len(t, lines, 5)
	assert.Equal(t, diff.DiffTypeNewItem, lines[0].Type)
	assert.Equal(t, diff.DiffTypeModifiedItem, lines[1].Type)
	assert.Equal(t, diff.DiffTypeDeletedItem, lines[2].Type)
	assert.Equal(t, "3 records: 1 add, 1 remove, 0 move, 0 attributes, 1 text", lines[4].Content)
}
