package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// BuildDiffLines converts a Result into formatted display lines. old is the
// snapshot the result was computed against; it supplies previous values.
// This is suitable for both CLI and TUI output
func BuildDiffLines(result *Result, old *model.Snapshot, verbose bool) []DiffLine {
	var lines []DiffLine

	if len(result.Added) > 0 {
		lines = append(lines, DiffLine{Type: DiffTypeNewSection, Content: "Added Nodes:"})
		lines = append(lines, DiffLine{Type: DiffTypeBlank})
		for _, n := range result.Added {
			lines = append(lines, formatAdded(n, verbose)...)
		}
	}

	if len(result.Removed) > 0 {
		lines = append(lines, DiffLine{Type: DiffTypeDeletedSection, Content: "Removed Nodes:"})
		lines = append(lines, DiffLine{Type: DiffTypeBlank})
		for _, n := range result.Removed {
			lines = append(lines, formatRemoved(n)...)
		}
	}

	if len(result.Updated) > 0 {
		lines = append(lines, DiffLine{Type: DiffTypeModifiedSection, Content: "Updated Nodes:"})
		lines = append(lines, DiffLine{Type: DiffTypeBlank})
		for _, n := range result.Updated {
			prev, ok := old.Lookup(n.ID)
			if !ok {
				continue
			}
			lines = append(lines, formatUpdated(prev, n, verbose)...)
		}
	}

	if len(result.Moved) > 0 {
		lines = append(lines, DiffLine{Type: DiffTypeMovedSection, Content: "Moved Nodes:"})
		lines = append(lines, DiffLine{Type: DiffTypeBlank})
		for _, m := range result.Moved {
			lines = append(lines, formatMoved(m)...)
		}
	}

	if !result.Empty() {
		added, removed, updated, moved := result.Counts()
		lines = append(lines, DiffLine{Type: DiffTypeBlank})
		lines = append(lines, DiffLine{Type: DiffTypeSummary, Content: "=== Summary ==="})
		lines = append(lines, DiffLine{
			Type:    DiffTypeSummary,
			Content: fmt.Sprintf("  %d updated, %d added, %d removed, %d moved", updated, added, removed, moved),
		})
	}

	return lines
}

func formatAdded(n *model.Node, verbose bool) []DiffLine {
	lines := []DiffLine{{
		Type:    DiffTypeNewItem,
		Content: fmt.Sprintf("%s: %s", n.ID, truncateText(n.Content.Text, 60)),
		Indent:  1,
	}, {
		Type:    DiffTypeItemDetail,
		Content: fmt.Sprintf("PARENT: %s", n.ParentID),
		Indent:  2,
	}}
	if verbose {
		for _, key := range n.Content.SortedKeys() {
			lines = append(lines, DiffLine{
				Type:    DiffTypeItemDetail,
				Content: fmt.Sprintf("ATTR: %s = %s", key, n.Content.Attributes[key]),
				Indent:  2,
			})
		}
	}
	lines = append(lines, DiffLine{Type: DiffTypeBlank})
	return lines
}

func formatRemoved(n *model.Node) []DiffLine {
	return []DiffLine{{
		Type:    DiffTypeDeletedItem,
		Content: fmt.Sprintf("%s: %s", n.ID, truncateText(n.Content.Text, 60)),
		Indent:  1,
	}, {Type: DiffTypeBlank}}
}

func formatUpdated(prev, n *model.Node, verbose bool) []DiffLine {
	lines := []DiffLine{{
		Type:    DiffTypeModifiedItem,
		Content: fmt.Sprintf("%s: %s", n.ID, truncateText(n.Content.Text, 60)),
		Indent:  1,
	}}

	change := prev.Changes(n)
	if change.Text != nil {
		content := fmt.Sprintf("TEXT: %s → %s", truncateText(prev.Content.Text, 40), truncateText(*change.Text, 40))
		if verbose {
			content = "TEXT: " + inlineTextDiff(prev.Content.Text, *change.Text)
		}
		lines = append(lines, DiffLine{Type: DiffTypeItemDetail, Content: content, Indent: 2})
	}

	if prev.ParentID != n.ParentID {
		lines = append(lines, DiffLine{
			Type:    DiffTypeItemDetail,
			Content: fmt.Sprintf("PARENT: %s → %s", prev.ParentID, n.ParentID),
			Indent:  2,
		})
	}

	keys := make([]string, 0, len(change.Attributes))
	for k := range change.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		newVal := change.Attributes[key]
		oldVal, existed := prev.Content.Attributes[key]
		var content string
		switch {
		case newVal == "":
			content = fmt.Sprintf("ATTR removed: %s (was: %s)", key, oldVal)
		case !existed:
			content = fmt.Sprintf("ATTR added: %s = %s", key, newVal)
		default:
			content = fmt.Sprintf("ATTR changed: %s: %s → %s", key, oldVal, newVal)
		}
		lines = append(lines, DiffLine{Type: DiffTypeItemDetail, Content: content, Indent: 2})
	}

	lines = append(lines, DiffLine{Type: DiffTypeBlank})
	return lines
}

func formatMoved(m Move) []DiffLine {
	var detail string
	switch m.Kind {
	case Reparent:
		detail = fmt.Sprintf("MOVED: from parent %s to parent %s", m.OldParentID, m.Node.ParentID)
	default:
		detail = fmt.Sprintf("REORDERED: within parent %s", m.Node.ParentID)
	}
	return []DiffLine{{
		Type:    DiffTypeMovedItem,
		Content: fmt.Sprintf("%s: %s", m.Node.ID, truncateText(m.Node.Content.Text, 60)),
		Indent:  1,
	}, {
		Type:    DiffTypeItemDetail,
		Content: detail,
		Indent:  2,
	}, {Type: DiffTypeBlank}}
}

// inlineTextDiff renders a character diff as "keep[-gone-]{+new+}".
func inlineTextDiff(from, to string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(from, to, false))
	var b strings.Builder
	for _, d := range diffs {
		text := escapeNewlines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + text + "+}")
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// truncateText limits text to maxLen terminal cells for display
func truncateText(text string, maxLen int) string {
	// Handle multi-line text
	lines := strings.Split(text, "\n")
	text = lines[0]
	if len(lines) > 1 {
		text += " ..."
	}
	return runewidth.Truncate(text, maxLen+3, "...")
}
