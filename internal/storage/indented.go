package storage

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Indented scene text has one node per line, nested by indentation (two
// spaces or one tab per level):
//
//	1 class=screen "Home"
//	  2 color=#fff "Title"
//	  3
//	    4 "Body"
//
// A line is the node id, then key=value attributes (values may be quoted),
// then an optional quoted text. A top-level line may carry ^N to hang the
// node off container N outside the scene. Blank lines and lines starting
// with # are skipped.

// ParseIndented parses indented scene text into a snapshot.
func ParseIndented(content string) (*model.Snapshot, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))

	var nodes []*model.Node
	var stack []model.NodeID // Stack to track the parent at each indentation level
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Skip empty lines and comments
		text := strings.TrimSpace(line)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		indent := getIndentLevel(line)
		if indent > len(stack) {
			indent = len(stack)
		}
		stack = stack[:indent]

		id, parent, content, err := parseSceneLine(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if indent > 0 {
			if parent != model.Root {
				return nil, errors.Newf("line %d: container reference on a nested node", lineNo)
			}
			parent = stack[indent-1]
		}

		nodes = append(nodes, model.NewNode(id, parent, content))
		stack = append(stack, id)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading indented scene")
	}

	return model.NewSnapshot(nodes...)
}

// EncodeIndented writes s as indented scene text. Nodes whose parent is not
// in s start a top-level line.
func EncodeIndented(s *model.Snapshot) string {
	var b strings.Builder
	var walk func(n *model.Node, level int)
	walk = func(n *model.Node, level int) {
		b.WriteString(strings.Repeat("  ", level))
		b.WriteString(n.ID.String())
		if level == 0 && n.ParentID != model.Root {
			fmt.Fprintf(&b, " ^%d", int64(n.ParentID))
		}
		for _, k := range n.Content.SortedKeys() {
			fmt.Fprintf(&b, " %s=%s", k, quoteValue(n.Content.Attributes[k]))
		}
		if n.Content.Text != "" {
			b.WriteString(" " + strconv.Quote(n.Content.Text))
		}
		b.WriteByte('\n')
		for _, id := range s.Children(n.ID) {
			walk(s.MustLookup(id), level+1)
		}
	}
	for _, n := range s.Nodes() {
		if !s.Contains(n.ParentID) {
			walk(n, 0)
		}
	}
	return b.String()
}

// quoteValue quotes values the line splitter would not read back verbatim.
func quoteValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \"\\") {
		return strconv.Quote(v)
	}
	for _, r := range v {
		if !unicode.IsPrint(r) {
			return strconv.Quote(v)
		}
	}
	return v
}

// parseSceneLine parses one trimmed line: id, attributes and text
func parseSceneLine(line string) (model.NodeID, model.NodeID, model.Content, error) {
	words, err := splitWords(line)
	if err != nil {
		return 0, 0, model.Content{}, err
	}

	raw, err := strconv.ParseInt(words[0], 10, 64)
	if err != nil || raw <= 0 {
		return 0, 0, model.Content{}, errors.Newf("invalid node id %q", words[0])
	}
	id := model.NodeID(raw)
	parent := model.Root
	var content model.Content

	for _, w := range words[1:] {
		switch {
		case strings.HasPrefix(w, `"`):
			text, err := strconv.Unquote(w)
			if err != nil {
				return 0, 0, model.Content{}, errors.Newf("invalid text %s", w)
			}
			content.Text = text
		case strings.HasPrefix(w, "^"):
			p, err := strconv.ParseInt(w[1:], 10, 64)
			if err != nil || p <= 0 {
				return 0, 0, model.Content{}, errors.Newf("invalid container %q", w)
			}
			parent = model.NodeID(p)
		case strings.Contains(w, "="):
			kv := strings.SplitN(w, "=", 2)
			value := kv[1]
			if strings.HasPrefix(value, `"`) {
				if value, err = strconv.Unquote(value); err != nil {
					return 0, 0, model.Content{}, errors.Newf("invalid attribute value %s", w)
				}
			}
			if content.Attributes == nil {
				content.Attributes = make(map[string]string)
			}
			content.Attributes[kv[0]] = value
		default:
			return 0, 0, model.Content{}, errors.Newf("unexpected %q", w)
		}
	}
	return id, parent, content, nil
}

// splitWords splits on whitespace outside double quotes
func splitWords(line string) ([]string, error) {
	var words []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuote && ch == '\\' && i+1 < len(line):
			cur.WriteByte(ch)
			cur.WriteByte(line[i+1])
			i++
		case ch == '"':
			inQuote = !inQuote
			cur.WriteByte(ch)
		case !inQuote && (ch == ' ' || ch == '\t'):
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words, nil
}

// getIndentLevel calculates the indentation level (0-based)
// Counts tabs and spaces (tab = 2 spaces)
func getIndentLevel(line string) int {
	indent := 0
	for i := 0; i < len(line); i++ {
		if line[i] == '\t' {
			indent += 2
		} else if line[i] == ' ' {
			indent++
		} else {
			break
		}
	}
	// Convert to level (2 spaces = 1 level)
	return indent / 2
}
