package storage

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// The flat format stores a snapshot exactly, in its own node order, so it
// also holds snapshots that are not in pre-order or that reference parents
// outside the scene. It has sections, each line keyed by node id:
//
//   [STRUCTURE SECTION]
//   id: parent_id:position
//
//   [TEXT SECTION]
//   id: escaped text content
//
//   [ATTRIBUTES SECTION]
//   id: key1=value1,key2=value2
//
// Position is the index of the node in the snapshot; the structure section
// lists every node. A parent_id of 0 is the root.
//
// Text escaping:
//   - \ (backslash) is encoded as \\
//   - newline is encoded as \n
//   - in attributes, , and = are encoded as \, and \=
//   - Must be decoded in reverse order to handle escapes correctly

// EncodeFlat encodes a snapshot to the flat format
func EncodeFlat(s *model.Snapshot, w io.Writer) error {
	writer := bufio.NewWriter(w)

	// Write STRUCTURE SECTION
	if _, err := writer.WriteString("[STRUCTURE SECTION]\n"); err != nil {
		return err
	}
	for i, n := range s.Nodes() {
		line := fmt.Sprintf("%d: %d:%d\n", int64(n.ID), int64(n.ParentID), i)
		if _, err := writer.WriteString(line); err != nil {
			return err
		}
	}

	// Write TEXT SECTION
	if _, err := writer.WriteString("\n[TEXT SECTION]\n"); err != nil {
		return err
	}
	for _, n := range s.Nodes() {
		if n.Content.Text == "" {
			continue
		}
		line := fmt.Sprintf("%d: %s\n", int64(n.ID), encodeTextValue(n.Content.Text, false))
		if _, err := writer.WriteString(line); err != nil {
			return err
		}
	}

	// Write ATTRIBUTES SECTION
	if _, err := writer.WriteString("\n[ATTRIBUTES SECTION]\n"); err != nil {
		return err
	}
	for _, n := range s.Nodes() {
		keys := n.Content.SortedKeys()
		if len(keys) == 0 {
			continue
		}
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = encodeTextValue(k, true) + "=" + encodeTextValue(n.Content.Attributes[k], true)
		}
		line := fmt.Sprintf("%d: %s\n", int64(n.ID), strings.Join(pairs, ","))
		if _, err := writer.WriteString(line); err != nil {
			return err
		}
	}

	return writer.Flush()
}

type structureEntry struct {
	id       model.NodeID
	parent   model.NodeID
	position int
}

// DecodeFlat decodes a snapshot from the flat format
func DecodeFlat(r io.Reader) (*model.Snapshot, error) {
	scanner := bufio.NewScanner(r)

	var structure []structureEntry
	textData := make(map[model.NodeID]string)
	attributesData := make(map[model.NodeID]map[string]string)

	section := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, " SECTION]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), " SECTION]")
			continue
		}

		switch section {
		case "STRUCTURE":
			entry, err := parseStructureLine(line)
			if err != nil {
				return nil, errors.Wrap(err, "error reading STRUCTURE SECTION")
			}
			structure = append(structure, entry)

		case "TEXT":
			id, text, err := parseTextLine(line)
			if err != nil {
				return nil, errors.Wrap(err, "error reading TEXT SECTION")
			}
			textData[id] = text

		case "ATTRIBUTES":
			id, attrs, err := parseAttributesLine(line)
			if err != nil {
				return nil, errors.Wrap(err, "error reading ATTRIBUTES SECTION")
			}
			attributesData[id] = attrs

		default:
			return nil, errors.Newf("line outside of a known section: %s", line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanner error")
	}

	sort.SliceStable(structure, func(i, j int) bool {
		return structure[i].position < structure[j].position
	})
	nodes := make([]*model.Node, len(structure))
	for i, e := range structure {
		nodes[i] = model.NewNode(e.id, e.parent, model.Content{
			Text:       textData[e.id],
			Attributes: attributesData[e.id],
		})
	}
	return model.NewSnapshot(nodes...)
}

// encodeTextValue encodes a text value with proper escape sequence handling
// Backslashes are escaped first, then newlines
func encodeTextValue(text string, attr bool) string {
	var result strings.Builder
	for _, ch := range text {
		switch {
		case ch == '\\':
			result.WriteString("\\\\")
		case ch == '\n':
			result.WriteString("\\n")
		case attr && (ch == ',' || ch == '='):
			result.WriteByte('\\')
			result.WriteRune(ch)
		default:
			result.WriteRune(ch)
		}
	}
	return result.String()
}

// decodeTextValue decodes a text value with proper escape sequence parsing
// Reads character by character to handle \n and \\ correctly
func decodeTextValue(text string) string {
	var result strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' && i+1 < len(text) {
			next := text[i+1]
			switch next {
			case 'n':
				result.WriteByte('\n')
				i++ // Skip the 'n'
			case '\\', ',', '=':
				result.WriteByte(next)
				i++
			default:
				// Unrecognized escape sequence, treat as literal
				result.WriteByte('\\')
			}
		} else {
			result.WriteByte(text[i])
		}
	}
	return result.String()
}

// splitEscaped splits s on sep bytes that are not escaped with a backslash
func splitEscaped(s string, sep byte, limit int) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == sep && (limit <= 0 || len(parts) < limit-1) {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func parseID(s string) (model.NodeID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Newf("invalid node id %q", s)
	}
	return model.NodeID(n), nil
}

// parseStructureLine parses a line from the STRUCTURE SECTION
// Format: id: parent_id:position
func parseStructureLine(line string) (structureEntry, error) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return structureEntry{}, errors.Newf("invalid structure line format: %s", line)
	}
	id, err := parseID(parts[0])
	if err != nil {
		return structureEntry{}, err
	}
	parent, err := parseID(parts[1])
	if err != nil {
		return structureEntry{}, err
	}
	position, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return structureEntry{}, errors.Newf("invalid position in %s", line)
	}
	return structureEntry{id: id, parent: parent, position: position}, nil
}

// parseTextLine parses a line from the TEXT SECTION
// Format: id: text
func parseTextLine(line string) (model.NodeID, string, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return 0, "", errors.Newf("invalid text line format: %s", line)
	}
	id, err := parseID(parts[0])
	if err != nil {
		return 0, "", err
	}
	return id, decodeTextValue(strings.TrimSpace(parts[1])), nil
}

// parseAttributesLine parses a line from the ATTRIBUTES SECTION
// Format: id: key1=value1,key2=value2
func parseAttributesLine(line string) (model.NodeID, map[string]string, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return 0, nil, errors.Newf("invalid attributes line format: %s", line)
	}
	id, err := parseID(parts[0])
	if err != nil {
		return 0, nil, err
	}

	attrs := make(map[string]string)
	attrStr := strings.TrimSpace(parts[1])
	if attrStr != "" {
		for _, pair := range splitEscaped(attrStr, ',', 0) {
			kv := splitEscaped(pair, '=', 2)
			if len(kv) != 2 {
				return 0, nil, errors.Newf("invalid attribute %q", pair)
			}
			attrs[decodeTextValue(kv[0])] = decodeTextValue(kv[1])
		}
	}
	return id, attrs, nil
}
