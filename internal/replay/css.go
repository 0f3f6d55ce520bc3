package replay

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pstuifzand/scene-diff/internal/model"
)

const (
	// IDAttribute is the element id the stylesheet rules select on. A scene
	// node that sets it keeps its own value.
	IDAttribute = "id"
	// StyleAttribute carries inline declarations for elements added after
	// the full snapshot.
	StyleAttribute = "style"
)

func selector(id model.NodeID, attrs map[string]string) string {
	if s := attrs[IDAttribute]; s != "" {
		return s
	}
	return tagName(attrs) + "-" + strconv.FormatInt(int64(id), 10)
}

// declarations renders the color attributes as CSS, colors normalized to
// lowercase hex. Values that do not parse as a color pass through.
func declarations(attrs map[string]string) string {
	var keys []string
	for k, v := range attrs {
		if v != "" && model.IsColorKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	decls := make([]string, 0, len(keys))
	for _, k := range keys {
		v := attrs[k]
		if c, ok := model.ParseColor(v); ok {
			v = c.Hex()
		}
		decls = append(decls, k+": "+v+";")
	}
	return strings.Join(decls, " ")
}

// inlineStyle is the style attribute of an element: the node's own style
// followed by its color declarations.
func inlineStyle(attrs map[string]string) string {
	parts := make([]string, 0, 2)
	if own := strings.TrimSpace(attrs[StyleAttribute]); own != "" {
		if !strings.HasSuffix(own, ";") {
			own += ";"
		}
		parts = append(parts, own)
	}
	if decls := declarations(attrs); decls != "" {
		parts = append(parts, decls)
	}
	return strings.Join(parts, " ")
}

// stylesheet holds one rule per node with color attributes, in snapshot
// order.
func stylesheet(s *model.Snapshot) string {
	var b strings.Builder
	for _, n := range s.Nodes() {
		decls := declarations(n.Content.Attributes)
		if decls == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("#" + selector(n.ID, n.Content.Attributes) + " { " + decls + " }")
	}
	return b.String()
}

func touchesStyle(attrs map[string]string) bool {
	for k := range attrs {
		if k == StyleAttribute || model.IsColorKey(k) {
			return true
		}
	}
	return false
}
