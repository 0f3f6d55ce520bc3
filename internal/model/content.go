package model

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Content is the payload of a node: its text and its attributes (inline
// style, selectors, and similar). An attribute with an empty value is the
// same as an absent attribute.
type Content struct {
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Change lists what differs between two contents. Attributes holds the new
// value of every changed attribute ("" for a removed one). Text is nil when
// the text did not change.
type Change struct {
	Attributes map[string]string
	Text       *string
}

// Empty reports whether the change carries nothing.
func (c Change) Empty() bool {
	return len(c.Attributes) == 0 && c.Text == nil
}

// Comparator decides what changed between two contents of one node kind.
type Comparator interface {
	Compare(old, new Content) Change
}

// ComparatorFunc adapts a function to the Comparator interface.
type ComparatorFunc func(old, new Content) Change

func (f ComparatorFunc) Compare(old, new Content) Change {
	return f(old, new)
}

type exactComparator struct{}

// Exact compares attributes and text for plain equality. It is the default
// comparator of a node.
var Exact Comparator = exactComparator{}

func (exactComparator) Compare(old, new Content) Change {
	return compareWith(old, new, func(_, a, b string) bool { return a == b })
}

type styleComparator struct{}

// StyleAware is Exact, except that color attributes are equal when they
// denote the same RGB color ("#fff", "#FFFFFF" and "rgb(255,255,255)").
var StyleAware Comparator = styleComparator{}

func (styleComparator) Compare(old, new Content) Change {
	return compareWith(old, new, func(key, a, b string) bool {
		if a == b {
			return true
		}
		if !IsColorKey(key) {
			return false
		}
		ca, okA := ParseColor(a)
		cb, okB := ParseColor(b)
		return okA && okB && ca.Hex() == cb.Hex()
	})
}

type ignoringComparator struct {
	base Comparator
	keys map[string]struct{}
}

// Ignoring wraps base so that the given attribute keys never count as a
// change.
func Ignoring(base Comparator, keys ...string) Comparator {
	if base == nil {
		base = Exact
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return ignoringComparator{base: base, keys: set}
}

func (c ignoringComparator) Compare(old, new Content) Change {
	return c.base.Compare(c.strip(old), c.strip(new))
}

func (c ignoringComparator) strip(content Content) Content {
	attrs := make(map[string]string, len(content.Attributes))
	for k, v := range content.Attributes {
		if _, skip := c.keys[k]; !skip {
			attrs[k] = v
		}
	}
	return Content{Text: content.Text, Attributes: attrs}
}

func compareWith(old, new Content, equal func(key, a, b string) bool) Change {
	var change Change
	for key, newVal := range new.Attributes {
		if !equal(key, old.Attributes[key], newVal) {
			if change.Attributes == nil {
				change.Attributes = make(map[string]string)
			}
			change.Attributes[key] = newVal
		}
	}
	for key, oldVal := range old.Attributes {
		if _, ok := new.Attributes[key]; ok || oldVal == "" {
			continue
		}
		if change.Attributes == nil {
			change.Attributes = make(map[string]string)
		}
		change.Attributes[key] = ""
	}
	if old.Text != new.Text {
		text := new.Text
		change.Text = &text
	}
	return change
}

// Clone returns a deep copy with empty-valued attributes dropped.
func (c Content) Clone() Content {
	out := Content{Text: c.Text}
	if len(c.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(c.Attributes))
		for k, v := range c.Attributes {
			if v != "" {
				out.Attributes[k] = v
			}
		}
	}
	return out
}

// Apply returns the content that results from applying change to c.
func (c Content) Apply(change Change) Content {
	out := c.Clone()
	for k, v := range change.Attributes {
		if v == "" {
			delete(out.Attributes, k)
			continue
		}
		if out.Attributes == nil {
			out.Attributes = make(map[string]string)
		}
		out.Attributes[k] = v
	}
	if change.Text != nil {
		out.Text = *change.Text
	}
	return out
}

// SortedKeys returns the attribute keys in lexical order.
func (c Content) SortedKeys() []string {
	keys := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fingerprint hashes the content. Equal contents have equal fingerprints;
// the converse does not hold.
func (c Content) Fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(c.Text)
	for _, k := range c.SortedKeys() {
		if c.Attributes[k] == "" {
			continue
		}
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{'='})
		_, _ = d.WriteString(c.Attributes[k])
	}
	return d.Sum64()
}

// IsColorKey reports whether an attribute holds a color.
func IsColorKey(key string) bool {
	return key == "color" || strings.HasSuffix(key, "-color")
}

// ParseColor parses #RGB, #RRGGBB, RRGGBB and rgb(r,g,b) color strings.
func ParseColor(s string) (colorful.Color, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "rgb("), ")"), ",")
		if len(parts) != 3 {
			return colorful.Color{}, false
		}
		var rgb [3]uint8
		for i, p := range parts {
			n, ok := parseByte(strings.TrimSpace(p))
			if !ok {
				return colorful.Color{}, false
			}
			rgb[i] = n
		}
		return colorful.Color{R: float64(rgb[0]) / 255, G: float64(rgb[1]) / 255, B: float64(rgb[2]) / 255}, true
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

func parseByte(s string) (uint8, bool) {
	if s == "" || len(s) > 3 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	if n > 255 {
		return 0, false
	}
	return uint8(n), true
}
