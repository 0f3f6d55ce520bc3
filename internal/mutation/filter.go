package mutation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Matcher selects records.
type Matcher interface {
	// Matches reports whether r matches. scene resolves the text of nodes
	// that the record itself does not carry; it may be nil.
	Matches(r Record, scene *model.Snapshot) bool
	String() string // For debug output
}

// recordText returns the text the record is about
func recordText(r Record, scene *model.Snapshot) string {
	switch r := r.(type) {
	case *AddRecord:
		return r.Node.Content.Text
	case *TextRecord:
		return r.Text
	}
	if scene == nil {
		return ""
	}
	if n, ok := scene.Lookup(r.Target()); ok {
		return n.Content.Text
	}
	return ""
}

// FuzzyExpr matches records whose node text fuzzy-matches the term (case-insensitive)
type FuzzyExpr struct {
	term string
}

func NewFuzzyExpr(term string) *FuzzyExpr {
	return &FuzzyExpr{term: strings.ToLower(term)}
}

func (e *FuzzyExpr) Matches(r Record, scene *model.Snapshot) bool {
	return fuzzy.MatchFold(e.term, strings.ToLower(recordText(r, scene)))
}

func (e *FuzzyExpr) String() string {
	return fmt.Sprintf("fuzzy(%q)", e.term)
}

// RegexExpr matches records whose node text matches a regular expression
type RegexExpr struct {
	pattern string
	re      *regexp.Regexp
}

func NewRegexExpr(pattern string) (*RegexExpr, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regex pattern %q", pattern)
	}
	return &RegexExpr{pattern: pattern, re: re}, nil
}

func (e *RegexExpr) Matches(r Record, scene *model.Snapshot) bool {
	return e.re.MatchString(recordText(r, scene))
}

func (e *RegexExpr) String() string {
	return fmt.Sprintf("regex(%q)", e.pattern)
}

// KindExpr matches records of one kind
type KindExpr struct {
	kind Kind
}

func (e *KindExpr) Matches(r Record, _ *model.Snapshot) bool {
	return r.Kind() == e.kind
}

func (e *KindExpr) String() string {
	return fmt.Sprintf("kind(%s)", e.kind)
}

// AndExpr matches when every operand matches
type AndExpr struct {
	exprs []Matcher
}

func (e *AndExpr) Matches(r Record, scene *model.Snapshot) bool {
	for _, x := range e.exprs {
		if !x.Matches(r, scene) {
			return false
		}
	}
	return true
}

func (e *AndExpr) String() string {
	parts := make([]string, len(e.exprs))
	for i, x := range e.exprs {
		parts[i] = x.String()
	}
	return "and(" + strings.Join(parts, ", ") + ")"
}

// ParseFilter parses a query of space separated terms, all of which must
// match: "kind:NAME" selects a record kind, "/RE/" a regular expression on
// node text, anything else fuzzy-matches node text.
func ParseFilter(query string) (Matcher, error) {
	var exprs []Matcher
	for _, term := range strings.Fields(query) {
		switch {
		case strings.HasPrefix(term, "kind:"):
			k, err := parseKind(strings.TrimPrefix(term, "kind:"))
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, &KindExpr{kind: k})
		case len(term) >= 2 && strings.HasPrefix(term, "/") && strings.HasSuffix(term, "/"):
			re, err := NewRegexExpr(term[1 : len(term)-1])
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, re)
		default:
			exprs = append(exprs, NewFuzzyExpr(term))
		}
	}
	return &AndExpr{exprs: exprs}, nil
}

func parseKind(s string) (Kind, error) {
	for k := KindAdd; k <= KindMove; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown record kind %q", s)
}

// Filter returns the records that m matches, in order.
func Filter(records []Record, scene *model.Snapshot, m Matcher) []Record {
	var out []Record
	for _, r := range records {
		if m.Matches(r, scene) {
			out = append(out, r)
		}
	}
	return out
}
