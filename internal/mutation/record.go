// Package mutation turns diff results into ordered, replayable mutation
// records, and provides a mirror tree that applies them.
package mutation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pstuifzand/scene-diff/internal/model"
)

// Kind is the type of a mutation record.
type Kind uint8

const (
	KindAdd Kind = iota + 1
	KindRemove
	KindAttributes
	KindText
	KindMove
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindAttributes:
		return "attributes"
	case KindText:
		return "text"
	case KindMove:
		return "move"
	default:
		return "unknown"
	}
}

// Record is one atomic change. The set of implementations is closed: Add,
// Remove, Attribute, Text and Move records.
type Record interface {
	Kind() Kind
	// Target is the id of the node the record changes.
	Target() model.NodeID
	String() string
	record()
}

// AddRecord inserts Node under ParentID, before BeforeID or at the end when
// BeforeID is nil.
type AddRecord struct {
	ParentID model.NodeID
	BeforeID *model.NodeID
	Node     *model.Node
}

// RemoveRecord detaches ID, and anything still below it, from ParentID.
type RemoveRecord struct {
	ParentID model.NodeID
	ID       model.NodeID
}

// AttributeRecord sets attributes of ID. An empty value removes the
// attribute. With the reserved keys ParentKey and BeforeKey it also moves
// ID under a new parent.
type AttributeRecord struct {
	ID         model.NodeID
	Attributes map[string]string
}

// Reserved attribute keys carrying a parent change. Only the set-based
// strategy with parent tracking emits them, since it has no move records.
// BeforeKey is absent when the node goes to the end of its new parent.
const (
	ParentKey = ":parent"
	BeforeKey = ":before"
)

func formatID(id model.NodeID) string {
	return strconv.FormatInt(int64(id), 10)
}

func parseID(s string) (model.NodeID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, invariantViolationf("invalid node id %q", s)
	}
	return model.NodeID(id), nil
}

// Reparent returns the parent change carried by the record, if any.
func (r *AttributeRecord) Reparent() (parent model.NodeID, before *model.NodeID, ok bool, err error) {
	p, ok := r.Attributes[ParentKey]
	if !ok {
		return 0, nil, false, nil
	}
	if parent, err = parseID(p); err != nil {
		return 0, nil, false, err
	}
	if b, ok := r.Attributes[BeforeKey]; ok {
		id, err := parseID(b)
		if err != nil {
			return 0, nil, false, err
		}
		before = &id
	}
	return parent, before, true, nil
}

// ContentAttributes returns the attribute changes without the reserved
// keys.
func (r *AttributeRecord) ContentAttributes() map[string]string {
	out := make(map[string]string, len(r.Attributes))
	for k, v := range r.Attributes {
		if k == ParentKey || k == BeforeKey {
			continue
		}
		out[k] = v
	}
	return out
}

// TextRecord replaces the text of ID.
type TextRecord struct {
	ID   model.NodeID
	Text string
}

// MoveRecord moves ID, with its subtree, under NewParentID before BeforeID
// (at the end when BeforeID is nil).
type MoveRecord struct {
	ID          model.NodeID
	NewParentID model.NodeID
	BeforeID    *model.NodeID
}

func (*AddRecord) Kind() Kind       { return KindAdd }
func (*RemoveRecord) Kind() Kind    { return KindRemove }
func (*AttributeRecord) Kind() Kind { return KindAttributes }
func (*TextRecord) Kind() Kind      { return KindText }
func (*MoveRecord) Kind() Kind      { return KindMove }

func (r *AddRecord) Target() model.NodeID       { return r.Node.ID }
func (r *RemoveRecord) Target() model.NodeID    { return r.ID }
func (r *AttributeRecord) Target() model.NodeID { return r.ID }
func (r *TextRecord) Target() model.NodeID      { return r.ID }
func (r *MoveRecord) Target() model.NodeID      { return r.ID }

func (*AddRecord) record()       {}
func (*RemoveRecord) record()    {}
func (*AttributeRecord) record() {}
func (*TextRecord) record()      {}
func (*MoveRecord) record()      {}

func (r *AddRecord) String() string {
	return fmt.Sprintf("add id=%s parent=%s before=%s%s", r.Node.ID, r.ParentID, before(r.BeforeID), describe(r.Node.Content))
}

func (r *RemoveRecord) String() string {
	return fmt.Sprintf("remove id=%s parent=%s", r.ID, r.ParentID)
}

func (r *AttributeRecord) String() string {
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + r.Attributes[k]
	}
	return fmt.Sprintf("attributes id=%s %s", r.ID, strings.Join(pairs, " "))
}

func (r *TextRecord) String() string {
	return fmt.Sprintf("text id=%s %q", r.ID, r.Text)
}

func (r *MoveRecord) String() string {
	return fmt.Sprintf("move id=%s parent=%s before=%s", r.ID, r.NewParentID, before(r.BeforeID))
}

func before(id *model.NodeID) string {
	if id == nil {
		return "end"
	}
	return id.String()
}

func describe(c model.Content) string {
	var b strings.Builder
	for _, k := range c.SortedKeys() {
		fmt.Fprintf(&b, " %s=%s", k, c.Attributes[k])
	}
	if c.Text != "" {
		fmt.Fprintf(&b, " %q", c.Text)
	}
	return b.String()
}

// Count returns the number of records of each kind.
func Count(records []Record) map[Kind]int {
	out := make(map[Kind]int)
	for _, r := range records {
		out[r.Kind()]++
	}
	return out
}
