package diff

import "github.com/pstuifzand/scene-diff/internal/model"

// Result is what a strategy found between two snapshots. Added and Updated
// reference nodes of the new snapshot, Removed nodes of the old one.
type Result struct {
	Added   []*model.Node
	Removed []*model.Node
	Updated []*model.Node
	Moved   []Move

	// ParentTracked is set when a changed parent counts as a content change:
	// Updated then also holds kept nodes that moved to another parent.
	ParentTracked bool
}

// MoveKind tells apart the two kinds of moves.
type MoveKind int

const (
	// WithinParent is a reorder among the children of the same parent.
	WithinParent MoveKind = iota
	// Reparent is a move under a different parent.
	Reparent
)

func (k MoveKind) String() string {
	switch k {
	case WithinParent:
		return "within-parent"
	case Reparent:
		return "reparent"
	default:
		return "unknown"
	}
}

// Move describes a node that kept its identity but changed place. Node is
// the new-snapshot node.
type Move struct {
	Node        *model.Node
	OldParentID model.NodeID
	Kind        MoveKind
}

// Empty reports whether the result carries no change at all.
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Updated) == 0 && len(r.Moved) == 0
}

// Counts returns the number of entries per category.
func (r *Result) Counts() (added, removed, updated, moved int) {
	return len(r.Added), len(r.Removed), len(r.Updated), len(r.Moved)
}

// MovedIDs returns the set of moved ids.
func (r *Result) MovedIDs() map[model.NodeID]Move {
	out := make(map[model.NodeID]Move, len(r.Moved))
	for _, m := range r.Moved {
		out[m.Node.ID] = m
	}
	return out
}

// DiffLineType indicates the type of diff line for rendering
type DiffLineType int

const (
	DiffTypeHeader DiffLineType = iota
	DiffTypeNewSection
	DiffTypeDeletedSection
	DiffTypeModifiedSection
	DiffTypeMovedSection
	DiffTypeNewItem
	DiffTypeDeletedItem
	DiffTypeModifiedItem
	DiffTypeMovedItem
	DiffTypeItemDetail
	DiffTypeSummary
	DiffTypeBlank
)

// DiffLine represents a rendered line in diff output
type DiffLine struct {
	Type    DiffLineType
	Content string
	Indent  int // Indentation level
}
