package diff

import (
	"sort"

	"github.com/cockroachdb/swiss"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Ordered is a move-aware strategy after Heckel's "isolating differences
// between files", adapted to tree order.
//
// A symbol table counts every id in both snapshots. Ids that occur exactly
// once on each side are anchors: they are the same element, possibly moved.
// Ids only in the new snapshot are added, ids only in the old one removed.
// An anchor whose parent changed is a reparent. Among the anchors that kept
// their parent, the longest run that kept its relative order stays in place
// and the rest are reported as moves within the parent, which gives the
// fewest moves for that parent. Runs in O(n log n).
type Ordered struct{}

var _ Strategy = (*Ordered)(nil)

func (o *Ordered) Algorithm() Algorithm {
	return MoveAware
}

type symbol struct {
	oldIndex int
	newIndex int
	oldCount int
	newCount int
}

func (s *symbol) anchor() bool {
	return s.oldCount == 1 && s.newCount == 1
}

func (o *Ordered) Diff(old, new *model.Snapshot) *Result {
	table := swiss.New[model.NodeID, *symbol](old.Len() + new.Len())

	// Pass one: every element of the new snapshot gets a table entry.
	for i, n := range new.Nodes() {
		sym, ok := table.Get(n.ID)
		if !ok {
			sym = &symbol{oldIndex: -1, newIndex: i}
			table.Put(n.ID, sym)
		}
		sym.newCount++
	}

	// Pass two: same for the old snapshot.
	for i, n := range old.Nodes() {
		sym, ok := table.Get(n.ID)
		if !ok {
			sym = &symbol{oldIndex: i, newIndex: -1}
			table.Put(n.ID, sym)
		}
		if sym.oldCount == 0 {
			sym.oldIndex = i
		}
		sym.oldCount++
	}

	result := &Result{}
	moved := make(map[model.NodeID]Move)

	// Pass three: cross-reference anchors. Anchors that kept their parent
	// are grouped per parent, in new sibling order.
	groups := make(map[model.NodeID][]int)
	var parents []model.NodeID
	for _, n := range new.Nodes() {
		sym, _ := table.Get(n.ID)
		if sym.oldCount == 0 {
			result.Added = append(result.Added, n)
			continue
		}
		if !sym.anchor() {
			continue
		}
		prev := old.At(sym.oldIndex)
		if prev.ParentID != n.ParentID {
			moved[n.ID] = Move{Node: n, OldParentID: prev.ParentID, Kind: Reparent}
			continue
		}
		if _, ok := groups[n.ParentID]; !ok {
			parents = append(parents, n.ParentID)
		}
		groups[n.ParentID] = append(groups[n.ParentID], sym.newIndex)
	}

	// Pass four: within each parent, anchors outside the longest run that
	// kept its old order have moved.
	for _, parent := range parents {
		group := groups[parent]
		seq := make([]int, len(group))
		for i, newIndex := range group {
			sym, _ := table.Get(new.At(newIndex).ID)
			seq[i] = sym.oldIndex
		}
		keep := longestIncreasing(seq)
		for i, newIndex := range group {
			if keep[i] {
				continue
			}
			n := new.At(newIndex)
			moved[n.ID] = Move{Node: n, OldParentID: parent, Kind: WithinParent}
		}
	}

	for _, n := range new.Nodes() {
		sym, _ := table.Get(n.ID)
		if !sym.anchor() {
			continue
		}
		if m, ok := moved[n.ID]; ok {
			result.Moved = append(result.Moved, m)
		}
		if old.At(sym.oldIndex).HasChanged(n) {
			result.Updated = append(result.Updated, n)
		}
	}

	for _, n := range old.Nodes() {
		sym, _ := table.Get(n.ID)
		if sym.newCount == 0 {
			result.Removed = append(result.Removed, n)
		}
	}

	return result
}

// longestIncreasing marks the positions of one longest strictly increasing
// subsequence of seq (patience sorting).
func longestIncreasing(seq []int) []bool {
	keep := make([]bool, len(seq))
	if len(seq) == 0 {
		return keep
	}
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		j := sort.Search(len(tails), func(k int) bool { return seq[tails[k]] >= v })
		if j > 0 {
			prev[i] = tails[j-1]
		} else {
			prev[i] = -1
		}
		if j == len(tails) {
			tails = append(tails, i)
		} else {
			tails[j] = i
		}
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		keep[i] = true
	}
	return keep
}
