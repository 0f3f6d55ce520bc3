package diff

import "github.com/pstuifzand/scene-diff/internal/model"

// Set finds added, removed and updated nodes with id-set arithmetic over
// the snapshot indexes. It runs in O(n) and does not detect moves: a node
// that changed place keeps its identity and is only reported when its
// content changed, or its parent changed and TrackParent is set.
type Set struct {
	TrackParent bool
}

var _ Strategy = (*Set)(nil)

func (s *Set) Algorithm() Algorithm {
	return SetBased
}

func (s *Set) Diff(old, new *model.Snapshot) *Result {
	result := &Result{ParentTracked: s.TrackParent}

	// Find new and modified items
	for _, n := range new.Nodes() {
		if !old.Contains(n.ID) {
			result.Added = append(result.Added, n)
			continue
		}
		prev := old.MustLookup(n.ID)
		if prev.HasChanged(n) || (s.TrackParent && prev.ParentID != n.ParentID) {
			result.Updated = append(result.Updated, n)
		}
	}

	// Find deleted items
	for _, n := range old.Nodes() {
		if !new.Contains(n.ID) {
			result.Removed = append(result.Removed, n)
		}
	}

	return result
}
