package mutation

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Compute diffs old against new with s and converts the result to records.
func Compute(s diff.Strategy, old, new *model.Snapshot) ([]Record, *diff.Result, error) {
	result := s.Diff(old, new)
	records, err := Build(result, old, new)
	if err != nil {
		return nil, result, err
	}
	return records, result, nil
}

// Build converts result, computed from old to new, into records that
// transform a mirror of old into new when applied in order:
//
//  1. adds, parents before children;
//  2. moves, and the parent changes of a parent tracking result, parents
//     before children;
//  3. removes, children before parents;
//  4. attribute and text updates, at most one of each per node. A node
//     whose parent change already carried its attributes gets none here.
//
// Every add and move is anchored on the nearest following sibling that is
// already in place when the record is applied.
func Build(result *diff.Result, old, new *model.Snapshot) ([]Record, error) {
	b, err := newBuilder(result, old, new)
	if err != nil {
		return nil, err
	}
	var records []Record
	if records, err = b.adds(records); err != nil {
		return nil, err
	}
	if records, err = b.moves(records); err != nil {
		return nil, err
	}
	if records, err = b.removes(records); err != nil {
		return nil, err
	}
	return b.updates(records)
}

type builder struct {
	result    *diff.Result
	old, new  *model.Snapshot
	added     map[model.NodeID]*model.Node
	removed   map[model.NodeID]*model.Node
	moved     map[model.NodeID]diff.Move
	emitted   map[model.NodeID]bool
	newDepths map[model.NodeID]int
	// kept nodes under a new parent when the result tracks parents
	reparented map[model.NodeID]bool
	// position of every new node among the children of its new parent
	pos    map[model.NodeID]int
	placed map[model.NodeID]*placedSet
}

func newBuilder(result *diff.Result, old, new *model.Snapshot) (*builder, error) {
	b := &builder{
		result:     result,
		old:        old,
		new:        new,
		added:      make(map[model.NodeID]*model.Node, len(result.Added)),
		removed:    make(map[model.NodeID]*model.Node, len(result.Removed)),
		moved:      result.MovedIDs(),
		reparented: make(map[model.NodeID]bool),
		emitted:    make(map[model.NodeID]bool, len(result.Added)),
		pos:        make(map[model.NodeID]int, new.Len()),
		placed:     make(map[model.NodeID]*placedSet),
	}
	for _, n := range result.Added {
		if !new.Contains(n.ID) {
			return nil, invariantViolationf("added node %s is not in the new snapshot", n.ID)
		}
		if old.Contains(n.ID) {
			return nil, invariantViolationf("added node %s already exists in the old snapshot", n.ID)
		}
		b.added[n.ID] = n
	}
	for _, n := range result.Removed {
		if !old.Contains(n.ID) {
			return nil, invariantViolationf("removed node %s is not in the old snapshot", n.ID)
		}
		if new.Contains(n.ID) {
			return nil, invariantViolationf("removed node %s is still in the new snapshot", n.ID)
		}
		b.removed[n.ID] = n
	}
	for id := range b.moved {
		if !old.Contains(id) || !new.Contains(id) {
			return nil, invariantViolationf("moved node %s must be in both snapshots", id)
		}
	}
	if result.ParentTracked {
		for _, n := range result.Updated {
			prev, ok := old.Lookup(n.ID)
			if !ok {
				continue
			}
			if _, moved := b.moved[n.ID]; !moved && prev.ParentID != n.ParentID {
				b.reparented[n.ID] = true
			}
		}
	}

	for _, parent := range new.Parents() {
		children := new.Children(parent)
		b.placed[parent] = newPlacedSet(len(children))
		for i, id := range children {
			b.pos[id] = i
		}
	}
	// Nodes that keep their place need no record and anchor the others.
	for _, n := range new.Nodes() {
		prev, ok := old.Lookup(n.ID)
		if !ok || prev.ParentID != n.ParentID {
			continue
		}
		if _, ok := b.moved[n.ID]; ok {
			continue
		}
		b.placed[n.ParentID].add(b.pos[n.ID])
	}

	if len(result.Added) > 0 || len(result.Moved) > 0 || len(b.reparented) > 0 {
		depths, err := new.Depths()
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "ordering new nodes"), ErrInvariantViolation)
		}
		b.newDepths = depths
	}
	return b, nil
}

// parentKnown reports whether the consumer knows parent at this point of
// the batch.
func (b *builder) parentKnown(parent model.NodeID) bool {
	if parent == model.Root || b.emitted[parent] {
		return true
	}
	if b.old.Contains(parent) {
		_, gone := b.removed[parent]
		return !gone
	}
	// A container outside the capture that old nodes already hang off.
	return len(b.old.Children(parent)) > 0
}

// anchor returns the nearest following sibling of n that is in place.
func (b *builder) anchor(n *model.Node) *model.NodeID {
	set := b.placed[n.ParentID]
	next := set.next(b.pos[n.ID])
	if next < 0 {
		return nil
	}
	id := b.new.Children(n.ParentID)[next]
	return &id
}

func (b *builder) byNewDepth(nodes []*model.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		di, dj := b.newDepths[nodes[i].ID], b.newDepths[nodes[j].ID]
		if di != dj {
			return di < dj
		}
		return b.new.Index(nodes[i].ID) < b.new.Index(nodes[j].ID)
	})
}

func (b *builder) adds(records []Record) ([]Record, error) {
	nodes := append([]*model.Node(nil), b.result.Added...)
	b.byNewDepth(nodes)
	for _, n := range nodes {
		if !b.parentKnown(n.ParentID) {
			return nil, invariantViolationf("add of %s references unknown parent %s", n.ID, n.ParentID)
		}
		records = append(records, &AddRecord{
			ParentID: n.ParentID,
			BeforeID: b.anchor(n),
			Node:     n,
		})
		b.emitted[n.ID] = true
		b.placed[n.ParentID].add(b.pos[n.ID])
	}
	return records, nil
}

func (b *builder) moves(records []Record) ([]Record, error) {
	nodes := make([]*model.Node, 0, len(b.result.Moved)+len(b.reparented))
	for _, m := range b.result.Moved {
		nodes = append(nodes, b.new.MustLookup(m.Node.ID))
	}
	for _, n := range b.result.Updated {
		if b.reparented[n.ID] {
			nodes = append(nodes, b.new.MustLookup(n.ID))
		}
	}
	b.byNewDepth(nodes)
	for _, n := range nodes {
		if !b.parentKnown(n.ParentID) {
			return nil, invariantViolationf("move of %s references unknown parent %s", n.ID, n.ParentID)
		}
		if b.reparented[n.ID] {
			records = append(records, b.reparent(n))
		} else {
			records = append(records, &MoveRecord{
				ID:          n.ID,
				NewParentID: n.ParentID,
				BeforeID:    b.anchor(n),
			})
		}
		b.placed[n.ParentID].add(b.pos[n.ID])
	}
	return records, nil
}

// reparent expresses the parent change of a kept node, with its attribute
// changes, as one attribute record.
func (b *builder) reparent(n *model.Node) *AttributeRecord {
	attrs := make(map[string]string)
	for k, v := range b.old.MustLookup(n.ID).Changes(n).Attributes {
		attrs[k] = v
	}
	attrs[ParentKey] = formatID(n.ParentID)
	if before := b.anchor(n); before != nil {
		attrs[BeforeKey] = formatID(*before)
	}
	return &AttributeRecord{ID: n.ID, Attributes: attrs}
}

func (b *builder) removes(records []Record) ([]Record, error) {
	if len(b.result.Removed) == 0 {
		return records, nil
	}
	depths, err := b.old.Depths()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "ordering removed nodes"), ErrInvariantViolation)
	}
	nodes := append([]*model.Node(nil), b.result.Removed...)
	sort.SliceStable(nodes, func(i, j int) bool {
		di, dj := depths[nodes[i].ID], depths[nodes[j].ID]
		if di != dj {
			return di > dj
		}
		return b.old.Index(nodes[i].ID) > b.old.Index(nodes[j].ID)
	})
	for _, n := range nodes {
		records = append(records, &RemoveRecord{ParentID: n.ParentID, ID: n.ID})
	}
	return records, nil
}

func (b *builder) updates(records []Record) ([]Record, error) {
	seen := make(map[model.NodeID]bool, len(b.result.Updated))
	for _, n := range b.result.Updated {
		if b.added[n.ID] != nil || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		prev, ok := b.old.Lookup(n.ID)
		if !ok {
			return nil, invariantViolationf("updated node %s has no old counterpart", n.ID)
		}
		change := prev.Changes(n)
		if len(change.Attributes) > 0 && !b.reparented[n.ID] {
			attrs := make(map[string]string, len(change.Attributes))
			for k, v := range change.Attributes {
				attrs[k] = v
			}
			records = append(records, &AttributeRecord{ID: n.ID, Attributes: attrs})
		}
		if change.Text != nil {
			records = append(records, &TextRecord{ID: n.ID, Text: *change.Text})
		}
	}
	return records, nil
}

// placedSet is a Fenwick tree over sibling positions that answers "next
// placed position after i" in O(log n).
type placedSet struct {
	tree  []int
	total int
}

func newPlacedSet(n int) *placedSet {
	return &placedSet{tree: make([]int, n+1)}
}

func (s *placedSet) add(i int) {
	s.total++
	for i++; i < len(s.tree); i += i & -i {
		s.tree[i]++
	}
}

// count returns the number of placed positions in [0, i].
func (s *placedSet) count(i int) int {
	c := 0
	for i++; i > 0; i -= i & -i {
		c += s.tree[i]
	}
	return c
}

// next returns the smallest placed position greater than i, or -1.
func (s *placedSet) next(i int) int {
	k := s.count(i) + 1
	if k > s.total {
		return -1
	}
	pos := 0
	step := 1
	for step*2 < len(s.tree) {
		step *= 2
	}
	for ; step > 0; step /= 2 {
		if pos+step < len(s.tree) && s.tree[pos+step] < k {
			pos += step
			k -= s.tree[pos]
		}
	}
	return pos
}
