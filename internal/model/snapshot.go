package model

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
)

// Snapshot is one immutable capture of a scene: its nodes in traversal order
// (pre-order) plus an index from id to position.
type Snapshot struct {
	nodes    []*Node
	index    *swiss.Map[NodeID, int]
	children map[NodeID][]NodeID
}

// Empty is the snapshot with no nodes.
var Empty = mustSnapshot()

// NewSnapshot builds a snapshot from nodes in traversal order. A nil node, a
// node using the Root id, an id that occurs twice or a parent cycle is a
// contract violation. Parents outside the snapshot are allowed.
func NewSnapshot(nodes ...*Node) (*Snapshot, error) {
	s := &Snapshot{
		nodes:    make([]*Node, len(nodes)),
		index:    swiss.New[NodeID, int](len(nodes)),
		children: make(map[NodeID][]NodeID),
	}
	for i, n := range nodes {
		if n == nil {
			return nil, contractViolationf("snapshot: nil node at position %d", i)
		}
		if n.ID == Root {
			return nil, contractViolationf("snapshot: node at position %d uses the root id", i)
		}
		if prev, ok := s.index.Get(n.ID); ok {
			return nil, contractViolationf("snapshot: duplicate id %s at positions %d and %d", n.ID, prev, i)
		}
		s.nodes[i] = n
		s.index.Put(n.ID, i)
		s.children[n.ParentID] = append(s.children[n.ParentID], n.ID)
	}
	if _, err := s.Depths(); err != nil {
		return nil, err
	}
	return s, nil
}

func mustSnapshot(nodes ...*Node) *Snapshot {
	s, err := NewSnapshot(nodes...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of nodes.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// At returns the node at position i.
func (s *Snapshot) At(i int) *Node {
	return s.nodes[i]
}

// Nodes returns the nodes in traversal order. The slice must not be
// modified.
func (s *Snapshot) Nodes() []*Node {
	return s.nodes
}

// Lookup returns the node with the given id.
func (s *Snapshot) Lookup(id NodeID) (*Node, bool) {
	i, ok := s.index.Get(id)
	if !ok {
		return nil, false
	}
	return s.nodes[i], true
}

// MustLookup is Lookup for ids known to be present. A miss is an assertion
// failure.
func (s *Snapshot) MustLookup(id NodeID) *Node {
	n, ok := s.Lookup(id)
	if !ok {
		panic(errors.AssertionFailedf("snapshot: id %s missing from index", id))
	}
	return n
}

// Index returns the position of id, or -1.
func (s *Snapshot) Index(id NodeID) int {
	i, ok := s.index.Get(id)
	if !ok {
		return -1
	}
	return i
}

// Contains reports whether id is in the snapshot.
func (s *Snapshot) Contains(id NodeID) bool {
	_, ok := s.index.Get(id)
	return ok
}

// Children returns the ids whose parent is parent, in snapshot order.
func (s *Snapshot) Children(parent NodeID) []NodeID {
	return s.children[parent]
}

// Parents returns every parent id that has children in the snapshot,
// in order of first appearance.
func (s *Snapshot) Parents() []NodeID {
	seen := make(map[NodeID]struct{}, len(s.children))
	var out []NodeID
	for _, n := range s.nodes {
		if _, ok := seen[n.ParentID]; ok {
			continue
		}
		seen[n.ParentID] = struct{}{}
		out = append(out, n.ParentID)
	}
	return out
}

// RootID returns the id of the first node, or Root for an empty snapshot.
func (s *Snapshot) RootID() NodeID {
	if len(s.nodes) == 0 {
		return Root
	}
	return s.nodes[0].ID
}

// Depths returns, for every node, the number of its ancestors that are in
// the snapshot.
func (s *Snapshot) Depths() (map[NodeID]int, error) {
	const visiting = -1
	depths := make(map[NodeID]int, len(s.nodes))
	var stack []NodeID
	for _, n := range s.nodes {
		stack = stack[:0]
		cur := n
		base := 0
		for {
			d, seen := depths[cur.ID]
			if seen {
				if d == visiting {
					return nil, contractViolationf("snapshot: parent cycle through id %s", cur.ID)
				}
				base = d
				break
			}
			depths[cur.ID] = visiting
			stack = append(stack, cur.ID)
			parent, ok := s.Lookup(cur.ParentID)
			if !ok {
				base = -1
				break
			}
			cur = parent
		}
		for i := len(stack) - 1; i >= 0; i-- {
			base++
			depths[stack[i]] = base
		}
	}
	return depths, nil
}

// WithComparator returns a copy of s whose nodes all use c.
func (s *Snapshot) WithComparator(c Comparator) *Snapshot {
	nodes := make([]*Node, len(s.nodes))
	for i, n := range s.nodes {
		nodes[i] = NewNode(n.ID, n.ParentID, n.Content, WithComparator(c))
	}
	return mustSnapshot(nodes...)
}
