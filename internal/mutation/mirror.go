package mutation

import (
	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Mirror is a consumer-side copy of a scene that records are applied to.
// It is not safe for concurrent use.
type Mirror struct {
	nodes    map[model.NodeID]*model.Node
	children map[model.NodeID][]model.NodeID
	// parents outside the capture, in order of first appearance
	containers []model.NodeID
}

// NewMirror returns a mirror holding the nodes of s.
func NewMirror(s *model.Snapshot) *Mirror {
	m := &Mirror{
		nodes:    make(map[model.NodeID]*model.Node, s.Len()),
		children: make(map[model.NodeID][]model.NodeID),
	}
	for _, n := range s.Nodes() {
		m.nodes[n.ID] = n
	}
	for _, n := range s.Nodes() {
		if _, ok := m.children[n.ParentID]; !ok && n.ParentID != model.Root && m.nodes[n.ParentID] == nil {
			m.containers = append(m.containers, n.ParentID)
		}
		m.children[n.ParentID] = append(m.children[n.ParentID], n.ID)
	}
	return m
}

// Len returns the number of nodes in the mirror.
func (m *Mirror) Len() int {
	return len(m.nodes)
}

// Apply applies records in order. It stops at the first record that cannot
// be applied; the records before it stay applied.
func (m *Mirror) Apply(records ...Record) error {
	for i, r := range records {
		if err := m.apply(r); err != nil {
			return errors.Wrapf(err, "record %d (%s)", i, r)
		}
	}
	return nil
}

func (m *Mirror) apply(r Record) error {
	switch r := r.(type) {
	case *AddRecord:
		if r.Node == nil {
			return invariantViolationf("add without a node")
		}
		if _, ok := m.nodes[r.Node.ID]; ok {
			return invariantViolationf("add of %s, which already exists", r.Node.ID)
		}
		if !m.knows(r.ParentID) {
			return invariantViolationf("add of %s under unknown parent %s", r.Node.ID, r.ParentID)
		}
		if err := m.insert(r.Node.ID, r.ParentID, r.BeforeID); err != nil {
			return err
		}
		m.nodes[r.Node.ID] = r.Node.WithParent(r.ParentID)
	case *RemoveRecord:
		n, ok := m.nodes[r.ID]
		if !ok {
			return nil
		}
		m.detach(n)
		m.drop(r.ID)
	case *AttributeRecord:
		n, ok := m.nodes[r.ID]
		if !ok {
			return invariantViolationf("attributes of unknown node %s", r.ID)
		}
		parent, before, ok, err := r.Reparent()
		if err != nil {
			return err
		}
		if ok {
			if err := m.move(n, parent, before); err != nil {
				return err
			}
			n = m.nodes[r.ID]
		}
		m.nodes[r.ID] = n.WithContent(n.Content.Apply(model.Change{Attributes: r.ContentAttributes()}))
	case *TextRecord:
		n, ok := m.nodes[r.ID]
		if !ok {
			return invariantViolationf("text of unknown node %s", r.ID)
		}
		text := r.Text
		m.nodes[r.ID] = n.WithContent(n.Content.Apply(model.Change{Text: &text}))
	case *MoveRecord:
		n, ok := m.nodes[r.ID]
		if !ok {
			return invariantViolationf("move of unknown node %s", r.ID)
		}
		return m.move(n, r.NewParentID, r.BeforeID)
	default:
		return errors.AssertionFailedf("unknown record type %T", r)
	}
	return nil
}

func (m *Mirror) move(n *model.Node, parent model.NodeID, before *model.NodeID) error {
	if !m.knows(parent) {
		return invariantViolationf("move of %s under unknown parent %s", n.ID, parent)
	}
	if m.within(parent, n.ID) {
		return invariantViolationf("move of %s under its own subtree", n.ID)
	}
	if before != nil && *before == n.ID {
		return invariantViolationf("move of %s anchored on itself", n.ID)
	}
	m.detach(n)
	if err := m.insert(n.ID, parent, before); err != nil {
		return err
	}
	m.nodes[n.ID] = n.WithParent(parent)
	return nil
}

func (m *Mirror) knows(parent model.NodeID) bool {
	if parent == model.Root {
		return true
	}
	if _, ok := m.nodes[parent]; ok {
		return true
	}
	for _, c := range m.containers {
		if c == parent {
			return true
		}
	}
	return false
}

// within reports whether id is node or one of its ancestors.
func (m *Mirror) within(node, id model.NodeID) bool {
	for cur := node; ; {
		if cur == id {
			return true
		}
		n, ok := m.nodes[cur]
		if !ok {
			return false
		}
		cur = n.ParentID
	}
}

func (m *Mirror) insert(id, parent model.NodeID, before *model.NodeID) error {
	siblings := m.children[parent]
	at := len(siblings)
	if before != nil {
		at = -1
		for i, s := range siblings {
			if s == *before {
				at = i
				break
			}
		}
		if at < 0 {
			return invariantViolationf("anchor %s is not a child of %s", *before, parent)
		}
	}
	siblings = append(siblings, 0)
	copy(siblings[at+1:], siblings[at:])
	siblings[at] = id
	m.children[parent] = siblings
	return nil
}

func (m *Mirror) detach(n *model.Node) {
	siblings := m.children[n.ParentID]
	for i, s := range siblings {
		if s == n.ID {
			m.children[n.ParentID] = append(siblings[:i:i], siblings[i+1:]...)
			return
		}
	}
}

func (m *Mirror) drop(id model.NodeID) {
	for _, c := range m.children[id] {
		m.drop(c)
	}
	delete(m.children, id)
	delete(m.nodes, id)
}

// Snapshot returns the mirror content in pre-order: first the tree under
// Root, then the trees under each outside container.
func (m *Mirror) Snapshot() (*model.Snapshot, error) {
	nodes := make([]*model.Node, 0, len(m.nodes))
	var walk func(parent model.NodeID)
	walk = func(parent model.NodeID) {
		for _, id := range m.children[parent] {
			nodes = append(nodes, m.nodes[id])
			walk(id)
		}
	}
	walk(model.Root)
	for _, c := range m.containers {
		walk(c)
	}
	return model.NewSnapshot(nodes...)
}

// Matches returns nil if the mirror holds exactly the nodes of s, with the
// same parents, sibling order and content.
func (m *Mirror) Matches(s *model.Snapshot) error {
	if len(m.nodes) != s.Len() {
		return errors.Newf("mirror holds %d nodes, snapshot %d", len(m.nodes), s.Len())
	}
	for _, want := range s.Nodes() {
		got, ok := m.nodes[want.ID]
		if !ok {
			return errors.Newf("node %s missing from mirror", want.ID)
		}
		if got.ParentID != want.ParentID {
			return errors.Newf("node %s: parent %s, want %s", want.ID, got.ParentID, want.ParentID)
		}
		if got.Fingerprint() != want.Fingerprint() || !model.Exact.Compare(got.Content, want.Content).Empty() {
			return errors.Newf("node %s: content %+v, want %+v", want.ID, got.Content, want.Content)
		}
	}
	for _, parent := range s.Parents() {
		want := s.Children(parent)
		got := m.children[parent]
		if len(got) != len(want) {
			return errors.Newf("parent %s: children %v, want %v", parent, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				return errors.Newf("parent %s: children %v, want %v", parent, got, want)
			}
		}
	}
	return nil
}
