// Package model contains the node and snapshot types the diff engine
// operates on.
package model

import "strconv"

// NodeID identifies a logical element of the scene. It is assigned by the
// node supplier and is stable across snapshots.
type NodeID int64

// Root is the parent of top-level nodes. No node may use it as its own id.
const Root NodeID = 0

func (id NodeID) String() string {
	if id == Root {
		return "root"
	}
	return strconv.FormatInt(int64(id), 10)
}

// Node is one flattened element of a scene at a point in time. Nodes are
// immutable once constructed.
type Node struct {
	ID       NodeID
	ParentID NodeID
	Content  Content

	cmp Comparator
	sum uint64
}

// NodeOption configures a node at construction.
type NodeOption func(*Node)

// WithComparator sets the comparator used when this node is the old side of
// a comparison.
func WithComparator(c Comparator) NodeOption {
	return func(n *Node) {
		if c != nil {
			n.cmp = c
		}
	}
}

// NewNode creates a node. The content is copied.
func NewNode(id, parent NodeID, content Content, opts ...NodeOption) *Node {
	n := &Node{
		ID:       id,
		ParentID: parent,
		Content:  content.Clone(),
		cmp:      Exact,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.sum = n.Content.Fingerprint()
	return n
}

// Comparator returns the comparator of the node.
func (n *Node) Comparator() Comparator {
	if n.cmp == nil {
		return Exact
	}
	return n.cmp
}

// Fingerprint returns the content hash computed at construction.
func (n *Node) Fingerprint() uint64 {
	return n.sum
}

// Changes returns what changed from n to other, using n's comparator.
func (n *Node) Changes(other *Node) Change {
	return n.Comparator().Compare(n.Content, other.Content)
}

// HasChanged reports whether other differs in content from n.
func (n *Node) HasChanged(other *Node) bool {
	_, exactOld := n.Comparator().(exactComparator)
	_, exactNew := other.Comparator().(exactComparator)
	if exactOld && exactNew && n.sum != other.sum {
		return true
	}
	return !n.Changes(other).Empty()
}

// WithParent returns a copy of n placed under parent.
func (n *Node) WithParent(parent NodeID) *Node {
	c := *n
	c.ParentID = parent
	return &c
}

// WithContent returns a copy of n carrying content.
func (n *Node) WithContent(content Content) *Node {
	c := *n
	c.Content = content.Clone()
	c.sum = c.Content.Fingerprint()
	return &c
}
