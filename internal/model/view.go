package model

// View is one element of a nested scene as handed over by a node supplier.
// Flatten turns a view tree into a Snapshot.
type View struct {
	ID         NodeID            `json:"id"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Children   []*View           `json:"children,omitempty"`

	// Comparator overrides the default comparator for this element.
	Comparator Comparator `json:"-"`
}

// NewView creates a view with no children.
func NewView(id NodeID, text string, attrs map[string]string) *View {
	return &View{
		ID:         id,
		Text:       text,
		Attributes: attrs,
		Children:   make([]*View, 0),
	}
}

// AddChild appends child to v.
func (v *View) AddChild(child *View) {
	v.Children = append(v.Children, child)
}

// RemoveChild removes the child with the given id.
func (v *View) RemoveChild(id NodeID) {
	for idx, c := range v.Children {
		if c.ID == id {
			v.Children = append(v.Children[:idx], v.Children[idx+1:]...)
			break
		}
	}
}

// Content returns the view's payload.
func (v *View) Content() Content {
	return Content{Text: v.Text, Attributes: v.Attributes}
}

// Find returns the view with the given id in the subtree rooted at v.
func (v *View) Find(id NodeID) *View {
	if v.ID == id {
		return v
	}
	for _, c := range v.Children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of views in the subtree rooted at v.
func (v *View) Count() int {
	n := 1
	for _, c := range v.Children {
		n += c.Count()
	}
	return n
}

// Flatten returns the pre-order snapshot of the tree rooted at root. The root
// is placed under Root.
func Flatten(root *View) (*Snapshot, error) {
	return FlattenUnder(root, Root)
}

// FlattenUnder is Flatten with an explicit parent for the root, for subtrees
// that hang off a container outside the capture.
func FlattenUnder(root *View, parent NodeID) (*Snapshot, error) {
	if root == nil {
		return Empty, nil
	}
	var nodes []*Node
	var walk func(v *View, parent NodeID)
	walk = func(v *View, parent NodeID) {
		nodes = append(nodes, NewNode(v.ID, parent, v.Content(), WithComparator(v.Comparator)))
		for _, c := range v.Children {
			walk(c, v.ID)
		}
	}
	walk(root, parent)
	return NewSnapshot(nodes...)
}

// Unflatten rebuilds the view forest of a snapshot: one view per node whose
// parent is not itself in the snapshot.
func Unflatten(s *Snapshot) []*View {
	views := make(map[NodeID]*View, s.Len())
	var roots []*View
	for _, n := range s.Nodes() {
		views[n.ID] = &View{
			ID:         n.ID,
			Text:       n.Content.Text,
			Attributes: n.Content.Clone().Attributes,
			Children:   make([]*View, 0),
			Comparator: n.cmp,
		}
	}
	for _, n := range s.Nodes() {
		v := views[n.ID]
		if parent, ok := views[n.ParentID]; ok {
			parent.AddChild(v)
		} else {
			roots = append(roots, v)
		}
	}
	return roots
}
