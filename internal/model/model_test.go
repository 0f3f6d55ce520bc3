package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) Content {
	return Content{Text: s}
}

func TestNewSnapshotRejectsDuplicates(t *testing.T) {
	_, err := NewSnapshot(
		NewNode(1, Root, text("a")),
		NewNode(2, 1, text("b")),
		NewNode(1, Root, text("c")),
	)
	require.Error(t, err)
	require.True(t, IsContractViolation(err))
	assert.Contains(t, err.Error(), "duplicate id 1")
}

func TestNewSnapshotRejectsRootIDAndNil(t *testing.T) {
	_, err := NewSnapshot(NewNode(Root, Root, text("x")))
	require.True(t, IsContractViolation(err))

	_, err = NewSnapshot(NewNode(1, Root, text("x")), nil)
	require.True(t, IsContractViolation(err))
}

func TestSnapshotIndex(t *testing.T) {
	s, err := NewSnapshot(
		NewNode(10, Root, text("root")),
		NewNode(11, 10, text("a")),
		NewNode(12, 11, text("b")),
		NewNode(13, 10, text("c")),
	)
	require.NoError(t, err)

	require.Equal(t, 4, s.Len())
	require.Equal(t, NodeID(10), s.RootID())
	require.Equal(t, 2, s.Index(12))
	require.Equal(t, -1, s.Index(99))
	require.True(t, s.Contains(13))
	require.False(t, s.Contains(99))
	require.Equal(t, []NodeID{11, 13}, s.Children(10))
	require.Equal(t, []NodeID{Root, 10, 11}, s.Parents())

	n, ok := s.Lookup(11)
	require.True(t, ok)
	require.Equal(t, "a", n.Content.Text)

	require.Panics(t, func() { s.MustLookup(99) })

	depths, err := s.Depths()
	require.NoError(t, err)
	require.Equal(t, map[NodeID]int{10: 0, 11: 1, 12: 2, 13: 1}, depths)
}

func TestNewSnapshotRejectsCycles(t *testing.T) {
	for name, nodes := range map[string][]*Node{
		"self":  {NewNode(1, 1, text("a"))},
		"pair":  {NewNode(1, 2, text("a")), NewNode(2, 1, text("b"))},
		"chain": {NewNode(9, Root, text("r")), NewNode(1, 3, text("a")), NewNode(2, 1, text("b")), NewNode(3, 2, text("c"))},
	} {
		_, err := NewSnapshot(nodes...)
		require.Error(t, err, name)
		assert.True(t, IsContractViolation(err), "%s: %v", name, err)
	}

	// A parent outside the capture is not a cycle.
	s, err := NewSnapshot(NewNode(1, 100, text("a")), NewNode(2, 1, text("b")))
	require.NoError(t, err)
	depths, err := s.Depths()
	require.NoError(t, err)
	assert.Equal(t, map[NodeID]int{1: 0, 2: 1}, depths)
}

func TestEmptySnapshot(t *testing.T) {
	require.Equal(t, 0, Empty.Len())
	require.Equal(t, Root, Empty.RootID())
}

func TestHasChanged(t *testing.T) {
	a := NewNode(1, Root, Content{Text: "a", Attributes: map[string]string{"color": "#fff"}})
	same := NewNode(1, 7, Content{Text: "a", Attributes: map[string]string{"color": "#fff"}})
	otherText := NewNode(1, Root, Content{Text: "b", Attributes: map[string]string{"color": "#fff"}})

	assert.False(t, a.HasChanged(a))
	assert.False(t, a.HasChanged(same), "parent is not part of the content")
	assert.True(t, a.HasChanged(otherText))
}

func TestEmptyAttributeEqualsAbsent(t *testing.T) {
	a := NewNode(1, Root, Content{Attributes: map[string]string{"x": ""}})
	b := NewNode(1, Root, Content{})
	assert.False(t, a.HasChanged(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestExactChanges(t *testing.T) {
	old := Content{Text: "hi", Attributes: map[string]string{"a": "1", "b": "2", "c": "3"}}
	cur := Content{Text: "hi", Attributes: map[string]string{"a": "1", "b": "20", "d": "4"}}

	change := Exact.Compare(old, cur)
	assert.Nil(t, change.Text)
	assert.Equal(t, map[string]string{"b": "20", "c": "", "d": "4"}, change.Attributes)
	assert.Equal(t, cur.Clone(), old.Apply(change))
}

func TestStyleAwareColors(t *testing.T) {
	old := NewNode(1, Root, Content{Attributes: map[string]string{
		"color":            "#FFF",
		"background-color": "rgb(0, 0, 0)",
		"width":            "10px",
	}}, WithComparator(StyleAware))

	same := NewNode(1, Root, Content{Attributes: map[string]string{
		"color":            "#ffffff",
		"background-color": "#000000",
		"width":            "10px",
	}})
	assert.False(t, old.HasChanged(same))

	diff := NewNode(1, Root, Content{Attributes: map[string]string{
		"color":            "#fffffe",
		"background-color": "#000",
		"width":            "10px",
	}})
	assert.True(t, old.HasChanged(diff))
	assert.Equal(t, map[string]string{"color": "#fffffe"}, old.Changes(diff).Attributes)

	// Non-color keys are never normalized.
	widthOnly := NewNode(1, Root, Content{Attributes: map[string]string{
		"color":            "#fff",
		"background-color": "#000",
		"width":            "10.0px",
	}})
	assert.True(t, old.HasChanged(widthOnly))
}

func TestIgnoring(t *testing.T) {
	cmp := Ignoring(Exact, "data-frame")
	old := NewNode(1, Root, Content{Text: "x", Attributes: map[string]string{"data-frame": "1"}}, WithComparator(cmp))
	cur := NewNode(1, Root, Content{Text: "x", Attributes: map[string]string{"data-frame": "2"}})
	assert.False(t, old.HasChanged(cur))

	cur = NewNode(1, Root, Content{Text: "y", Attributes: map[string]string{"data-frame": "2"}})
	assert.True(t, old.HasChanged(cur))
}

func TestComparatorFunc(t *testing.T) {
	never := ComparatorFunc(func(_, _ Content) Change { return Change{} })
	old := NewNode(1, Root, text("a"), WithComparator(never))
	assert.False(t, old.HasChanged(NewNode(1, Root, text("b"))))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		hex  string
		okay bool
	}{
		{"#fff", "#ffffff", true},
		{"#00FF00", "#00ff00", true},
		{"336699", "#336699", true},
		{"rgb(255, 0, 0)", "#ff0000", true},
		{"rgb(256, 0, 0)", "", false},
		{"blue", "", false},
		{"#12345", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, ok := ParseColor(tt.in)
			require.Equal(t, tt.okay, ok)
			if ok {
				require.Equal(t, tt.hex, c.Hex())
			}
		})
	}
}

func TestFlattenPreOrder(t *testing.T) {
	root := NewView(1, "root", nil)
	a := NewView(2, "a", nil)
	a.AddChild(NewView(3, "a1", nil))
	a.AddChild(NewView(4, "a2", nil))
	root.AddChild(a)
	root.AddChild(NewView(5, "b", map[string]string{"k": "v"}))

	s, err := Flatten(root)
	require.NoError(t, err)

	var ids []NodeID
	var parents []NodeID
	for _, n := range s.Nodes() {
		ids = append(ids, n.ID)
		parents = append(parents, n.ParentID)
	}
	require.Equal(t, []NodeID{1, 2, 3, 4, 5}, ids)
	require.Equal(t, []NodeID{Root, 1, 2, 2, 1}, parents)
	require.Equal(t, 5, root.Count())
	require.Equal(t, "a2", root.Find(4).Text)

	forest := Unflatten(s)
	require.Len(t, forest, 1)
	require.Equal(t, 5, forest[0].Count())
	require.Equal(t, "v", forest[0].Find(5).Attributes["k"])
}

func TestFlattenDuplicate(t *testing.T) {
	root := NewView(1, "root", nil)
	root.AddChild(NewView(1, "again", nil))
	_, err := Flatten(root)
	require.True(t, IsContractViolation(err))
}

func TestRemoveChild(t *testing.T) {
	root := NewView(1, "", nil)
	root.AddChild(NewView(2, "", nil))
	root.AddChild(NewView(3, "", nil))
	root.RemoveChild(2)
	require.Len(t, root.Children, 1)
	require.Equal(t, NodeID(3), root.Children[0].ID)
}

func TestNodeIDString(t *testing.T) {
	assert.Equal(t, "root", Root.String())
	assert.Equal(t, "42", NodeID(42).String())
}

func TestSnapshotWithComparator(t *testing.T) {
	s, err := NewSnapshot(NewNode(1, Root, Content{Attributes: map[string]string{"color": "#fff"}}))
	require.NoError(t, err)
	styled := s.WithComparator(StyleAware)
	require.Equal(t, StyleAware, styled.At(0).Comparator())
	require.Equal(t, Exact, s.At(0).Comparator())
	require.False(t, styled.At(0).HasChanged(NewNode(1, Root, Content{Attributes: map[string]string{"color": "#FFFFFF"}})))
}
