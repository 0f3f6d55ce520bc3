package replay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func screen(id model.NodeID, title string, items ...string) *model.View {
	root := model.NewView(id, "", map[string]string{"tag": "section"})
	root.AddChild(model.NewView(id+1, title, map[string]string{"class": "title"}))
	for i, text := range items {
		root.AddChild(model.NewView(id+10+model.NodeID(i), text, nil))
	}
	return root
}

func frame(ms int, root *model.View) Frame {
	return Frame{Timestamp: epoch.Add(time.Duration(ms) * time.Millisecond), Root: root}
}

func newProcessor(t *testing.T, alg diff.Algorithm, opts Options, diffOpts ...diff.Option) *Processor {
	s, err := diff.New(alg, diffOpts...)
	require.NoError(t, err)
	return NewProcessor(s, opts)
}

func TestProcessFrames(t *testing.T) {
	p := newProcessor(t, diff.MoveAware, Options{FirstID: 1000})

	events, err := p.ProcessFrames([]Frame{
		frame(0, screen(1, "Inbox", "a", "b")),
		frame(100, screen(1, "Inbox (1)", "a", "b", "c")),
		frame(200, screen(1, "Inbox (1)", "a", "b", "c")), // no change
		frame(300, screen(50, "Settings")),                // new root: full snapshot
	})
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, FullSnapshot, events[0].Type)
	assert.Equal(t, IncrementalSnapshot, events[1].Type)
	assert.Equal(t, FullSnapshot, events[2].Type)
	assert.Equal(t, epoch.Add(100*time.Millisecond), events[1].Timestamp)

	full := events[0].Data.(*FullSnapshotData)
	doc := full.Node
	assert.Equal(t, NodeDocument, doc.Type)
	html := doc.ChildNodes[0]
	assert.Equal(t, "html", html.TagName)
	body := html.ChildNodes[1]
	assert.Equal(t, "body", body.TagName)
	assert.Equal(t, int64(1006), body.ID)
	root := body.ChildNodes[0]
	assert.Equal(t, "section", root.TagName)
	assert.Equal(t, int64(1), root.ID)
	assert.Equal(t, "section-1", root.Attributes["id"])
	require.Len(t, root.ChildNodes, 3)
	title := root.ChildNodes[0]
	assert.Equal(t, int64(2), title.ID)
	assert.Empty(t, title.TextContent)
	require.Len(t, title.ChildNodes, 1)
	assert.Equal(t, &Node{Type: NodeText, ID: 1000, TextContent: "Inbox"}, title.ChildNodes[0])

	m := events[1].Data.(*MutationData)
	require.Len(t, m.Adds, 1)
	assert.Equal(t, int64(1), m.Adds[0].ParentID)
	assert.Nil(t, m.Adds[0].NextID)
	assert.Equal(t, int64(12), m.Adds[0].Node.ID)
	require.Len(t, m.Adds[0].Node.ChildNodes, 1)
	assert.Equal(t, &Node{Type: NodeText, ID: 1009, TextContent: "c"}, m.Adds[0].Node.ChildNodes[0])
	require.Len(t, m.Texts, 1)
	assert.Equal(t, TextMutation{ID: 1000, Value: "Inbox (1)"}, m.Texts[0])
	assert.Empty(t, m.Removes)
	assert.Empty(t, m.Attributes)

	// The second full snapshot gets fresh ids.
	second := events[2].Data.(*FullSnapshotData).Node
	assert.Equal(t, int64(1016), second.ID)
	assert.Equal(t, int64(1014), second.ChildNodes[0].ChildNodes[1].ID)
	settings := second.ChildNodes[0].ChildNodes[1].ChildNodes[0].ChildNodes[0]
	assert.Equal(t, int64(1010), settings.ChildNodes[0].ID)
}

func TestKeepEmptyAndReset(t *testing.T) {
	p := newProcessor(t, diff.SetBased, Options{KeepEmpty: true})
	events, err := p.ProcessFrames([]Frame{
		frame(0, screen(1, "x")),
		frame(10, screen(1, "x")),
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[1].Data.(*MutationData).Empty())

	p.Reset()
	ev, ok, err := p.Process(frame(20, screen(1, "x")))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, FullSnapshot, ev.Type)
}

func TestMutationsJSON(t *testing.T) {
	p := newProcessor(t, diff.MoveAware, Options{FirstID: 100})
	before := screen(1, "t", "a", "b", "c")
	before.Find(10).Attributes = map[string]string{"color": "#fff"}
	after := model.NewView(1, "", map[string]string{"tag": "section"})
	after.AddChild(model.NewView(2, "t", map[string]string{"class": "title"}))
	after.AddChild(model.NewView(11, "b", nil))
	after.AddChild(model.NewView(12, "c", nil))
	after.AddChild(model.NewView(10, "a", nil))
	after.AddChild(model.NewView(20, "new", nil))

	events, err := p.ProcessFrames([]Frame{frame(0, before), frame(1500, after)})
	require.NoError(t, err)
	require.Len(t, events, 2)

	data, err := json.Marshal(events[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": 3,
		"timestamp": 1735787046500,
		"data": {
			"source": 0,
			"adds": [
				{"parentId": 1, "nextId": null, "node": {"type": 2, "id": 20, "tagName": "div", "attributes": {"id": "div-20"},
					"childNodes": [{"type": 3, "id": 110, "textContent": "new"}]}},
				{"parentId": 1, "nextId": 20, "node": {"type": 2, "id": 10, "tagName": "div", "attributes": {"id": "div-10"},
					"childNodes": [{"type": 3, "id": 101, "textContent": "a"}]}}
			],
			"removes": [{"parentId": 1, "id": 10}],
			"texts": [],
			"attributes": []
		}
	}`, string(data))

	full, err := json.Marshal(events[0])
	require.NoError(t, err)
	assert.Contains(t, string(full), `"type":2,"timestamp":1735787045000`)
	assert.Contains(t, string(full), `"initialOffset":{"left":0,"top":0}`)
	assert.Contains(t, string(full), `{"type":3,"id":104,"textContent":"#div-10 { color: #ffffff; }","isStyle":true}`)
}

func TestEmptyRoot(t *testing.T) {
	p := newProcessor(t, diff.MoveAware, Options{})
	events, err := p.ProcessFrames([]Frame{frame(0, nil), frame(5, nil), frame(10, screen(1, "x"))})
	require.NoError(t, err)
	require.Len(t, events, 2)
	body := events[0].Data.(*FullSnapshotData).Node.ChildNodes[0].ChildNodes[1]
	assert.Empty(t, body.ChildNodes)
	assert.Equal(t, FullSnapshot, events[1].Type)
}

func TestRootParentMapsToBody(t *testing.T) {
	p := newProcessor(t, diff.MoveAware, Options{FirstID: 500})
	_, _, err := p.Process(frame(0, screen(1, "x")))
	require.NoError(t, err)
	assert.Equal(t, int64(504), p.parent(model.Root))
	assert.Equal(t, int64(7), p.parent(7))
}

func TestRelocatedSubtree(t *testing.T) {
	before := model.NewView(1, "", nil)
	two := model.NewView(2, "", nil)
	two.AddChild(model.NewView(3, "x", nil))
	two.AddChild(model.NewView(4, "", nil))
	before.AddChild(two)
	before.AddChild(model.NewView(5, "", nil))

	after := model.NewView(1, "", nil)
	five := model.NewView(5, "", nil)
	two = model.NewView(2, "", nil)
	two.AddChild(model.NewView(3, "y", nil))
	two.AddChild(model.NewView(6, "n", nil))
	five.AddChild(two)
	after.AddChild(five)

	want := &MutationData{
		Source: SourceMutation,
		Adds: []AddMutation{{
			ParentID: 5,
			Node: &Node{Type: NodeElement, ID: 2, TagName: "div", Attributes: map[string]string{"id": "div-2"}, ChildNodes: []*Node{
				{Type: NodeElement, ID: 3, TagName: "div", Attributes: map[string]string{"id": "div-3"}, ChildNodes: []*Node{
					{Type: NodeText, ID: 100, TextContent: "y"},
				}},
				{Type: NodeElement, ID: 6, TagName: "div", Attributes: map[string]string{"id": "div-6"}, ChildNodes: []*Node{
					{Type: NodeText, ID: 107, TextContent: "n"},
				}},
			}},
		}},
		Removes:    []RemoveMutation{{ParentID: 1, ID: 2}},
		Texts:      []TextMutation{},
		Attributes: []AttributeMutation{},
	}

	for _, tc := range []struct {
		name string
		alg  diff.Algorithm
		opts []diff.Option
	}{
		{name: "move-aware", alg: diff.MoveAware},
		{name: "set-based/track-parent", alg: diff.SetBased, opts: []diff.Option{diff.TrackParent(true)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newProcessor(t, tc.alg, Options{FirstID: 100}, tc.opts...)
			events, err := p.ProcessFrames([]Frame{frame(0, before), frame(10, after)})
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, want, events[1].Data)
			assert.Equal(t, map[model.NodeID]int64{3: 100, 6: 107}, p.texts)
		})
	}
}

func TestTextChild(t *testing.T) {
	view := func(text string) *model.View {
		root := model.NewView(1, "", nil)
		item := model.NewView(2, text, nil)
		item.AddChild(model.NewView(3, "c", nil))
		root.AddChild(item)
		return root
	}
	p := newProcessor(t, diff.MoveAware, Options{FirstID: 100})
	events, err := p.ProcessFrames([]Frame{frame(0, view("")), frame(10, view("hello")), frame(20, view(""))})
	require.NoError(t, err)
	require.Len(t, events, 3)

	added := events[1].Data.(*MutationData)
	require.Len(t, added.Adds, 1)
	assert.Equal(t, int64(2), added.Adds[0].ParentID)
	require.NotNil(t, added.Adds[0].NextID)
	assert.Equal(t, int64(3), *added.Adds[0].NextID)
	assert.Equal(t, &Node{Type: NodeText, ID: 107, TextContent: "hello"}, added.Adds[0].Node)
	assert.Empty(t, added.Texts)

	removed := events[2].Data.(*MutationData)
	assert.Equal(t, []RemoveMutation{{ParentID: 2, ID: 107}}, removed.Removes)
	assert.Empty(t, removed.Adds)
	assert.Empty(t, removed.Texts)
}

func TestStyle(t *testing.T) {
	root := func(color string, extra bool) *model.View {
		v := model.NewView(1, "", nil)
		v.AddChild(model.NewView(2, "", map[string]string{"color": color}))
		if extra {
			v.AddChild(model.NewView(3, "", map[string]string{"background-color": "rgb(0,0,255)"}))
		}
		return v
	}
	p := newProcessor(t, diff.MoveAware, Options{FirstID: 100})
	events, err := p.ProcessFrames([]Frame{frame(0, root("#FFF", false)), frame(10, root("#000", true))})
	require.NoError(t, err)
	require.Len(t, events, 2)

	head := events[0].Data.(*FullSnapshotData).Node.ChildNodes[0].ChildNodes[0]
	css := head.ChildNodes[0].ChildNodes[0]
	assert.True(t, css.IsStyle)
	assert.Equal(t, "#div-2 { color: #ffffff; }", css.TextContent)
	assert.NotContains(t, events[0].Data.(*FullSnapshotData).Node.ChildNodes[0].ChildNodes[1].ChildNodes[0].ChildNodes[0].Attributes, "style")

	m := events[1].Data.(*MutationData)
	require.Len(t, m.Adds, 1)
	assert.Equal(t, map[string]string{
		"background-color": "rgb(0,0,255)",
		"id":               "div-3",
		"style":            "background-color: #0000ff;",
	}, m.Adds[0].Node.Attributes)
	require.Len(t, m.Attributes, 1)
	color, style := "#000", "color: #000000;"
	assert.Equal(t, AttributeMutation{ID: 2, Attributes: map[string]*string{"color": &color, "style": &style}}, m.Attributes[0])
}

func TestInlineStyle(t *testing.T) {
	for _, tc := range []struct {
		attrs map[string]string
		want  string
	}{
		{attrs: nil, want: ""},
		{attrs: map[string]string{"class": "x"}, want: ""},
		{attrs: map[string]string{"style": "margin: 0"}, want: "margin: 0;"},
		{attrs: map[string]string{"style": "margin: 0;", "color": "rgb(255,0,0)"}, want: "margin: 0; color: #ff0000;"},
		{attrs: map[string]string{"border-color": "blue", "color": "#0F0"}, want: "border-color: blue; color: #00ff00;"},
	} {
		assert.Equal(t, tc.want, inlineStyle(tc.attrs), "%v", tc.attrs)
	}
}
