// Package replay turns captured scene frames into rrweb style replay
// events: a full snapshot when a screen appears, incremental mutation events
// while it stays.
package replay

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/pstuifzand/scene-diff/internal/mutation"
	"github.com/sirupsen/logrus"
)

// Frame is one capture of a screen.
type Frame struct {
	Timestamp time.Time
	Root      *model.View
}

// Options tune a Processor.
type Options struct {
	// KeepEmpty emits incremental events for frames without changes.
	KeepEmpty bool
	// FirstID is the first id used for the document, html, head and body
	// nodes that wrap a full snapshot. It must not collide with scene ids.
	FirstID int64
}

// DefaultFirstID is used when Options.FirstID is zero.
const DefaultFirstID = 1 << 40

// Processor keeps the previous frame of a screen and is not safe for
// concurrent use.
type Processor struct {
	strategy diff.Strategy
	opts     Options

	last   *Frame
	prev   *model.Snapshot
	nextID int64
	bodyID int64

	// text child of every scene node with text
	texts map[model.NodeID]int64
}

// NewProcessor returns a processor that diffs frames with strategy.
func NewProcessor(strategy diff.Strategy, opts Options) *Processor {
	if opts.FirstID == 0 {
		opts.FirstID = DefaultFirstID
	}
	return &Processor{strategy: strategy, opts: opts, nextID: opts.FirstID}
}

// Reset forgets the previous frame; the next frame produces a full snapshot.
func (p *Processor) Reset() {
	p.last = nil
	p.prev = nil
}

// ProcessFrames converts frames, in order, to events.
func (p *Processor) ProcessFrames(frames []Frame) ([]Event, error) {
	var events []Event
	for i, f := range frames {
		ev, ok, err := p.Process(f)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func rootID(v *model.View) model.NodeID {
	if v == nil {
		return model.Root
	}
	return v.ID
}

// Process converts one frame. It reports false when the frame has no
// changes and empty events are not kept.
func (p *Processor) Process(f Frame) (Event, bool, error) {
	cur, err := model.Flatten(f.Root)
	if err != nil {
		return Event{}, false, err
	}
	if p.last == nil || rootID(p.last.Root) != rootID(f.Root) {
		p.last, p.prev = &f, cur
		return p.full(f.Timestamp, cur), true, nil
	}

	start := time.Now()
	records, _, err := mutation.Compute(p.strategy, p.prev, cur)
	if err != nil {
		return Event{}, false, err
	}
	logrus.WithFields(logrus.Fields{
		"strategy": p.strategy.Algorithm().String(),
		"nodes":    cur.Len(),
		"records":  len(records),
		"took":     time.Since(start),
	}).Debug("replay: incremental frame")

	data, err := p.mutations(records, cur)
	if err != nil {
		return Event{}, false, err
	}
	p.last, p.prev = &f, cur
	if data.Empty() && !p.opts.KeepEmpty {
		return Event{}, false, nil
	}
	return Event{Type: IncrementalSnapshot, Timestamp: f.Timestamp, Data: data}, true, nil
}

func (p *Processor) id() int64 {
	id := p.nextID
	p.nextID++
	return id
}

func (p *Processor) full(ts time.Time, cur *model.Snapshot) Event {
	p.texts = make(map[model.NodeID]int64)
	body := &Node{Type: NodeElement, TagName: "body"}
	if cur.Len() > 0 {
		body.ChildNodes = []*Node{p.subtree(cur, cur.RootID(), false)}
	}
	css := &Node{Type: NodeText, ID: p.id(), TextContent: stylesheet(cur), IsStyle: true}
	style := &Node{Type: NodeElement, ID: p.id(), TagName: "style", ChildNodes: []*Node{css}}
	head := &Node{Type: NodeElement, ID: p.id(), TagName: "head", ChildNodes: []*Node{style}}
	body.ID = p.id()
	html := &Node{Type: NodeElement, ID: p.id(), TagName: "html", ChildNodes: []*Node{head, body}}
	doc := &Node{Type: NodeDocument, ID: p.id(), ChildNodes: []*Node{html}}
	p.bodyID = body.ID

	logrus.WithField("nodes", cur.Len()).Debug("replay: full snapshot")
	return Event{
		Type:      FullSnapshot,
		Timestamp: ts,
		Data:      &FullSnapshotData{Node: doc},
	}
}

// parent maps a scene parent to the replay document.
func (p *Processor) parent(id model.NodeID) int64 {
	if id == model.Root {
		return p.bodyID
	}
	return int64(id)
}

func next(id *model.NodeID) *int64 {
	if id == nil {
		return nil
	}
	n := int64(*id)
	return &n
}

func (p *Processor) textID(id model.NodeID) int64 {
	t, ok := p.texts[id]
	if !ok {
		t = p.id()
		p.texts[id] = t
	}
	return t
}

// element serializes one scene node without its element children. Inline
// elements carry their color declarations in the style attribute, since
// the stylesheet only covers the full snapshot.
func (p *Processor) element(id model.NodeID, content model.Content, inline bool) *Node {
	attrs := content.Clone().Attributes
	if attrs == nil {
		attrs = make(map[string]string, 1)
	}
	attrs[IDAttribute] = selector(id, content.Attributes)
	if inline {
		if style := inlineStyle(content.Attributes); style != "" {
			attrs[StyleAttribute] = style
		}
	}
	n := &Node{Type: NodeElement, ID: int64(id), TagName: tagName(content.Attributes), Attributes: attrs}
	if content.Text == "" {
		delete(p.texts, id)
		return n
	}
	n.ChildNodes = []*Node{{Type: NodeText, ID: p.textID(id), TextContent: content.Text}}
	return n
}

func (p *Processor) subtree(s *model.Snapshot, id model.NodeID, inline bool) *Node {
	n := p.element(id, s.MustLookup(id).Content, inline)
	for _, c := range s.Children(id) {
		n.ChildNodes = append(n.ChildNodes, p.subtree(s, c, inline))
	}
	return n
}

// under reports whether a strict ancestor of id in s is in roots.
func under(s *model.Snapshot, id model.NodeID, roots map[model.NodeID]bool) bool {
	n, ok := s.Lookup(id)
	for ok {
		if roots[n.ParentID] {
			return true
		}
		n, ok = s.Lookup(n.ParentID)
	}
	return false
}

// relocations collects the kept nodes that change place: moves, and
// attribute records that carry a new parent.
func relocations(records []mutation.Record) (map[model.NodeID]bool, error) {
	roots := make(map[model.NodeID]bool)
	for _, r := range records {
		switch r := r.(type) {
		case *mutation.MoveRecord:
			roots[r.ID] = true
		case *mutation.AttributeRecord:
			_, _, ok, err := r.Reparent()
			if err != nil {
				return nil, err
			}
			if ok {
				roots[r.ID] = true
			}
		}
	}
	return roots, nil
}

// mutations converts records to one mutation event. rrweb has no move, so a
// node that changes place is removed and added again with its current
// subtree; records inside such a subtree are then carried by the add.
func (p *Processor) mutations(records []mutation.Record, cur *model.Snapshot) (*MutationData, error) {
	data := &MutationData{
		Source:     SourceMutation,
		Adds:       []AddMutation{},
		Removes:    []RemoveMutation{},
		Texts:      []TextMutation{},
		Attributes: []AttributeMutation{},
	}
	roots, err := relocations(records)
	if err != nil {
		return nil, err
	}
	// carried reports whether the re-added subtree of a relocated node
	// already holds the current state of id.
	carried := func(id model.NodeID) bool {
		return roots[id] || under(cur, id, roots)
	}
	relocate := func(id, parent model.NodeID, before *model.NodeID) {
		if !under(p.prev, id, roots) {
			old := p.prev.MustLookup(id)
			data.Removes = append(data.Removes, RemoveMutation{ParentID: p.parent(old.ParentID), ID: int64(id)})
		}
		if !under(cur, id, roots) {
			data.Adds = append(data.Adds, AddMutation{
				ParentID: p.parent(parent),
				NextID:   next(before),
				Node:     p.subtree(cur, id, true),
			})
		}
	}

	for _, r := range records {
		switch r := r.(type) {
		case *mutation.AddRecord:
			if carried(r.Node.ID) {
				continue
			}
			data.Adds = append(data.Adds, AddMutation{
				ParentID: p.parent(r.ParentID),
				NextID:   next(r.BeforeID),
				Node:     p.element(r.Node.ID, r.Node.Content, true),
			})
		case *mutation.MoveRecord:
			relocate(r.ID, r.NewParentID, r.BeforeID)
		case *mutation.RemoveRecord:
			if under(p.prev, r.ID, roots) {
				continue
			}
			data.Removes = append(data.Removes, RemoveMutation{ParentID: p.parent(r.ParentID), ID: int64(r.ID)})
		case *mutation.TextRecord:
			if !carried(r.ID) {
				p.text(data, cur, r)
			}
		case *mutation.AttributeRecord:
			if parent, before, ok, _ := r.Reparent(); ok {
				relocate(r.ID, parent, before)
				continue
			}
			if carried(r.ID) {
				continue
			}
			data.Attributes = append(data.Attributes, p.attributes(cur, r))
		}
	}

	for id := range p.texts {
		if !cur.Contains(id) {
			delete(p.texts, id)
		}
	}
	return data, nil
}

// text updates, adds or removes the text child of an element. A new text
// child goes ahead of the element children.
func (p *Processor) text(data *MutationData, cur *model.Snapshot, r *mutation.TextRecord) {
	t, ok := p.texts[r.ID]
	switch {
	case r.Text == "" && ok:
		delete(p.texts, r.ID)
		data.Removes = append(data.Removes, RemoveMutation{ParentID: int64(r.ID), ID: t})
	case r.Text == "":
	case ok:
		data.Texts = append(data.Texts, TextMutation{ID: t, Value: r.Text})
	default:
		var first *int64
		if children := cur.Children(r.ID); len(children) > 0 {
			first = next(&children[0])
		}
		data.Adds = append(data.Adds, AddMutation{
			ParentID: int64(r.ID),
			NextID:   first,
			Node:     &Node{Type: NodeText, ID: p.textID(r.ID), TextContent: r.Text},
		})
	}
}

func (p *Processor) attributes(cur *model.Snapshot, r *mutation.AttributeRecord) AttributeMutation {
	attrs := make(map[string]*string, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		if v == "" {
			attrs[k] = nil
			continue
		}
		v := v
		attrs[k] = &v
	}
	if touchesStyle(r.Attributes) {
		if style := inlineStyle(cur.MustLookup(r.ID).Content.Attributes); style != "" {
			attrs[StyleAttribute] = &style
		} else {
			attrs[StyleAttribute] = nil
		}
	}
	if _, ok := r.Attributes[IDAttribute]; ok {
		sel := selector(r.ID, cur.MustLookup(r.ID).Content.Attributes)
		attrs[IDAttribute] = &sel
	}
	return AttributeMutation{ID: int64(r.ID), Attributes: attrs}
}
