package replay

import (
	"encoding/json"
	"time"
)

// EventType is the rrweb event type.
type EventType int

const (
	// FullSnapshot carries the whole scene.
	FullSnapshot EventType = 2
	// IncrementalSnapshot carries the mutations since the previous event.
	IncrementalSnapshot EventType = 3
)

// SourceMutation is the incremental source of DOM mutations.
const SourceMutation = 0

// rrweb node types
const (
	NodeDocument = 0
	NodeElement  = 2
	NodeText     = 3
)

// Event is one replay event. Data is *FullSnapshotData or *MutationData.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

type wireEvent struct {
	Type      EventType   `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// MarshalJSON writes the timestamp in milliseconds since the epoch.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{Type: e.Type, Timestamp: e.Timestamp.UnixMilli(), Data: e.Data})
}

// Node is a serialized scene node. Elements carry their text as a leading
// text child; TextContent is only set on text nodes.
type Node struct {
	Type        int               `json:"type"`
	ID          int64             `json:"id"`
	TagName     string            `json:"tagName,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	IsStyle     bool              `json:"isStyle,omitempty"`
	ChildNodes  []*Node           `json:"childNodes,omitempty"`
}

type Offset struct {
	Left int `json:"left"`
	Top  int `json:"top"`
}

type FullSnapshotData struct {
	Node          *Node  `json:"node"`
	InitialOffset Offset `json:"initialOffset"`
}

type AddMutation struct {
	ParentID int64  `json:"parentId"`
	NextID   *int64 `json:"nextId"`
	Node     *Node  `json:"node"`
}

type RemoveMutation struct {
	ParentID int64 `json:"parentId"`
	ID       int64 `json:"id"`
}

type TextMutation struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// AttributeMutation holds new attribute values; nil removes the attribute.
type AttributeMutation struct {
	ID         int64              `json:"id"`
	Attributes map[string]*string `json:"attributes"`
}

type MutationData struct {
	Source     int                 `json:"source"`
	Adds       []AddMutation       `json:"adds"`
	Removes    []RemoveMutation    `json:"removes"`
	Texts      []TextMutation      `json:"texts"`
	Attributes []AttributeMutation `json:"attributes"`
}

// Empty reports whether the mutation carries no change.
func (d *MutationData) Empty() bool {
	return len(d.Adds) == 0 && len(d.Removes) == 0 && len(d.Texts) == 0 &&
		len(d.Attributes) == 0
}

// TagAttribute names the attribute that selects the element tag.
const TagAttribute = "tag"

func tagName(attrs map[string]string) string {
	if tag := attrs[TagAttribute]; tag != "" {
		return tag
	}
	return "div"
}
