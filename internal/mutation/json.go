package mutation

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// wireRecord is the JSON form shared by all record kinds. Add records carry
// the node's text and attributes inline.
type wireRecord struct {
	Type       string            `json:"type"`
	ID         model.NodeID      `json:"id"`
	ParentID   *model.NodeID     `json:"parentId,omitempty"`
	BeforeID   *model.NodeID     `json:"beforeId,omitempty"`
	Text       *string           `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (r *AddRecord) MarshalJSON() ([]byte, error) {
	parent := r.ParentID
	w := wireRecord{
		Type:       KindAdd.String(),
		ID:         r.Node.ID,
		ParentID:   &parent,
		BeforeID:   r.BeforeID,
		Attributes: r.Node.Content.Attributes,
	}
	if r.Node.Content.Text != "" {
		text := r.Node.Content.Text
		w.Text = &text
	}
	return json.Marshal(w)
}

func (r *RemoveRecord) MarshalJSON() ([]byte, error) {
	parent := r.ParentID
	return json.Marshal(wireRecord{Type: KindRemove.String(), ID: r.ID, ParentID: &parent})
}

func (r *AttributeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{Type: KindAttributes.String(), ID: r.ID, Attributes: r.Attributes})
}

func (r *TextRecord) MarshalJSON() ([]byte, error) {
	text := r.Text
	return json.Marshal(wireRecord{Type: KindText.String(), ID: r.ID, Text: &text})
}

func (r *MoveRecord) MarshalJSON() ([]byte, error) {
	parent := r.NewParentID
	return json.Marshal(wireRecord{Type: KindMove.String(), ID: r.ID, ParentID: &parent, BeforeID: r.BeforeID})
}

// UnmarshalRecord decodes one record. Decoded add records carry nodes with
// the default comparator.
func UnmarshalRecord(data []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "decoding record")
	}
	parent := model.Root
	if w.ParentID != nil {
		parent = *w.ParentID
	}
	switch w.Type {
	case KindAdd.String():
		var text string
		if w.Text != nil {
			text = *w.Text
		}
		node := model.NewNode(w.ID, parent, model.Content{Text: text, Attributes: w.Attributes})
		return &AddRecord{ParentID: parent, BeforeID: w.BeforeID, Node: node}, nil
	case KindRemove.String():
		return &RemoveRecord{ParentID: parent, ID: w.ID}, nil
	case KindAttributes.String():
		if w.Attributes == nil {
			w.Attributes = map[string]string{}
		}
		return &AttributeRecord{ID: w.ID, Attributes: w.Attributes}, nil
	case KindText.String():
		if w.Text == nil {
			return nil, errors.Newf("text record %s without text", w.ID)
		}
		return &TextRecord{ID: w.ID, Text: *w.Text}, nil
	case KindMove.String():
		return &MoveRecord{ID: w.ID, NewParentID: parent, BeforeID: w.BeforeID}, nil
	}
	return nil, errors.Newf("unknown record type %q", w.Type)
}

// Records is a record batch that encodes as a JSON array.
type Records []Record

func (rs Records) MarshalJSON() ([]byte, error) {
	if rs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Record(rs))
}

func (rs *Records) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding records")
	}
	out := make(Records, 0, len(raw))
	for i, msg := range raw {
		r, err := UnmarshalRecord(msg)
		if err != nil {
			return errors.Wrapf(err, "record %d", i)
		}
		out = append(out, r)
	}
	*rs = out
	return nil
}
