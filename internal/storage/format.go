package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Format is a scene file format
type Format string

const (
	FormatJSON     Format = "json"
	FormatIndented Format = "indented"
	FormatFlat     Format = "flat"
)

// DetectFormat picks the format from the file extension. Anything that is
// not .json or .flat is read as indented text.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".flat":
		return FormatFlat
	default:
		return FormatIndented
	}
}

// LoadSnapshot reads a scene file in the format of its extension and
// flattens it.
func LoadSnapshot(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var s *model.Snapshot
	switch DetectFormat(path) {
	case FormatJSON:
		var root *model.View
		if root, err = DecodeJSON(data); err == nil {
			s, err = model.Flatten(root)
		}
	case FormatFlat:
		s, err = DecodeFlat(bytes.NewReader(data))
	default:
		s, err = ParseIndented(string(data))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return s, nil
}

// SaveSnapshot writes s to path in the format of its extension. JSON holds
// a single tree, so s must have exactly one top-level node under Root.
func SaveSnapshot(path string, s *model.Snapshot) error {
	var data []byte
	switch DetectFormat(path) {
	case FormatJSON:
		roots := model.Unflatten(s)
		if len(roots) > 1 {
			return errors.Newf("%s: JSON scenes hold one tree, snapshot has %d", path, len(roots))
		}
		if len(roots) == 1 {
			if parent := s.MustLookup(roots[0].ID).ParentID; parent != model.Root {
				return errors.Newf("%s: JSON scenes cannot reference container %s", path, parent)
			}
		}
		var root *model.View
		if len(roots) == 1 {
			root = roots[0]
		}
		return NewJSONStore(path).Save(root)
	case FormatFlat:
		var buf bytes.Buffer
		if err := EncodeFlat(s, &buf); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		data = []byte(EncodeIndented(s))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
