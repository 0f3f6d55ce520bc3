package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// JSONStore handles JSON scene files
type JSONStore struct {
	FilePath string
}

// NewJSONStore creates a new JSON store for the given file path
func NewJSONStore(filePath string) *JSONStore {
	return &JSONStore{
		FilePath: filePath,
	}
}

// Load loads a scene from a JSON file. A missing file is an empty scene.
func (s *JSONStore) Load() (*model.View, error) {
	data, err := os.ReadFile(s.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", s.FilePath)
	}
	return DecodeJSON(data)
}

// DecodeJSON parses a JSON scene. "null" is the empty scene.
func DecodeJSON(data []byte) (*model.View, error) {
	var root *model.View
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON scene")
	}
	if root != nil {
		restoreChildren(root)
	}
	return root, nil
}

// Save saves a scene to a JSON file
func (s *JSONStore) Save(root *model.View) error {
	// Ensure directory exists
	dir := filepath.Dir(s.FilePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}

	if err := os.WriteFile(s.FilePath, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", s.FilePath)
	}

	return nil
}

// restoreChildren replaces missing child lists after deserialization
func restoreChildren(v *model.View) {
	if v.Children == nil {
		v.Children = make([]*model.View, 0)
	}
	for _, c := range v.Children {
		restoreChildren(c)
	}
}

// FileExists checks if the scene file exists
func (s *JSONStore) FileExists() bool {
	_, err := os.Stat(s.FilePath)
	return err == nil
}
