package storage

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// frameTimeLayout is the timestamp part of a frame file name
const frameTimeLayout = "20060102_150405.000"

// FrameStore keeps captured frames of a session as JSON scene files named
// YYYYMMDD_HHMMSS.mmm_<session>.json.
type FrameStore struct {
	dir string
}

// NewFrameStore creates a frame store in dir, creating the directory
func NewFrameStore(dir string) (*FrameStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create frame directory %s", dir)
	}
	return &FrameStore{dir: dir}, nil
}

// Dir returns the directory of the store
func (fs *FrameStore) Dir() string {
	return fs.dir
}

// FrameFile holds parsed information about a stored frame
type FrameFile struct {
	FilePath  string    // Full path to frame file
	Timestamp time.Time // Parsed timestamp from filename
	SessionID string
}

// Load reads the scene of the frame
func (f FrameFile) Load() (*model.View, error) {
	return NewJSONStore(f.FilePath).Load()
}

// Write stores root as a frame of session taken at ts
func (fs *FrameStore) Write(root *model.View, ts time.Time, session string) (FrameFile, error) {
	if session == "" || strings.ContainsAny(session, "_/\\") {
		return FrameFile{}, errors.Newf("invalid session id %q", session)
	}
	name := ts.UTC().Format(frameTimeLayout) + "_" + session + ".json"
	f := FrameFile{
		FilePath:  filepath.Join(fs.dir, name),
		Timestamp: ts.UTC().Truncate(time.Millisecond),
		SessionID: session,
	}
	if err := NewJSONStore(f.FilePath).Save(root); err != nil {
		return FrameFile{}, err
	}
	return f, nil
}

// List returns the frames of session (all sessions when empty), sorted
// chronologically
func (fs *FrameStore) List(session string) ([]FrameFile, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frame directory %s", fs.dir)
	}

	var frames []FrameFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		f, err := parseFrameFilename(entry.Name(), filepath.Join(fs.dir, entry.Name()))
		if err != nil {
			continue // Skip files that can't be parsed
		}
		if session != "" && f.SessionID != session {
			continue
		}
		frames = append(frames, f)
	}

	slices.SortStableFunc(frames, func(a, b FrameFile) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return frames, nil
}

// parseFrameFilename extracts metadata from a frame filename
// Expected format: YYYYMMDD_HHMMSS.mmm_<session>.json
func parseFrameFilename(filename, fullPath string) (FrameFile, error) {
	name := strings.TrimSuffix(filename, ".json")
	if len(name) < len(frameTimeLayout)+2 || name[len(frameTimeLayout)] != '_' {
		return FrameFile{}, errors.Newf("not a frame file: %s", filename)
	}
	ts, err := time.Parse(frameTimeLayout, name[:len(frameTimeLayout)])
	if err != nil {
		return FrameFile{}, errors.Wrap(err, "invalid timestamp format")
	}
	return FrameFile{
		FilePath:  fullPath,
		Timestamp: ts,
		SessionID: name[len(frameTimeLayout)+1:],
	}, nil
}
