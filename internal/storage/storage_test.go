package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScene = `# home screen
1 class=screen "Home"
  2 color=#fff title="Big Title" "Hello, world"
  3
    4 "Body\ntext"
  5 empty=""
6
`

func TestParseIndented(t *testing.T) {
	s, err := ParseIndented(sampleScene)
	require.NoError(t, err)
	require.Equal(t, 6, s.Len())

	parents := map[model.NodeID]model.NodeID{1: model.Root, 2: 1, 3: 1, 4: 3, 5: 1, 6: model.Root}
	for id, parent := range parents {
		n, ok := s.Lookup(id)
		require.True(t, ok, "node %d", id)
		assert.Equal(t, parent, n.ParentID, "parent of %d", id)
	}

	two := s.MustLookup(2)
	assert.Equal(t, "Hello, world", two.Content.Text)
	assert.Equal(t, map[string]string{"color": "#fff", "title": "Big Title"}, two.Content.Attributes)
	assert.Equal(t, "Body\ntext", s.MustLookup(4).Content.Text)
	assert.Empty(t, s.MustLookup(5).Content.Attributes, "empty values are absent")
	assert.Equal(t, []model.NodeID{2, 3, 5}, s.Children(1))
}

func TestParseIndentedContainer(t *testing.T) {
	s, err := ParseIndented("7 ^100 \"x\"\n  8\n")
	require.NoError(t, err)
	assert.Equal(t, model.NodeID(100), s.MustLookup(7).ParentID)
	assert.Equal(t, model.NodeID(7), s.MustLookup(8).ParentID)

	_, err = ParseIndented("7\n  8 ^100\n")
	require.Error(t, err)
}

func TestParseIndentedErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad id", "x \"a\"\n"},
		{"zero id", "0\n"},
		{"unterminated quote", "1 \"abc\n"},
		{"bare word", "1 hello\n"},
		{"duplicate id", "1\n  1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIndented(tt.content)
			assert.Error(t, err)
		})
	}
}

func TestIndentedRoundTrip(t *testing.T) {
	s, err := ParseIndented(sampleScene)
	require.NoError(t, err)

	encoded := EncodeIndented(s)
	again, err := ParseIndented(encoded)
	require.NoError(t, err)
	require.Equal(t, encoded, EncodeIndented(again))
	require.Equal(t, s.Len(), again.Len())
	for i, n := range s.Nodes() {
		m := again.At(i)
		assert.Equal(t, n.ID, m.ID)
		assert.Equal(t, n.ParentID, m.ParentID)
		assert.False(t, n.HasChanged(m), "node %s", n.ID)
	}
	assert.True(t, strings.HasPrefix(encoded, "1 class=screen \"Home\"\n  2 color=#fff title=\"Big Title\""))
}

func TestIndentedControlCharacters(t *testing.T) {
	attrs := map[string]string{
		"label": "two\nlines",
		"tab":   "a\tb",
		"cr":    "x\r",
		"bell":  "\a",
		"nbsp":  "a\u00a0b",
		"plain": "héllo",
	}
	s, err := model.NewSnapshot(model.NewNode(1, model.Root, model.Content{Attributes: attrs}))
	require.NoError(t, err)

	encoded := EncodeIndented(s)
	assert.Equal(t, 1, strings.Count(encoded, "\n"), encoded)
	assert.Contains(t, encoded, `label="two\nlines"`)
	assert.Contains(t, encoded, `nbsp="a\u00a0b"`)
	assert.Contains(t, encoded, " plain=héllo")

	again, err := ParseIndented(encoded)
	require.NoError(t, err)
	require.Equal(t, 1, again.Len())
	assert.Equal(t, attrs, again.At(0).Content.Attributes)
}

func TestFlatRoundTrip(t *testing.T) {
	// Child before parent, and a parent outside the scene.
	s, err := model.NewSnapshot(
		model.NewNode(1, 10, model.Content{Text: "line one\nline two", Attributes: map[string]string{"k,1": "a=b", "path": `c:\dir`}}),
		model.NewNode(10, 99, model.Content{}),
		model.NewNode(20, model.Root, model.Content{Text: "id: 20"}),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeFlat(s, &buf))
	assert.Contains(t, buf.String(), "[STRUCTURE SECTION]\n1: 10:0\n10: 99:1\n20: 0:2\n")

	again, err := DecodeFlat(&buf)
	require.NoError(t, err)
	require.Equal(t, 3, again.Len())
	for i, n := range s.Nodes() {
		m := again.At(i)
		assert.Equal(t, n.ID, m.ID)
		assert.Equal(t, n.ParentID, m.ParentID)
		assert.Equal(t, n.Content, m.Content)
	}
}

func TestDecodeFlatErrors(t *testing.T) {
	_, err := DecodeFlat(strings.NewReader("1: 0:0\n"))
	assert.Error(t, err, "line outside a section")

	_, err = DecodeFlat(strings.NewReader("[STRUCTURE SECTION]\n1: 0\n"))
	assert.Error(t, err, "missing position")

	_, err = DecodeFlat(strings.NewReader("[STRUCTURE SECTION]\n1: 0:0\n1: 0:1\n"))
	assert.True(t, model.IsContractViolation(err))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat("a/b.JSON"))
	assert.Equal(t, FormatFlat, DetectFormat("scene.flat"))
	assert.Equal(t, FormatIndented, DetectFormat("scene.txt"))
	assert.Equal(t, FormatIndented, DetectFormat("scene"))
}

func TestJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scene.json")
	store := NewJSONStore(path)
	assert.False(t, store.FileExists())

	root, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, root)

	view := model.NewView(1, "Home", map[string]string{"class": "screen"})
	view.AddChild(model.NewView(2, "Title", nil))
	require.NoError(t, store.Save(view))
	assert.True(t, store.FileExists())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.Count())
	assert.Equal(t, "Title", loaded.Find(2).Text)
	assert.NotNil(t, loaded.Find(2).Children)
}

func TestSnapshotFiles(t *testing.T) {
	s, err := ParseIndented(sampleScene)
	require.NoError(t, err)
	dir := t.TempDir()

	for _, name := range []string{"scene.txt", "scene.flat"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveSnapshot(path, s), name)
		loaded, err := LoadSnapshot(path)
		require.NoError(t, err, name)
		assert.Equal(t, EncodeIndented(s), EncodeIndented(loaded), name)
	}

	// Two top-level trees do not fit a JSON scene.
	require.Error(t, SaveSnapshot(filepath.Join(dir, "scene.json"), s))

	one, err := ParseIndented("1 \"a\"\n  2 \"b\"\n")
	require.NoError(t, err)
	path := filepath.Join(dir, "one.json")
	require.NoError(t, SaveSnapshot(path, one))
	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, EncodeIndented(one), EncodeIndented(loaded))

	_, err = LoadSnapshot(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestFrameStore(t *testing.T) {
	fs, err := NewFrameStore(filepath.Join(t.TempDir(), "frames"))
	require.NoError(t, err)

	base := time.Date(2025, 11, 3, 15, 4, 5, 0, time.UTC)
	_, err = fs.Write(model.NewView(1, "second", nil), base.Add(1500*time.Millisecond), "abc")
	require.NoError(t, err)
	first, err := fs.Write(model.NewView(1, "first", nil), base, "abc")
	require.NoError(t, err)
	_, err = fs.Write(model.NewView(1, "other", nil), base.Add(time.Second), "zzz")
	require.NoError(t, err)
	assert.Equal(t, "20251103_150405.000_abc.json", filepath.Base(first.FilePath))

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(fs.Dir(), "notes.json"), []byte("{}"), 0o644))

	_, err = fs.Write(model.NewView(1, "", nil), base, "bad_id")
	require.Error(t, err)

	frames, err := fs.List("abc")
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.True(t, base.Equal(frames[0].Timestamp), "got %v", frames[0].Timestamp)
	assert.True(t, base.Add(1500*time.Millisecond).Equal(frames[1].Timestamp), "got %v", frames[1].Timestamp)

	view, err := frames[1].Load()
	require.NoError(t, err)
	assert.Equal(t, "second", view.Text)

	all, err := fs.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "zzz", all[1].SessionID)
}
