package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorString(t *testing.T) {
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), ParseColorString("#ff0000"))
	assert.Equal(t, tcell.NewRGBColor(255, 255, 255), ParseColorString("#fff"))
	assert.Equal(t, tcell.NewRGBColor(1, 2, 3), ParseColorString("rgb(1, 2, 3)"))
	assert.Equal(t, tcell.ColorDefault, ParseColorString("blue"))
}

func TestApply(t *testing.T) {
	th := Default()
	th.Apply(map[string]string{"add": "#00ff00", "unknown": "#123456", "remove": "nope"})
	assert.Equal(t, tcell.NewRGBColor(0, 255, 0), th.Colors.Added)
	assert.Equal(t, tcell.ColorRed, th.Colors.Removed)
}

func TestLoadThemeFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mine.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = \"mine\"\n[colors]\nmove = \"#010203\"\n"), 0644))

	found, err := findThemeFile("mine", []string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)
	require.Equal(t, path, found)

	th, err := LoadThemeFromFile(found)
	require.NoError(t, err)
	assert.Equal(t, "mine", th.Name)
	assert.Equal(t, tcell.NewRGBColor(1, 2, 3), th.Colors.Moved)
	assert.Equal(t, TokyoNight().Colors.Added, th.Colors.Added)

	_, err = findThemeFile("other", []string{dir})
	require.Error(t, err)
}

func TestLoadThemeOrDefault(t *testing.T) {
	assert.Equal(t, "default", LoadThemeOrDefault("default").Name)
	assert.Equal(t, "tokyo-night", LoadThemeOrDefault("tokyo-night").Name)
	assert.Equal(t, "tokyo-night", LoadThemeOrDefault("does-not-exist-anywhere").Name)
}
