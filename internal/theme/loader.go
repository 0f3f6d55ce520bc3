package theme

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// ThemeConfig represents the raw TOML theme configuration
type ThemeConfig struct {
	Name   string            `toml:"name"`
	Colors map[string]string `toml:"colors"`
}

// getThemePaths returns the search paths for theme files
func getThemePaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "scene-diff", "themes"),
		filepath.Join(home, ".local", "share", "scene-diff", "themes"),
	}
}

// findThemeFile searches for a theme file in dirs
func findThemeFile(themeName string, dirs []string) (string, error) {
	filename := themeName + ".toml"

	for _, dir := range dirs {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", errors.Newf("theme file not found: %s", filename)
}

// LoadThemeFromFile loads a theme from a TOML file. Colors missing from the
// file come from Tokyo Night.
func LoadThemeFromFile(filePath string) (*Theme, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read theme file")
	}

	var config ThemeConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse theme file %s", filePath)
	}

	t := TokyoNight()
	t.Apply(config.Colors)
	if config.Name != "" {
		t.Name = config.Name
	}
	return t, nil
}

// LoadTheme loads a theme by name, searching standard theme directories
func LoadTheme(themeName string) (*Theme, error) {
	filePath, err := findThemeFile(themeName, getThemePaths())
	if err != nil {
		return nil, err
	}

	return LoadThemeFromFile(filePath)
}

// LoadThemeOrDefault loads a theme by name. "default" and "tokyo-night" are
// built in; an unknown name falls back to Tokyo Night.
func LoadThemeOrDefault(themeName string) *Theme {
	switch themeName {
	case "", "default":
		return Default()
	case "tokyo-night":
		return TokyoNight()
	}

	theme, err := LoadTheme(themeName)
	if err != nil {
		return TokyoNight()
	}

	return theme
}
