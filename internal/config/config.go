package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/model"
)

const (
	defaultStrategy   = "move-aware"
	defaultComparator = "exact"
	defaultTimeFormat = "%Y-%m-%d %H:%M:%S"
	defaultTheme      = "default"
)

// Config holds application configuration
type Config struct {
	Strategy    string `toml:"strategy"`
	TrackParent bool   `toml:"track_parent"`
	Comparator  string `toml:"comparator"`
	TimeFormat  string `toml:"time_format"`

	Log  LogConfig  `toml:"log"`
	View ViewConfig `toml:"view"`

	// Session settings (not persisted to TOML, set from the command line)
	sessionSettings map[string]string
}

// LogConfig configures logging.
type LogConfig struct {
	Verbose bool `toml:"verbose"`
	// Dir is the directory of the rotated log file; empty logs to stderr only.
	Dir string `toml:"dir"`
}

// ViewConfig configures the record viewer.
type ViewConfig struct {
	Theme  string            `toml:"theme"`
	Colors map[string]string `toml:"colors"`
}

// Load loads the config file from the standard location
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return defaultConfig(), nil // Return default if can't find config path
	}

	return LoadFromFile(configPath)
}

// LoadFromFile loads config from a specific file
func LoadFromFile(filePath string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := defaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", filePath)
	}
	config.applyDefaults()

	if _, err := diff.ParseAlgorithm(config.Strategy); err != nil {
		return nil, errors.Wrapf(err, "config file %s", filePath)
	}
	if _, err := parseComparator(config.Comparator); err != nil {
		return nil, errors.Wrapf(err, "config file %s", filePath)
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = defaultStrategy
	}
	if c.Comparator == "" {
		c.Comparator = defaultComparator
	}
	if c.TimeFormat == "" {
		c.TimeFormat = defaultTimeFormat
	}
	if c.View.Theme == "" {
		c.View.Theme = defaultTheme
	}
	if c.View.Colors == nil {
		c.View.Colors = make(map[string]string)
	}
	if c.sessionSettings == nil {
		c.sessionSettings = make(map[string]string)
	}
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "scene-diff"), nil
}

// Set sets a session configuration value. Known keys are strategy,
// track_parent, comparator and time_format.
func (c *Config) Set(key, value string) {
	if c.sessionSettings == nil {
		c.sessionSettings = make(map[string]string)
	}
	c.sessionSettings[key] = value
}

// Get retrieves a configuration value, checking session settings first.
// Returns empty string for unknown keys.
func (c *Config) Get(key string) string {
	if val, ok := c.sessionSettings[key]; ok {
		return val
	}

	switch key {
	case "strategy":
		return c.Strategy
	case "track_parent":
		if c.TrackParent {
			return "true"
		}
		return "false"
	case "comparator":
		return c.Comparator
	case "time_format":
		return c.TimeFormat
	case "theme":
		return c.View.Theme
	}
	return ""
}

// GetAll returns the session configuration values
func (c *Config) GetAll() map[string]string {
	result := make(map[string]string, len(c.sessionSettings))
	for k, v := range c.sessionSettings {
		result[k] = v
	}
	return result
}

// Algorithm returns the configured diff algorithm.
func (c *Config) Algorithm() (diff.Algorithm, error) {
	return diff.ParseAlgorithm(c.Get("strategy"))
}

// DiffStrategy returns the configured diff strategy.
func (c *Config) DiffStrategy() (diff.Strategy, error) {
	alg, err := c.Algorithm()
	if err != nil {
		return nil, err
	}
	return diff.New(alg, diff.TrackParent(c.Get("track_parent") == "true"))
}

// NodeComparator returns the configured content comparator.
func (c *Config) NodeComparator() (model.Comparator, error) {
	return parseComparator(c.Get("comparator"))
}

func parseComparator(name string) (model.Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "exact":
		return model.Exact, nil
	case "style", "style-aware":
		return model.StyleAware, nil
	}
	return nil, errors.Newf("unknown comparator %q", name)
}

// Save persists the configuration to the TOML file. Session settings are
// not written.
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return errors.Wrap(err, "failed to get config path")
	}
	return c.SaveToFile(configPath)
}

// SaveToFile persists the configuration to filePath.
func (c *Config) SaveToFile(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}
