// Package config loads the optional jitview configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents configuration for the jitview tool
type Config struct {
	Debug   bool   `yaml:"debug" json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	Color   string `yaml:"color" json:"color" jsonschema:"title=Color,description=When to colorize listings,enum=auto,enum=always,enum=never,default=auto"`
	LogFile string `yaml:"log_file" json:"log_file" jsonschema:"title=Log File,description=Append diagnostics to this file instead of stderr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Color: ColorAuto}
}

// DefaultPath is the config file looked up when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jitview", "config.yaml")
}

// Load reads path over the defaults. An empty path tries DefaultPath and
// silently falls back to the defaults when that file does not exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Color == "" {
		cfg.Color = ColorAuto
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	}
	return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
}

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}
