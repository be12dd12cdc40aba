// Package config reads the libload configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/snowmerak/libload/lib/linker"
	"github.com/snowmerak/libload/lib/manifest"
)

// Environment variables that override the file.
const (
	EnvConfigPath = "LIBLOAD_CONFIG"
	EnvUseLinker  = "LIBLOAD_USE_LINKER"
	EnvLinkerDir  = "LIBLOAD_LINKER_DIR"
)

// DefaultPath is used when neither a flag nor LIBLOAD_CONFIG names a file.
const DefaultPath = "libload.yaml"

// MaxFileSize bounds the configuration file.
const MaxFileSize = 1 << 20

// Config is the on-disk configuration.
type Config struct {
	Version     string       `yaml:"version"`
	Libraries   []string     `yaml:"libraries"`
	SearchPaths []string     `yaml:"search_paths"`
	Bridge      BridgeConfig `yaml:"bridge"`
	Linker      LinkerConfig `yaml:"linker"`
}

// BridgeConfig names the library that exports the startup hooks.
type BridgeConfig struct {
	// Library defaults to the last library of the set.
	Library      string `yaml:"library"`
	SymbolPrefix string `yaml:"symbol_prefix"`
}

// LinkerConfig selects the fixed-location linker.
type LinkerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// ResolvePath picks the configuration file: flag value, then LIBLOAD_CONFIG,
// then DefaultPath.
func ResolvePath(flagValue string, getenv func(string) string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the file at path and applies environment overrides.
func Load(path string, getenv func(string) string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data, getenv)
}

// Parse decodes YAML data and applies environment overrides.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	if getenv != nil {
		cfg.applyEnv(getenv)
	}

	if cfg.Bridge.Library == "" && len(cfg.Libraries) > 0 {
		cfg.Bridge.Library = cfg.Libraries[len(cfg.Libraries)-1]
	}
	if cfg.Linker.Enabled && cfg.Linker.Dir == "" {
		return nil, fmt.Errorf("linker enabled without linker.dir")
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	switch strings.ToLower(getenv(EnvUseLinker)) {
	case "true", "1":
		c.Linker.Enabled = true
	case "false", "0":
		c.Linker.Enabled = false
	}
	if dir := getenv(EnvLinkerDir); dir != "" {
		c.Linker.Dir = dir
	}
}

// Manifest builds and validates the library manifest.
func (c *Config) Manifest() (manifest.Manifest, error) {
	m := manifest.New(c.Version, c.Libraries...)
	if err := m.Validate(); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

// LinkerConfig converts the linker section.
func (c *Config) LinkerConfig() linker.Config {
	return linker.Config{Enabled: c.Linker.Enabled, Dir: c.Linker.Dir}
}
