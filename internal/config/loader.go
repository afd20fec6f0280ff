package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultJobsDataPath is used when neither the config file nor
// $JOBS_DATA_PATH name a history root.
const DefaultJobsDataPath = "data/jobs"

// defaultFileNames are tried in order by LoadDefault.
var defaultFileNames = []string{"jobrun.yaml", "jobrun.yml", "jobrun.json"}

// Loader handles loading configuration files.
type Loader struct {
	configDir string
}

// NewLoader creates a new config loader.
func NewLoader(configDir string) *Loader {
	return &Loader{configDir: configDir}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		JobsDataPath: ExpandEnvVars("${JOBS_DATA_PATH:-" + DefaultJobsDataPath + "}"),
		LogLevel:     "info",
	}
}

// LoadFile loads a configuration from a specific file path. Files ending in
// .yaml or .yml are parsed as YAML, anything else as JSON. Environment
// variables are expanded before parsing; ${VAR} and ${VAR:-default} are
// supported. Fields left empty take their defaults.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = ExpandEnvVarsBytes(data)

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	def := Default()
	if cfg.JobsDataPath == "" {
		cfg.JobsDataPath = def.JobsDataPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	return &cfg, nil
}

// LoadDefault loads the first of jobrun.yaml, jobrun.yml or jobrun.json in
// the config directory, or returns Default() when none exists.
func (l *Loader) LoadDefault() (*Config, error) {
	for _, name := range defaultFileNames {
		path := filepath.Join(l.configDir, name)
		cfg, err := l.LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return Default(), nil
}

// LoadAndValidate loads path, or the default file when path is empty, and
// validates the result.
func (l *Loader) LoadAndValidate(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = l.LoadDefault()
	} else {
		cfg, err = l.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		source := path
		if source == "" {
			source = "default config"
		}
		return nil, fmt.Errorf("config validation failed for %s:\n%w", source, err)
	}

	return cfg, nil
}
