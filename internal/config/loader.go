package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "termpilot"
	// ConfigFile is the user config file name
	ConfigFile = "config.json"
	// ProjectFile is the per-project config file name, looked up in the working directory
	ProjectFile = ".termpilot.yaml"
	// AuditFile is the default audit database name under ~/.config/termpilot
	AuditFile = "audit.db"
)

// Environment variables consulted after the file layers.
const (
	EnvMode     = "TERMPILOT_MODE"
	EnvModel    = "TERMPILOT_MODEL"
	EnvMaxTurns = "TERMPILOT_MAX_TURNS"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	Getwd() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) Getwd() (string, error) {
	return os.Getwd()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs     FileSystem
	getenv func(string) string
}

// NewLoader creates a production Loader using the real filesystem and environment
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}, getenv: os.Getenv}
}

// NewLoaderWithFS creates a Loader with a custom filesystem and environment (for testing)
func NewLoaderWithFS(fs FileSystem, getenv func(string) string) *Loader {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &Loader{fs: fs, getenv: getenv}
}

// Load builds the configuration from its layers, in order:
// defaults, ~/.config/termpilot/config.json, ./.termpilot.yaml, environment.
// Missing files are skipped. Returns an error for parse errors, permission issues,
// or validation failures.
//
// NOTE: Each file layer is decoded directly over the previous result, so present keys
// overwrite (even with zero values) and missing keys leave earlier values untouched.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if homeDir, err := l.fs.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)
		if err := l.applyFile(userPath, cfg, json.Unmarshal); err != nil {
			return nil, err
		}
		if cfg.Audit.Path == "" {
			cfg.Audit.Path = filepath.Join(homeDir, ".config", ConfigDir, AuditFile)
		}
	}

	if wd, err := l.fs.Getwd(); err == nil {
		projectPath := filepath.Join(wd, ProjectFile)
		if err := l.applyFile(projectPath, cfg, yaml.Unmarshal); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) applyFile(path string, cfg *Config, unmarshal func([]byte, any) error) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	if mode := l.getenv(EnvMode); mode != "" {
		cfg.Policy.Mode = mode
	}
	if model := l.getenv(EnvModel); model != "" {
		cfg.Agent.Model = model
	}
	if raw := l.getenv(EnvMaxTurns); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxTurns, raw, err)
		}
		cfg.Orchestrator.MaxTurns = n
	}
	return nil
}

// Load is a convenience function using the default loader
func Load() (*Config, error) {
	return NewLoader().Load()
}
