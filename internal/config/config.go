package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither flags nor files set a value.
const (
	DefaultFailOn      = "high"
	DefaultDiffKey     = "match"
	DefaultFormat      = "table"
	DefaultStoreDriver = "file"
	DefaultStorePath   = ".gitzen/documents"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultWorkers     = 4
)

// FileConfig is the on-disk YAML configuration shape for gitzen.
type FileConfig struct {
	FailOn       *string `yaml:"fail_on,omitempty"`
	DiffKey      *string `yaml:"diff_key,omitempty"`
	Format       *string `yaml:"format,omitempty"`
	NoColor      *bool   `yaml:"no_color,omitempty"`
	Suppressions *string `yaml:"suppressions,omitempty"`
	Workers      *int    `yaml:"workers,omitempty"`
	Audit        *bool   `yaml:"audit,omitempty"`

	Store    *StoreConfig    `yaml:"store,omitempty"`
	Log      *LogConfig      `yaml:"log,omitempty"`
	Gitleaks *GitleaksConfig `yaml:"gitleaks,omitempty"`
	Upload   *UploadConfig   `yaml:"upload,omitempty"`
}

// StoreConfig selects where documents are kept between runs.
type StoreConfig struct {
	// Driver is "file" or "sqlite".
	Driver *string `yaml:"driver,omitempty"`
	// Path is a directory (file) or database file (sqlite).
	Path *string `yaml:"path,omitempty"`
}

type LogConfig struct {
	Level  *string `yaml:"level,omitempty"`
	Format *string `yaml:"format,omitempty"`
}

// GitleaksConfig holds configuration for running gitleaks.
type GitleaksConfig struct {
	// ConfigPath is the path to a .gitleaks.toml; empty uses gitleaks' rules.
	ConfigPath *string `yaml:"config,omitempty"`
	// BinaryPath is an explicit path to the gitleaks binary. If empty, the
	// binary is searched in $PATH and ~/.gitzen/bin.
	BinaryPath *string `yaml:"binary,omitempty"`
	// Version is the oldest gitleaks release scan accepts, within the same
	// major version.
	Version *string `yaml:"version,omitempty"`
}

// UploadConfig points at the dashboard ingestion endpoint.
type UploadConfig struct {
	URL *string `yaml:"url,omitempty"`
	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv *string `yaml:"token_env,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LocalNames is the search order for repository-local config files.
var LocalNames = []string{".gitzen.yml", ".gitzen.yaml", "gitzen.yml", "gitzen.yaml"}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "gitzen", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// The accessors below are nil-safe so callers can pass nested values
// straight into precedence helpers.

func (fc FileConfig) StoreDriver() *string {
	if fc.Store == nil {
		return nil
	}
	return fc.Store.Driver
}

func (fc FileConfig) StorePath() *string {
	if fc.Store == nil {
		return nil
	}
	return fc.Store.Path
}

func (fc FileConfig) LogLevel() *string {
	if fc.Log == nil {
		return nil
	}
	return fc.Log.Level
}

func (fc FileConfig) LogFormat() *string {
	if fc.Log == nil {
		return nil
	}
	return fc.Log.Format
}

func (fc FileConfig) GitleaksBinary() *string {
	if fc.Gitleaks == nil {
		return nil
	}
	return fc.Gitleaks.BinaryPath
}

func (fc FileConfig) GitleaksConfigPath() *string {
	if fc.Gitleaks == nil {
		return nil
	}
	return fc.Gitleaks.ConfigPath
}

func (fc FileConfig) GitleaksVersion() *string {
	if fc.Gitleaks == nil {
		return nil
	}
	return fc.Gitleaks.Version
}

func (fc FileConfig) UploadURL() *string {
	if fc.Upload == nil {
		return nil
	}
	return fc.Upload.URL
}

// UploadTokenEnv defaults to GITZEN_TOKEN.
func (fc FileConfig) UploadTokenEnv() string {
	if fc.Upload == nil || fc.Upload.TokenEnv == nil || *fc.Upload.TokenEnv == "" {
		return "GITZEN_TOKEN"
	}
	return *fc.Upload.TokenEnv
}

// Or returns *p, or def when p is nil or empty.
func Or(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
