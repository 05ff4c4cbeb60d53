package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "gitzen.yaml", `fail_on: critical
workers: 8
store:
  driver: sqlite
  path: .gitzen/gitzen.db
log:
  format: json
gitleaks:
  binary: /opt/gitleaks
upload:
  url: https://dash.example/api/scans
`)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.FailOn == nil || *cfg.FailOn != "critical" {
		t.Fatalf("expected fail_on=critical, got %#v", cfg.FailOn)
	}
	if cfg.Workers == nil || *cfg.Workers != 8 {
		t.Fatalf("expected workers=8, got %#v", cfg.Workers)
	}
	if got := Or(cfg.StoreDriver(), DefaultStoreDriver); got != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", got)
	}
	if got := Or(cfg.LogFormat(), DefaultLogFormat); got != "json" {
		t.Fatalf("expected json log format, got %q", got)
	}
	if got := Or(cfg.LogLevel(), DefaultLogLevel); got != DefaultLogLevel {
		t.Fatalf("expected default log level, got %q", got)
	}
	if got := Or(cfg.GitleaksBinary(), ""); got != "/opt/gitleaks" {
		t.Fatalf("expected gitleaks binary, got %q", got)
	}
	if got := Or(cfg.UploadURL(), ""); got != "https://dash.example/api/scans" {
		t.Fatalf("expected upload url, got %q", got)
	}
	if got := cfg.UploadTokenEnv(); got != "GITZEN_TOKEN" {
		t.Fatalf("expected default token env, got %q", got)
	}
}

func TestAccessors_NilSections(t *testing.T) {
	var cfg FileConfig
	if cfg.StoreDriver() != nil || cfg.StorePath() != nil || cfg.LogLevel() != nil ||
		cfg.GitleaksConfigPath() != nil || cfg.UploadURL() != nil {
		t.Fatal("expected nil accessors on empty config")
	}
	if got := Or(cfg.StorePath(), DefaultStorePath); got != DefaultStorePath {
		t.Fatalf("expected default store path, got %q", got)
	}
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "gitzen.yaml", "fail_on: low\n")
	writeTemp(t, dir, ".gitzen.yaml", "fail_on: medium\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.FailOn == nil || *cfg.FailOn != "medium" {
		t.Fatalf("expected fail_on=medium from .gitzen.yaml, got %#v", cfg.FailOn)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "gitzen")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemp(t, cfgDir, "config.yml", "diff_key: finding_id\n")
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.DiffKey == nil || *cfg.DiffKey != "finding_id" {
		t.Fatalf("expected diff_key=finding_id from global config, got %#v", cfg.DiffKey)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}
