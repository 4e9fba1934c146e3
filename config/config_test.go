package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wavm.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[log]
verbosity = 2

[limits]
max-call-depth = 64
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Verbosity != 2 {
		t.Errorf("expected verbosity 2, got %d", cfg.Log.Verbosity)
	}
	if cfg.Limits.MaxCallDepth != 64 {
		t.Errorf("expected max-call-depth 64, got %d", cfg.Limits.MaxCallDepth)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Limits.MaxCallDepth != Default().Limits.MaxCallDepth {
		t.Errorf("empty file did not keep defaults: %+v", cfg)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "[log]\nverbsity = 1\n")
	if _, err := Load(path); err == nil {
		t.Error("expected unknown-key error")
	}
}

func TestLoadRejectsBadDepth(t *testing.T) {
	path := writeConfig(t, "[limits]\nmax-call-depth = 0\n")
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}
