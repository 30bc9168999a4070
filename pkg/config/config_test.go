package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.vibemonitor.dev" {
		t.Errorf("unexpected default base url: %q", cfg.API.BaseURL)
	}
	if cfg.Auth.Store != "file" {
		t.Errorf("unexpected default auth store: %q", cfg.Auth.Store)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("api:\n  base_url: https://staging.vibemonitor.dev\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VIBEMONITOR_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.API.BaseURL != "https://staging.vibemonitor.dev" {
		t.Errorf("file value not applied: %q", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("file log level not applied: %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("env override not applied: %q", cfg.Log.Format)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	want := &Config{}
	want.API.BaseURL = "http://localhost:8000"
	want.API.WorkspaceID = "ws-1"
	want.Auth.Store = "sqlite"
	want.Auth.Path = filepath.Join(dir, "tokens.db")
	want.Log.Level = "warn"
	want.Log.Format = "json"

	if err := Write(path, want); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.API.BaseURL != want.API.BaseURL || got.API.WorkspaceID != want.API.WorkspaceID {
		t.Errorf("api section mismatch: %+v", got.API)
	}
	if got.Auth.Store != "sqlite" || got.Auth.Path != want.Auth.Path {
		t.Errorf("auth section mismatch: %+v", got.Auth)
	}
}
