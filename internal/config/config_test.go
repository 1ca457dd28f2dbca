// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.API.URL == "" {
		t.Error("default API URL should be set")
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", cfg.RequestTimeout())
	}
	if cfg.FlushDebounce() != 500*time.Millisecond {
		t.Errorf("default flush debounce = %v, want 500ms", cfg.FlushDebounce())
	}
	if cfg.Analytics.Enabled {
		t.Error("analytics should be off by default")
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.API.URL = "https://api.yaredbooks.example"
	cfg.API.TimeoutSecs = 45
	cfg.UI.Theme = "light"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.API.URL != cfg.API.URL {
		t.Errorf("URL = %q, want %q", loaded.API.URL, cfg.API.URL)
	}
	if loaded.API.TimeoutSecs != 45 {
		t.Errorf("TimeoutSecs = %d, want 45", loaded.API.TimeoutSecs)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light", loaded.UI.Theme)
	}
}

func TestJSONLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	blob := `{"api":{"url":"http://127.0.0.1:9090","timeout_secs":10}}`
	if err := os.WriteFile(path, []byte(blob), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.API.URL != "http://127.0.0.1:9090" {
		t.Errorf("URL = %q", loaded.API.URL)
	}
	// Missing sections keep their defaults.
	if loaded.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want default dark", loaded.UI.Theme)
	}
}

func TestPartialTOMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	blob := "[api]\nurl = \"http://example.test\"\n"
	if err := os.WriteFile(path, []byte(blob), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.API.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want default 30", loaded.API.TimeoutSecs)
	}
	if loaded.History.FlushDebounceMs != 500 {
		t.Errorf("FlushDebounceMs = %d, want default 500", loaded.History.FlushDebounceMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KIDUS_API_URL", "http://override.test")
	t.Setenv("KIDUS_TIMEOUT_SECS", "15")
	t.Setenv("KIDUS_ANALYTICS", "true")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.URL != "http://override.test" {
		t.Errorf("URL = %q", cfg.API.URL)
	}
	if cfg.API.TimeoutSecs != 15 {
		t.Errorf("TimeoutSecs = %d, want 15", cfg.API.TimeoutSecs)
	}
	if !cfg.Analytics.Enabled {
		t.Error("analytics should be enabled via env")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad URL", func(c *Config) { c.API.URL = "not a url at all\n" }},
		{"zero timeout", func(c *Config) { c.API.TimeoutSecs = 0 }},
		{"huge timeout", func(c *Config) { c.API.TimeoutSecs = 9999 }},
		{"bad theme", func(c *Config) { c.UI.Theme = "sepia" }},
		{"tiny sidebar", func(c *Config) { c.UI.SidebarWidth = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCorruptTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("this is { not toml ["), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected decode error for corrupt TOML")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, 50*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := Default()
	cfg.UI.Theme = "light"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloaded:
		if got.UI.Theme != "light" {
			t.Errorf("reloaded theme = %q, want light", got.UI.Theme)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not deliver reloaded config")
	}
}
