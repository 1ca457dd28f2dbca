// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration schema, defaults, load and save.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yaredbooks/kidus-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete kidus-tui configuration.
type Config struct {
	// API configuration
	API APIConfig `toml:"api" json:"api"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// History configuration
	History HistoryConfig `toml:"history" json:"history"`

	// Analytics configuration
	Analytics AnalyticsConfig `toml:"analytics" json:"analytics"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains chat gateway configuration.
type APIConfig struct {
	// URL is the base URL of the Kidus Yared service
	URL string `toml:"url" json:"url"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// UserID identifies this client to the backend
	UserID string `toml:"user_id" json:"user_id"`
	// ChannelType tags requests with their origin surface
	ChannelType string `toml:"channel_type" json:"channel_type"`
}

// StorageConfig contains local persistence configuration.
type StorageConfig struct {
	// DataDir is where conversation state lives (empty = ~/.kidus/state)
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// HistoryConfig contains conversation store tuning.
type HistoryConfig struct {
	// FlushDebounceMs is the write-coalescing window in milliseconds
	FlushDebounceMs int `toml:"flush_debounce_ms" json:"flush_debounce_ms"`
	// SweepIntervalSecs is the integrity sweep period in seconds
	SweepIntervalSecs int `toml:"sweep_interval_secs" json:"sweep_interval_secs"`
}

// AnalyticsConfig contains usage recording configuration.
type AnalyticsConfig struct {
	// Enabled turns the usage recorder on. Off by default.
	Enabled bool `toml:"enabled" json:"enabled"`
	// FlushIntervalSecs is how often spooled events are shipped
	FlushIntervalSecs int `toml:"flush_interval_secs" json:"flush_interval_secs"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// SidebarWidth is the conversation sidebar width in columns
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
	// CompactMode uses a more compact layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:         "http://localhost:8080",
			TimeoutSecs: 30,
			UserID:      "tui_user",
			ChannelType: "tui",
		},
		Storage: StorageConfig{
			DataDir: "",
		},
		History: HistoryConfig{
			FlushDebounceMs:   500,
			SweepIntervalSecs: 30,
		},
		Analytics: AnalyticsConfig{
			Enabled:           false,
			FlushIntervalSecs: 60,
		},
		UI: UIConfig{
			Theme:        "dark",
			SidebarWidth: 30,
			CompactMode:  false,
		},
	}
}

// RequestTimeout returns the API timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// FlushDebounce returns the history flush window as a duration.
func (c *Config) FlushDebounce() time.Duration {
	return time.Duration(c.History.FlushDebounceMs) * time.Millisecond
}

// SweepInterval returns the integrity sweep period as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.History.SweepIntervalSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the kidus-tui configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kidus"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The file format is chosen by extension; anything that is not
// .json is decoded as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# kidus-tui configuration file")
	fmt.Fprintln(file, "# Generated by kidus-tui - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.URL != "" {
		if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" {
			errs = append(errs, ValidationError{
				Field:   "api.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.API.URL),
			})
		}
	}

	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be 1-300 seconds, got %d", c.API.TimeoutSecs),
		})
	}

	if c.History.FlushDebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.flush_debounce_ms",
			Message: "must be non-negative",
		})
	}

	if c.History.SweepIntervalSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "history.sweep_interval_secs",
			Message: "must be at least 1 second",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.SidebarWidth < 10 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{
			Field:   "ui.sidebar_width",
			Message: fmt.Sprintf("must be 10-80 columns, got %d", c.UI.SidebarWidth),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.API.URL == "" {
		c.API.URL = defaults.API.URL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.API.UserID == "" {
		c.API.UserID = defaults.API.UserID
	}
	if c.API.ChannelType == "" {
		c.API.ChannelType = defaults.API.ChannelType
	}
	if c.History.FlushDebounceMs == 0 {
		c.History.FlushDebounceMs = defaults.History.FlushDebounceMs
	}
	if c.History.SweepIntervalSecs == 0 {
		c.History.SweepIntervalSecs = defaults.History.SweepIntervalSecs
	}
	if c.Analytics.FlushIntervalSecs == 0 {
		c.Analytics.FlushIntervalSecs = defaults.Analytics.FlushIntervalSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - KIDUS_API_URL: overrides api.url
//   - KIDUS_TIMEOUT_SECS: overrides api.timeout_secs
//   - KIDUS_USER_ID: overrides api.user_id
//   - KIDUS_DATA_DIR: overrides storage.data_dir
//   - KIDUS_ANALYTICS: set to "1" or "true" to enable analytics
//   - KIDUS_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KIDUS_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("KIDUS_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("KIDUS_USER_ID"); v != "" {
		c.API.UserID = v
	}
	if v := os.Getenv("KIDUS_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("KIDUS_ANALYTICS"); v != "" {
		c.Analytics.Enabled = v == "1" || strings.ToLower(v) == "true"
	}
	if v := os.Getenv("KIDUS_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// Clone creates a deep copy of the configuration. All fields are value
// types, so a struct copy suffices; kept as a method so callers do not
// depend on that detail.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
