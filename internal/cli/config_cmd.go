// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command.
//
// Handles "kidus config" subcommands: show, set, path, reset. Keys use dot
// notation matching the TOML layout, e.g. api.url or ui.theme.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/yaredbooks/kidus-tui/internal/config"
)

// HandleConfig dispatches a config subcommand.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args.JSON)

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return fmt.Errorf("usage: kidus config set <key> <value>")
		}
		return handleConfigSet(args.ConfigKey, args.ConfigVal)

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "reset":
		return handleConfigReset()

	default:
		return fmt.Errorf("unknown config subcommand %q; try: show, set, path, reset", args.Subcommand)
	}
}

// handleConfigShow prints the effective configuration.
func handleConfigShow(asJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	fmt.Println("kidus configuration")
	fmt.Println()
	fmt.Printf("  api.url                     = %s\n", cfg.API.URL)
	fmt.Printf("  api.timeout_secs            = %d\n", cfg.API.TimeoutSecs)
	fmt.Printf("  api.user_id                 = %s\n", cfg.API.UserID)
	fmt.Printf("  api.channel_type            = %s\n", cfg.API.ChannelType)
	fmt.Printf("  storage.data_dir            = %s\n", displayOrDefault(cfg.Storage.DataDir))
	fmt.Printf("  history.flush_debounce_ms   = %d\n", cfg.History.FlushDebounceMs)
	fmt.Printf("  history.sweep_interval_secs = %d\n", cfg.History.SweepIntervalSecs)
	fmt.Printf("  analytics.enabled           = %t\n", cfg.Analytics.Enabled)
	fmt.Printf("  analytics.flush_interval_secs = %d\n", cfg.Analytics.FlushIntervalSecs)
	fmt.Printf("  ui.theme                    = %s\n", cfg.UI.Theme)
	fmt.Printf("  ui.sidebar_width            = %d\n", cfg.UI.SidebarWidth)
	fmt.Printf("  ui.compact_mode             = %t\n", cfg.UI.CompactMode)
	return nil
}

// handleConfigSet applies one dot-notation key and saves.
func handleConfigSet(key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := applyConfigKey(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// applyConfigKey maps a dot-notation key onto the config struct.
func applyConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "api.url":
		cfg.API.URL = value
	case "api.timeout_secs":
		return setInt(&cfg.API.TimeoutSecs, key, value)
	case "api.user_id":
		cfg.API.UserID = value
	case "api.channel_type":
		cfg.API.ChannelType = value
	case "storage.data_dir":
		cfg.Storage.DataDir = value
	case "history.flush_debounce_ms":
		return setInt(&cfg.History.FlushDebounceMs, key, value)
	case "history.sweep_interval_secs":
		return setInt(&cfg.History.SweepIntervalSecs, key, value)
	case "analytics.enabled":
		return setBool(&cfg.Analytics.Enabled, key, value)
	case "analytics.flush_interval_secs":
		return setInt(&cfg.Analytics.FlushIntervalSecs, key, value)
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.sidebar_width":
		return setInt(&cfg.UI.SidebarWidth, key, value)
	case "ui.compact_mode":
		return setBool(&cfg.UI.CompactMode, key, value)
	default:
		return fmt.Errorf("unknown config key %q; see \"kidus config show\" for keys", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false, got %q", key, value)
	}
	*dst = b
	return nil
}

// handleConfigReset rewrites the config file with defaults.
func handleConfigReset() error {
	if err := config.Save(config.Default()); err != nil {
		return fmt.Errorf("resetting config: %w", err)
	}
	fmt.Println("Configuration reset to defaults.")
	return nil
}

// displayOrDefault shows "(default)" for empty optional paths.
func displayOrDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
