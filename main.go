// kidus-tui - A terminal interface for the Kidus Yared teaching service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yaredbooks/kidus-tui/internal/analytics"
	"github.com/yaredbooks/kidus-tui/internal/api"
	"github.com/yaredbooks/kidus-tui/internal/cli"
	"github.com/yaredbooks/kidus-tui/internal/config"
	"github.com/yaredbooks/kidus-tui/internal/history"
	"github.com/yaredbooks/kidus-tui/internal/session"
	"github.com/yaredbooks/kidus-tui/internal/storage"
	"github.com/yaredbooks/kidus-tui/internal/ui/chat"
	"github.com/yaredbooks/kidus-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	// Commands that run without services.
	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp()
		return
	case cli.CmdVersion:
		cli.HandleVersion(args)
		return
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	deps, cleanup, err := buildDeps(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	switch cmd {
	case cli.CmdAsk:
		if err := cli.HandleAsk(deps, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdChat:
		if err := cli.HandleChat(deps, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdHistory:
		if err := cli.HandleHistory(deps, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdStatus:
		if err := cli.HandleStatus(deps, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		runTUI(deps)
	}
}

// buildDeps loads configuration and wires the service graph. The returned
// cleanup flushes history and analytics; call it on every exit path.
func buildDeps(args cli.Args) (cli.Deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return cli.Deps{}, nil, fmt.Errorf("loading config: %w", err)
	}

	// CLI args override config.
	if args.APIURL != "" {
		cfg.API.URL = args.APIURL
	}

	var store *storage.Store
	if cfg.Storage.DataDir != "" {
		store, err = storage.NewStoreWithDir(cfg.Storage.DataDir)
	} else {
		store, err = storage.NewStore()
	}
	if err != nil {
		return cli.Deps{}, nil, fmt.Errorf("opening storage: %w", err)
	}

	sessions := session.NewMap(store)
	hist := history.NewStore(store, sessions, history.Options{
		FlushDebounce: cfg.FlushDebounce(),
		SweepInterval: cfg.SweepInterval(),
	})

	client := api.NewClient(cfg.API.URL, sessions).
		WithTimeout(cfg.RequestTimeout()).
		WithUserID(cfg.API.UserID).
		WithChannelType(cfg.API.ChannelType)

	var recorder *analytics.Recorder
	if cfg.Analytics.Enabled {
		spool, err := analytics.OpenSpool(filepath.Join(store.BaseDir, "analytics.db"))
		if err != nil {
			// Analytics is best-effort; the app runs without it.
			log.Printf("analytics: spool unavailable: %v", err)
		} else {
			interval := time.Duration(cfg.Analytics.FlushIntervalSecs) * time.Second
			recorder = analytics.NewRecorder(spool, cfg.API.URL, true, interval)
			recorder.Start()
		}
	}

	deps := cli.Deps{
		Config:   cfg,
		History:  hist,
		Client:   client,
		Recorder: recorder,
	}
	cleanup := func() {
		hist.Close()
		recorder.Close()
	}
	return deps, cleanup, nil
}

// runTUI starts the full-screen interface.
func runTUI(deps cli.Deps) {
	if !cli.IsStdoutTTY() {
		fmt.Fprintln(os.Stderr, "Error: the TUI requires a terminal; try \"kidus ask\" for piped use")
		os.Exit(1)
	}

	theme := styles.NewTheme()
	m := chat.New(theme, deps.History, deps.Client, deps.Recorder, deps.Config.UI.SidebarWidth)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Hot-reload UI settings while the program runs.
	if path, err := config.ConfigPathTOML(); err == nil {
		watcher, werr := config.NewWatcher(path, 300*time.Millisecond, func(cfg *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		})
		if werr == nil && watcher.Watch() == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running kidus: %v\n", err)
		os.Exit(1)
	}
}
