// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for kidus-tui.
package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/yaredbooks/kidus-tui/internal/analytics"
	"github.com/yaredbooks/kidus-tui/internal/api"
	"github.com/yaredbooks/kidus-tui/internal/config"
	"github.com/yaredbooks/kidus-tui/internal/history"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdHistory
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	APIURL  string // --api overrides the configured gateway URL

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

// Deps bundles the services the command handlers run against. Everything is
// constructed in main and injected; handlers never reach for globals.
type Deps struct {
	Config   *config.Config
	History  *history.Store
	Client   *api.Client
	Recorder *analytics.Recorder
}

const usageText = `kidus - Ethiopian Orthodox Tewahedo teaching companion

Kidus Yared answers questions about the faith, drawing on a curated
library of teachings, and cites the sources it used.

Usage:
  kidus                       Start the TUI (default)
  kidus ask "question"        Ask a single question and print the answer
  kidus chat                  Interactive line-based chat
  kidus history [subcommand]  Saved conversation management
  kidus status, s             Show gateway and storage status
  kidus config [show|set]     Configuration
  kidus version               Show version information
  kidus help                  Show this help

History Commands:
  kidus history list             List saved conversations (most recent first)
  kidus history show <id>        Print a conversation transcript
  kidus history search <text>    Search conversation titles and messages
  kidus history export <id>      Export a transcript
    --format json|md|txt         Export format (default: txt)
    --output FILE                Write to file (default: stdout)
  kidus history delete <id>      Delete a conversation (backed up first)
  kidus history restore          Restore the last deleted conversations

Config Commands:
  kidus config show              Show current configuration
  kidus config set <key> <val>   Set a configuration value
  kidus config path              Show the config file location
  kidus config reset             Reset configuration to defaults

Global Flags:
  --api URL        Override the gateway URL for this invocation
  --json           Machine-readable output where supported
  -q, --quiet      Minimal output
  -v, --verbose    Verbose output

Examples:
  kidus ask "What is the fast of Nineveh?"
  kidus history search "Saint Yared"
  kidus config set api.url http://gateway.local:8080
  kidus status --json

Version: %s
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("kidus version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name) and returns
// the command and args.
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	// No remaining args defaults to the TUI.
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "history", "conversations":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdHistory, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// An unrecognized first argument is treated as a question.
		parsedArgs.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--api":
			if i+1 < len(args) {
				i++
				parsedArgs.APIURL = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--api=") {
				parsedArgs.APIURL = strings.TrimPrefix(arg, "--api=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseConfigArgs fills the config subcommand, key, and value.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

// HandleVersion prints version information, as JSON when requested.
func HandleVersion(args Args) {
	if args.JSON {
		fmt.Printf("{\"version\":%q,\"git_commit\":%q,\"build_date\":%q}\n",
			Version, GitCommit, BuildDate)
		return
	}
	PrintVersion()
}

// HandleHelp prints the usage text.
func HandleHelp() {
	PrintUsage()
}
