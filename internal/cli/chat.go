// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-based chat command.
//
// Handles "kidus chat", a REPL for terminals where the full-screen TUI is
// unwanted (ssh sessions, screen readers, minimal environments).
//
// Interactive commands (during chat):
//   /help, /h     Show available commands
//   /new, /n      Start a new conversation
//   /sources      Reprint the sources of the last answer
//   /history      List recent conversations
//   /quit, /q     Exit chat
//   Ctrl+D        Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/yaredbooks/kidus-tui/internal/api"
	"github.com/yaredbooks/kidus-tui/internal/citation"
	"github.com/yaredbooks/kidus-tui/internal/config"
	"github.com/yaredbooks/kidus-tui/internal/model"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatInput wraps liner with persistent input history: arrow keys navigate
// previous questions across sessions.
type ChatInput struct {
	line        *liner.State
	historyFile string
}

// NewChatInput creates a line reader with input history loaded from disk.
func NewChatInput() *ChatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	in := &ChatInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// ReadInput reads one line, recording non-blank input in the history.
func (c *ChatInput) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close persists the input history and releases the terminal.
func (c *ChatInput) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// CHAT REPL
// =============================================================================

// HandleChat runs the interactive line-based chat loop.
func HandleChat(deps Deps, args Args) error {
	if !IsTTY() {
		return fmt.Errorf("chat requires an interactive terminal; use \"kidus ask\" for piped input")
	}

	input := NewChatInput()
	defer input.Close()

	if !args.Quiet {
		fmt.Println("Kidus Yared - interactive chat")
		fmt.Println("Type /help for commands, /quit to exit.")
		fmt.Println()
	}

	deps.Recorder.Record("cli_chat_started", nil)

	var convID string
	var lastSources []model.Source

	for {
		text, err := input.ReadInput("you> ")
		if err != nil {
			// Ctrl+D ends the session; Ctrl+C aborts the current line.
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				continue
			}
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			done := handleChatCommand(deps, text, &convID, lastSources)
			if done {
				return nil
			}
			continue
		}

		if convID == "" {
			convID = deps.History.Create(text).ID
		}
		deps.History.Append(convID, model.NewUserMessage(text))

		reply, err := deps.Client.Send(context.Background(), text, convID)
		if err != nil {
			msg := api.UserMessage(err)
			deps.History.Append(convID, model.NewErrorMessage(msg))
			fmt.Println("! " + msg)
			continue
		}

		answer := citation.Rewrite(reply.Text, reply.Sources)
		stored := model.NewAssistantMessage(answer, reply.Sources)
		stored.ModelUsed = reply.ModelUsed
		deps.History.Append(convID, stored)
		lastSources = reply.Sources

		fmt.Println()
		fmt.Println(renderMarkdown(citation.StripTokens(answer)))
		printSources(reply.Sources, args.Quiet)
		fmt.Println()
	}
}

// handleChatCommand executes a /command. Returns true when the loop should
// exit.
func handleChatCommand(deps Deps, text string, convID *string, lastSources []model.Source) bool {
	cmd := strings.Fields(text)[0]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Println("Commands:")
		fmt.Println("  /new, /n      Start a new conversation")
		fmt.Println("  /sources      Reprint the sources of the last answer")
		fmt.Println("  /history      List recent conversations")
		fmt.Println("  /quit, /q     Exit chat")

	case "/new", "/n":
		*convID = ""
		deps.History.ClearActive()
		fmt.Println("Started a new conversation.")

	case "/sources":
		if len(lastSources) == 0 {
			fmt.Println("No sources yet.")
		} else {
			printSources(lastSources, false)
		}

	case "/history":
		convs := deps.History.List()
		if len(convs) == 0 {
			fmt.Println("No saved conversations.")
			break
		}
		limit := 10
		if len(convs) < limit {
			limit = len(convs)
		}
		for _, conv := range convs[:limit] {
			fmt.Printf("  %s  %s\n", conv.CreatedAt.Format("2006-01-02 15:04"), conv.Title)
		}

	default:
		fmt.Printf("Unknown command %s; type /help for commands.\n", cmd)
	}
	return false
}
