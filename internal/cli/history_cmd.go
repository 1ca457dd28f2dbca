// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Saved conversation management.
//
// Handles "kidus history" subcommands: list, show, search, export, delete,
// restore. IDs may be abbreviated to any unique prefix.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yaredbooks/kidus-tui/internal/citation"
	"github.com/yaredbooks/kidus-tui/internal/model"
)

// HandleHistory dispatches a history subcommand.
func HandleHistory(deps Deps, args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "", "list", "ls":
		return handleHistoryList(deps, args.JSON || parser.BoolFlag("json"))

	case "show":
		return handleHistoryShow(deps, parser.Positional(1))

	case "search":
		query := strings.Join(parser.PositionalFrom(1), " ")
		return handleHistorySearch(deps, query)

	case "export":
		return handleHistoryExport(deps, parser)

	case "delete", "rm":
		return handleHistoryDelete(deps, parser.Positional(1))

	case "restore":
		if err := deps.History.RestoreBackup(); err != nil {
			return fmt.Errorf("nothing to restore: %w", err)
		}
		fmt.Println("Restored deleted conversations.")
		return nil

	default:
		return fmt.Errorf("unknown history subcommand %q; try: list, show, search, export, delete, restore",
			parser.Subcommand())
	}
}

// resolveConversation finds a conversation by full ID or unique prefix.
func resolveConversation(deps Deps, id string) (*model.Conversation, error) {
	if id == "" {
		return nil, fmt.Errorf("conversation ID required; see \"kidus history list\"")
	}
	if conv := deps.History.Get(id); conv != nil {
		return conv, nil
	}

	var match *model.Conversation
	for _, conv := range deps.History.List() {
		if strings.HasPrefix(conv.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("conversation ID %q is ambiguous", id)
			}
			match = conv
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no conversation with ID %q", id)
	}
	return match, nil
}

// handleHistoryList prints the conversation list, most recent first.
func handleHistoryList(deps Deps, asJSON bool) error {
	convs := deps.History.List()

	if asJSON {
		type row struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			CreatedAt string `json:"created_at"`
			Messages  int    `json:"messages"`
		}
		rows := make([]row, 0, len(convs))
		for _, conv := range convs {
			rows = append(rows, row{
				ID:        conv.ID,
				Title:     conv.Title,
				CreatedAt: conv.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				Messages:  len(conv.Messages),
			})
		}
		return json.NewEncoder(os.Stdout).Encode(rows)
	}

	if len(convs) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}
	for _, conv := range convs {
		fmt.Printf("%s  %s  %s (%d messages)\n",
			shortID(conv.ID),
			conv.CreatedAt.Format("2006-01-02 15:04"),
			conv.Title,
			len(conv.Messages))
	}
	return nil
}

// handleHistoryShow prints one conversation transcript.
func handleHistoryShow(deps Deps, id string) error {
	conv, err := resolveConversation(deps, id)
	if err != nil {
		return err
	}
	fmt.Print(formatTranscript(conv, "txt"))
	return nil
}

// handleHistorySearch matches titles and message bodies, case-insensitive.
func handleHistorySearch(deps Deps, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("search text required; try: kidus history search \"fasting\"")
	}
	needle := strings.ToLower(query)

	found := 0
	for _, conv := range deps.History.List() {
		if conversationMatches(conv, needle) {
			fmt.Printf("%s  %s  %s\n",
				shortID(conv.ID), conv.CreatedAt.Format("2006-01-02 15:04"), conv.Title)
			found++
		}
	}
	if found == 0 {
		fmt.Printf("No conversations matching %q.\n", query)
	}
	return nil
}

// conversationMatches reports whether the title or any message contains the
// lowercased needle.
func conversationMatches(conv *model.Conversation, needle string) bool {
	if strings.Contains(strings.ToLower(conv.Title), needle) {
		return true
	}
	for _, msg := range conv.Messages {
		if strings.Contains(strings.ToLower(msg.Content), needle) {
			return true
		}
	}
	return false
}

// handleHistoryExport writes a transcript in the requested format.
func handleHistoryExport(deps Deps, parser *ArgParser) error {
	conv, err := resolveConversation(deps, parser.Positional(1))
	if err != nil {
		return err
	}

	format := parser.FlagOrDefault("format", "txt")
	var out string
	switch format {
	case "txt", "md":
		out = formatTranscript(conv, format)
	case "json":
		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return err
		}
		out = string(data) + "\n"
	default:
		return fmt.Errorf("unknown export format %q; use json, md, or txt", format)
	}

	if path := parser.Flag("output"); path != "" {
		if err := os.WriteFile(path, []byte(out), 0600); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	}
	fmt.Print(out)
	return nil
}

// handleHistoryDelete deletes one conversation, taking the usual backup.
func handleHistoryDelete(deps Deps, id string) error {
	conv, err := resolveConversation(deps, id)
	if err != nil {
		return err
	}
	deps.History.Delete(conv.ID)
	fmt.Printf("Deleted %q. Run \"kidus history restore\" to undo.\n", conv.Title)
	return nil
}

// formatTranscript renders a conversation as plain text or markdown.
func formatTranscript(conv *model.Conversation, format string) string {
	var b strings.Builder

	if format == "md" {
		fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	} else {
		fmt.Fprintf(&b, "%s\n%s\n\n", conv.Title, strings.Repeat("=", len(conv.Title)))
	}
	fmt.Fprintf(&b, "Created: %s\n\n", conv.CreatedAt.Format("2006-01-02 15:04"))

	for _, msg := range conv.Messages {
		role := msg.Role.DisplayName()
		if format == "md" {
			fmt.Fprintf(&b, "## %s (%s)\n\n", role, msg.Timestamp.Format("15:04"))
		} else {
			fmt.Fprintf(&b, "[%s] %s:\n", msg.Timestamp.Format("15:04"), role)
		}
		b.WriteString(citation.StripTokens(msg.Content))
		b.WriteString("\n\n")

		if len(msg.Sources) > 0 {
			b.WriteString("Sources:\n")
			for i, src := range msg.Sources {
				fmt.Fprintf(&b, "  [%d] %s", i+1, src.DisplayTitle())
				if src.URL != "" {
					fmt.Fprintf(&b, " <%s>", src.URL)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// shortID abbreviates a conversation ID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
