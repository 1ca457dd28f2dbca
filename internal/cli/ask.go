// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Handles "kidus ask" which sends a single question to the gateway, prints
// the answer, and records the exchange in conversation history.
//
// Examples:
//   kidus ask "What is the fast of Nineveh?"
//   kidus ask --json "Who was Saint Yared?"
//   echo "Who was Saint Yared?" | kidus ask
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/yaredbooks/kidus-tui/internal/api"
	"github.com/yaredbooks/kidus-tui/internal/citation"
	"github.com/yaredbooks/kidus-tui/internal/model"
)

// renderMarkdown renders the answer as terminal markdown when stdout is a
// terminal, plain text when piped.
func renderMarkdown(content string) string {
	if !IsStdoutTTY() {
		return content
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TerminalWidth()),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// askJSONResult is the --json output shape for the ask command.
type askJSONResult struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Sources  []model.Source `json:"sources,omitempty"`
	Model    string         `json:"model,omitempty"`
}

// HandleAsk sends a one-shot question and prints the answer.
func HandleAsk(deps Deps, args Args) error {
	query := strings.TrimSpace(args.Query)

	// Piped use: read the question from stdin when none was given.
	if query == "" && !IsTTY() {
		scanner := bufio.NewScanner(os.Stdin)
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		query = strings.TrimSpace(strings.Join(lines, " "))
	}
	if query == "" {
		return fmt.Errorf("no question given; try: kidus ask \"What is Timkat?\"")
	}

	conv := deps.History.Create(query)
	deps.History.Append(conv.ID, model.NewUserMessage(query))
	deps.Recorder.Record("cli_ask", nil)

	ctx := context.Background()
	reply, err := deps.Client.Send(ctx, query, conv.ID)
	if err != nil {
		deps.History.Append(conv.ID, model.NewErrorMessage(api.UserMessage(err)))
		return fmt.Errorf("%s", api.UserMessage(err))
	}

	answer := citation.Rewrite(reply.Text, reply.Sources)
	msg := model.NewAssistantMessage(answer, reply.Sources)
	msg.ModelUsed = reply.ModelUsed
	deps.History.Append(conv.ID, msg)

	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(askJSONResult{
			Question: query,
			Answer:   citation.StripTokens(answer),
			Sources:  reply.Sources,
			Model:    reply.ModelUsed,
		})
	}

	fmt.Println(renderMarkdown(citation.StripTokens(answer)))
	printSources(reply.Sources, args.Quiet)
	return nil
}

// printSources prints the numbered source list under an answer.
func printSources(sources []model.Source, quiet bool) {
	if quiet || len(sources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Sources:")
	for i, src := range sources {
		line := fmt.Sprintf("  [%d] %s", i+1, src.DisplayTitle())
		if url := src.URL; url != "" {
			line += " <" + url + ">"
		}
		fmt.Println(line)
	}
}
