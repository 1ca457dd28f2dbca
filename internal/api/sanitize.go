// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"regexp"
	"strings"
)

// =============================================================================
// RESPONSE CLEANUP
// =============================================================================

// The backend occasionally leaks retrieval-pipeline narration into reply
// text. These patterns match the known artifacts.
var (
	// "Found in <collection>: " prefixes injected by the retriever.
	foundInPattern = regexp.MustCompile(`Found in [^:]+:\s*`)

	// Whole leading lines of search narration.
	searchNarration = regexp.MustCompile(`(?m)^(Looking through|Searching|Analyzing)[^\n]*\n*`)

	// Unresolved internal citation placeholders the prompt template uses.
	internalPlaceholder = regexp.MustCompile(`\[INTERNAL_(?:DOC|REF)_\d+\]`)
)

// CleanResponse strips known boilerplate artifacts from reply text before
// it reaches the conversation store.
func CleanResponse(text string) string {
	text = foundInPattern.ReplaceAllString(text, "")
	text = searchNarration.ReplaceAllString(text, "")
	text = internalPlaceholder.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
