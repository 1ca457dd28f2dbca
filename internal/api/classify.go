// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "strings"

// =============================================================================
// QUERY CLASSIFICATION
// =============================================================================

// quickPhrases mark conversational small talk that the fast-path endpoint
// answers without running retrieval.
var quickPhrases = []string{
	"hello", "hi", "hey", "selam", "good morning", "good afternoon",
	"good evening", "thanks", "thank you", "bye", "goodbye",
	"how are you", "who are you", "what can you do",
}

// NeedsDetailed decides whether a message goes to the retrieval-backed
// /chat endpoint or the fast-path /chat/quick.
//
// Only short messages that are recognizably small talk take the quick path;
// everything else defaults to detailed. Erring toward detailed costs
// latency, while erring toward quick costs answer quality on a knowledge
// question, so the fall-through is deliberately detailed.
func NeedsDetailed(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return false
	}

	// Anything long enough to carry a real question gets retrieval.
	if len([]rune(m)) > 40 {
		return true
	}

	m = strings.Trim(m, "!?.")
	for _, phrase := range quickPhrases {
		if m == phrase || strings.HasPrefix(m, phrase+" ") {
			return false
		}
	}
	return true
}
