// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation rewrites bracket citation markers in assistant replies
// into inline pill tokens that reference a message's source list.
//
// The backend emits three marker forms inside reply text:
//
//	[SOURCE_3]        legacy placeholder, 1-based index into the sources
//	[3]               bare numeric, 1-based index into the sources
//	[wikipedia.org]   domain reference, matched against source domains
//
// Rewriting replaces each resolvable marker with an output token of the form
// [CITE:<index>:<label>], where index is the zero-based position in the
// source list and label is the display text for the pill. The output shape
// shares no surface with any input form, which is what makes the rewrite
// idempotent: running it over its own output changes nothing. Markers that
// cannot be resolved are left verbatim - a citation miss is not an error.
package citation

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yaredbooks/kidus-tui/internal/model"
)

// =============================================================================
// REWRITER
// =============================================================================

// Rewrite converts citation markers in text into [CITE:index:label] tokens
// resolved against the given source list. Pure function; order of sources is
// significant (numeric markers are 1-based positions in it).
func Rewrite(text string, sources []model.Source) string {
	if text == "" || len(sources) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] != '[' {
			out.WriteByte(text[i])
			i++
			continue
		}

		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			// No closing bracket anywhere ahead; emit the rest as-is.
			out.WriteString(text[i:])
			break
		}
		inner := text[i+1 : i+end]
		token, ok := resolve(inner, sources)
		if ok {
			out.WriteString(token)
		} else {
			out.WriteString(text[i : i+end+1])
		}
		i += end + 1
	}

	return out.String()
}

// resolve classifies and resolves one bracket's inner text. Returns the
// replacement token and whether the marker was recognized and resolvable.
func resolve(inner string, sources []model.Source) (string, bool) {
	switch {
	case strings.HasPrefix(inner, "CITE:"):
		// Already-converted token: leave intact so Rewrite is idempotent.
		return "", false
	case strings.HasPrefix(inner, "SOURCE_"):
		return resolveNumeric(strings.TrimPrefix(inner, "SOURCE_"), sources)
	case isDigits(inner):
		return resolveNumeric(inner, sources)
	case isDomainLike(inner):
		return resolveDomain(inner, sources)
	default:
		return "", false
	}
}

// resolveNumeric handles [SOURCE_n] and [n]: direct 1-based index.
func resolveNumeric(digits string, sources []model.Source) (string, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > len(sources) {
		return "", false
	}
	idx := n - 1
	label := sources[idx].DisplayDomain()
	if label == "" {
		// No domain available: fall back to the 1-based ordinal.
		label = strconv.Itoa(n)
	}
	return citeToken(idx, label), true
}

// resolveDomain handles [domain.tld]: case-insensitive substring match
// against each source's domain, www.-insensitive on both sides, first
// match wins.
func resolveDomain(token string, sources []model.Source) (string, bool) {
	want := normalizeDomain(token)
	for idx, src := range sources {
		have := normalizeDomain(src.Domain)
		if have == "" {
			have = src.DisplayDomain()
		}
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return citeToken(idx, strings.TrimPrefix(token, "www.")), true
		}
	}
	return "", false
}

func citeToken(idx int, label string) string {
	return "[CITE:" + strconv.Itoa(idx) + ":" + label + "]"
}

// =============================================================================
// TOKEN CLASSIFICATION
// =============================================================================

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDomainLike accepts tokens shaped like hostnames: label characters with
// at least one dot and an alphabetic final label of 2+ characters.
func isDomainLike(s string) bool {
	dot := strings.LastIndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return false
	}
	tld := s[dot+1:]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !isAlpha(r) {
			return false
		}
	}
	for _, r := range s[:dot] {
		if !isAlpha(r) && (r < '0' || r > '9') && r != '.' && r != '-' {
			return false
		}
	}
	return true
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// normalizeDomain lowercases, NFC-normalizes, and strips any www. prefix
// so comparisons are insensitive to case, composition form, and the www
// convention.
func normalizeDomain(s string) string {
	s = norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
	return strings.TrimPrefix(s, "www.")
}
