// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaredbooks/kidus-tui/internal/session"
	"github.com/yaredbooks/kidus-tui/internal/storage"
)

func newSessionMap(t *testing.T) *session.Map {
	t.Helper()
	store, err := storage.NewStoreWithDir(t.TempDir())
	require.NoError(t, err)
	return session.NewMap(store)
}

func TestSendSessionContinuity(t *testing.T) {
	var mu sync.Mutex
	var seenSessionIDs []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		mu.Lock()
		sid, _ := req["session_id"].(string)
		seenSessionIDs = append(seenSessionIDs, sid)
		mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{
			"response":   "Timkat is the Ethiopian celebration of Epiphany.",
			"session_id": "sess-abc",
		})
	}))
	defer srv.Close()

	sessions := newSessionMap(t)
	client := NewClient(srv.URL, sessions)

	// Fresh conversation: no token sent.
	reply, err := client.Send(context.Background(), "What is Timkat?", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "Timkat is the Ethiopian celebration of Epiphany.", reply.Text)
	assert.Equal(t, "sess-abc", reply.SessionID)

	// Token from the response is now bound to the conversation.
	assert.Equal(t, "sess-abc", sessions.Get("conv_1"))

	// Second message carries the stored token.
	_, err = client.Send(context.Background(), "Tell me more about the processions", "conv_1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seenSessionIDs, 2)
	assert.Empty(t, seenSessionIDs[0], "first request must not carry a session token")
	assert.Equal(t, "sess-abc", seenSessionIDs[1], "second request must carry the stored token")
}

func TestSendTimeoutIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newSessionMap(t)).WithTimeout(30 * time.Millisecond)

	_, err := client.Send(context.Background(), "slow question", "conv_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

func TestSendNetworkFailureIsDistinct(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, newSessionMap(t))

	_, err := client.Send(context.Background(), "question", "conv_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestSendServerReportedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "model overloaded"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newSessionMap(t))

	_, err := client.Send(context.Background(), "question", "conv_1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "model overloaded", apiErr.Message)
}

func TestSendNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newSessionMap(t))

	_, err := client.Send(context.Background(), "question", "conv_1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestSendAcceptsAnswerField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"answer": "From the older backend."})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newSessionMap(t))
	reply, err := client.Send(context.Background(), "question", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "From the older backend.", reply.Text)
}

func TestSendStripsBoilerplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"response": "Searching the liturgical archives...\nFound in Degua: Saint Yared composed the zema chants.",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newSessionMap(t))
	reply, err := client.Send(context.Background(), "Who was Saint Yared and what did he compose?", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "Saint Yared composed the zema chants.", reply.Text)
}

func TestSendRoutesQuickVsDetailed(t *testing.T) {
	var mu sync.Mutex
	paths := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths[r.URL.Path]++
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newSessionMap(t))

	_, err := client.Send(context.Background(), "hello", "conv_1")
	require.NoError(t, err)
	_, err = client.Send(context.Background(), "Explain the Ethiopian calendar and its thirteen months", "conv_1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, paths["/chat/quick"])
	assert.Equal(t, 1, paths["/chat"])
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newSessionMap(t))
	assert.True(t, client.Health(context.Background()))

	srv.Close()
	assert.False(t, client.Health(context.Background()))
}

func TestUserMessageMapping(t *testing.T) {
	assert.Contains(t, UserMessage(ErrTimeout), "timed out")
	assert.Contains(t, UserMessage(ErrUnreachable), "connect")
	assert.Contains(t, UserMessage(&APIError{Status: 500}), "error")
	assert.NotEmpty(t, UserMessage(errors.New("other")))
}

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestNeedsDetailed(t *testing.T) {
	quick := []string{"hello", "Hi!", "thanks", "How are you?", "selam"}
	for _, q := range quick {
		assert.False(t, NeedsDetailed(q), "%q should take the quick path", q)
	}

	detailed := []string{
		"What is Timkat?",
		"Explain the Ethiopian calendar and its significance",
		"hippopotamus", // unknown single word falls through to detailed
	}
	for _, d := range detailed {
		assert.True(t, NeedsDetailed(d), "%q should take the detailed path", d)
	}
}

// =============================================================================
// CLEANUP TESTS
// =============================================================================

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Found in Synaxarium: The feast begins at dawn.", "The feast begins at dawn."},
		{"Searching the archives...\nThe answer is here.", "The answer is here."},
		{"Looking through manuscripts now\nAnalyzing sources\nReal text.", "Real text."},
		{"See [INTERNAL_DOC_3] for details.", "See  for details."},
		{"  plain text  ", "plain text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanResponse(tt.in), "input %q", tt.in)
	}
}
