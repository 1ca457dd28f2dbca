// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the chat gateway: the sole component that talks to the
// remote Kidus Yared completion API.
//
// The gateway attaches each conversation's session token so the backend can
// keep multi-turn context, classifies failures into distinct error kinds
// (timeout, unreachable, server-reported) for tailored user messages, and
// never retries a chat request on its own - the user re-triggers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yaredbooks/kidus-tui/internal/model"
	"github.com/yaredbooks/kidus-tui/internal/session"
)

// Configuration constants for the completion API.
const (
	// DefaultBaseURL is the development default; production deployments
	// set api_url in the config file.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds request latency on unreliable mobile networks.
	// Kept strictly shorter than any UI-level give-up affordance so a
	// timeout error is always distinguishable from a user abort.
	DefaultTimeout = 30 * time.Second

	// DefaultUserID identifies this client to the backend.
	DefaultUserID = "tui_user"

	// DefaultChannelType tags requests with their origin surface.
	DefaultChannelType = "tui"

	// MaxResponseSize caps response bodies read into memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// Error variables for the distinct failure kinds the UI maps to messages.
var (
	// ErrTimeout indicates the request exceeded the client timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrUnreachable indicates a network-level failure before any
	// response arrived.
	ErrUnreachable = errors.New("cannot reach the Kidus Yared service")
)

// APIError is a server-reported failure: a non-2xx status or a 2xx body
// carrying an error field.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d)", e.Status)
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// chatRequest is the completion endpoint request body.
type chatRequest struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id,omitempty"`
	ChannelType string `json:"channel_type"`
}

// chatResponse is the completion endpoint response body. Older backend
// builds use "answer" where newer ones use "response"; both are accepted.
type chatResponse struct {
	Response  string         `json:"response"`
	Answer    string         `json:"answer"`
	SessionID string         `json:"session_id"`
	Sources   []model.Source `json:"sources"`
	ModelUsed string         `json:"model_used"`
	Error     string         `json:"error"`
}

// Reply is a cleaned completion result.
type Reply struct {
	Text      string
	SessionID string
	Sources   []model.Source
	ModelUsed string
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the completion API. Construct with NewClient and pass by
// reference; there is deliberately no package-level instance.
type Client struct {
	baseURL     string
	userID      string
	channelType string
	timeout     time.Duration
	httpClient  *http.Client
	sessions    *session.Map

	// limiter throttles outbound requests so a wedged UI loop cannot
	// hammer the backend.
	limiter *rate.Limiter
}

// NewClient creates a gateway over the given session map.
func NewClient(baseURL string, sessions *session.Map) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		userID:      DefaultUserID,
		channelType: DefaultChannelType,
		timeout:     DefaultTimeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sessions: sessions,
		limiter:  rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
	}
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// WithUserID sets the user identifier sent with each request.
func (c *Client) WithUserID(id string) *Client {
	if id != "" {
		c.userID = id
	}
	return c
}

// WithChannelType sets the channel tag sent with each request.
func (c *Client) WithChannelType(ch string) *Client {
	if ch != "" {
		c.channelType = ch
	}
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// SEND
// =============================================================================

// Send submits a message for the given conversation and returns the cleaned
// reply. The conversation's session token, if any, is attached; a token in
// the response is written back to the session map before returning.
//
// Failures come back as ErrTimeout, ErrUnreachable, or *APIError. Send
// never retries: the caller or user re-triggers.
func (c *Client) Send(ctx context.Context, text, conversationID string) (*Reply, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/chat"
	if !NeedsDetailed(text) {
		endpoint = "/chat/quick"
	}

	reqBody := chatRequest{
		Message:     strings.TrimSpace(text),
		UserID:      c.userID,
		ChannelType: c.channelType,
	}
	if conversationID != "" && c.sessions != nil {
		reqBody.SessionID = c.sessions.Get(conversationID)
	}

	parsed, err := c.post(ctx, endpoint, reqBody)
	if err != nil {
		return nil, err
	}

	if parsed.Error != "" {
		return nil, &APIError{Status: http.StatusOK, Message: parsed.Error}
	}

	responseText := parsed.Response
	if responseText == "" {
		responseText = parsed.Answer
	}
	responseText = CleanResponse(responseText)
	if responseText == "" {
		responseText = "I apologize, but I cannot provide a response at this time."
	}

	if parsed.SessionID != "" && conversationID != "" && c.sessions != nil {
		c.sessions.Set(conversationID, parsed.SessionID)
	}

	return &Reply{
		Text:      responseText,
		SessionID: parsed.SessionID,
		Sources:   parsed.Sources,
		ModelUsed: parsed.ModelUsed,
	}, nil
}

// post issues one request and classifies any failure.
func (c *Client) post(ctx context.Context, endpoint string, body chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Distinguish our timeout from other transport failures; the
		// parent context's own cancellation passes through untouched.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	log.Printf("api: POST %s -> %d (%v)", endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var parsed chatResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
			apiErr.Message = parsed.Error
		}
		return nil, apiErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "malformed response body"}
	}
	return &parsed, nil
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the API answers its health endpoint.
func (c *Client) Health(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode == http.StatusOK
}

// =============================================================================
// USER-FACING ERROR MAPPING
// =============================================================================

// UserMessage maps a gateway error to the inline text shown as a synthetic
// assistant message.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrTimeout):
		return "The request timed out. The service may be busy - please try again."
	case errors.Is(err, ErrUnreachable):
		return "I cannot connect to the Kidus Yared service right now. Please check your connection and try again."
	case errors.As(err, &apiErr):
		return "I apologize, but I encountered an error while processing your request. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
