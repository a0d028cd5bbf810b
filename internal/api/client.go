// Package api is the typed client for the symposium backend REST API. All
// responses arrive in a {success, data} / {success:false, message} envelope
// which is validated here so callers never see raw wire shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"symposium/internal/model"
)

// ErrUnauthorized is returned when the backend rejects the session token
// with a 401. Callers must clear stored credentials and route to login.
var ErrUnauthorized = errors.New("unauthorized")

// ErrServerOffline is returned for transport-level failures. Callers must
// not clear credentials; cached data may be shown for display only.
var ErrServerOffline = errors.New("server offline")

// APIError carries a backend validation rejection. Message is surfaced to
// the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend rejected request (%d): %s", e.StatusCode, e.Message)
}

// TokenSource supplies the current bearer token, empty when logged out.
type TokenSource func() string

// Client calls the symposium backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   TokenSource

	events   *memoCache
	cacheTTL time.Duration
}

// New creates a client. token may be nil for unauthenticated use.
func New(baseURL string, token TokenSource, eventsCacheTTL time.Duration) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	if eventsCacheTTL <= 0 {
		eventsCacheTTL = 5 * time.Minute
	}
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		events:   newMemoCache(),
		cacheTTL: eventsCacheTTL,
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// Profile fetches the authenticated user's profile. A 401 maps to
// ErrUnauthorized; a transport failure maps to ErrServerOffline so callers
// can distinguish "kicked out" from "backend unreachable".
func (c *Client) Profile(ctx context.Context) (model.UserProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/profile", nil)
	if err != nil {
		return model.UserProfile{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("%w: %v", ErrServerOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return model.UserProfile{}, ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return model.UserProfile{}, fmt.Errorf("profile fetch failed: %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return model.UserProfile{}, fmt.Errorf("profile fetch failed: %s", env.Message)
	}
	var profile model.UserProfile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

// Events fetches the event catalog, cached for the configured TTL. The
// session check-in selector filters the result to active events itself.
func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	if cached, ok := c.events.Get("events", c.cacheTTL); ok {
		return cached, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/events", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("event fetch failed: %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("event fetch failed: %s", env.Message)
	}
	var events []model.Event
	if err := json.Unmarshal(env.Data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	c.events.Set("events", events)
	return events, nil
}

// InvalidateEvents drops the cached catalog so the next Events call refetches.
func (c *Client) InvalidateEvents() {
	c.events.Delete("events")
}

// Register submits a registration. Backend validation rejections come back
// as *APIError with the backend's message verbatim.
func (c *Client) Register(ctx context.Context, reg model.RegistrationRequest) (model.Registration, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/registrations", reg)
	if err != nil {
		return model.Registration{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.Registration{}, fmt.Errorf("%w: %v", ErrServerOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return model.Registration{}, ErrUnauthorized
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return model.Registration{}, &APIError{StatusCode: resp.StatusCode, Message: "Failed to register for event"}
		}
		return model.Registration{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "Failed to register for event"
		}
		return model.Registration{}, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	var out model.Registration
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return model.Registration{}, fmt.Errorf("failed to decode registration: %w", err)
	}
	return out, nil
}

// CheckIn performs a building or session check-in for a decoded QR payload.
// Every failure is folded into the returned outcome: non-2xx responses keep
// the backend's message when present, and transport errors become an offline
// failure. Callers always receive a terminal outcome.
func (c *Client) CheckIn(ctx context.Context, qr string, typ model.CheckInType, eventID string) model.CheckInResponse {
	path := "/api/checkin/building"
	body := map[string]string{"qrCode": qr}
	if typ == model.CheckInSession {
		path = "/api/checkin/session"
		if eventID == "" {
			return model.CheckInResponse{Success: false, Message: "No event selected for session check-in"}
		}
		body["eventId"] = eventID
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return model.CheckInResponse{Success: false, Message: "Check-in failed: " + err.Error()}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.CheckInResponse{Success: false, Message: "Server is offline. Please try again later."}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.CheckInResponse{Success: false, Message: "Check-in failed"}
	}

	var out model.CheckInResponse
	if err := json.Unmarshal(raw, &out); err != nil || (resp.StatusCode >= 300 && out.Message == "") {
		return model.CheckInResponse{Success: false, Message: "Check-in failed"}
	}

	// A duplicate may arrive as a 409 with success=false; the flag, not the
	// status code, is what callers classify on.
	if resp.StatusCode >= 300 && !out.AlreadyCheckedIn {
		return model.CheckInResponse{Success: false, Message: out.Message}
	}
	return out
}
