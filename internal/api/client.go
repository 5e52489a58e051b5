// internal/api/client.go
//
// JSON/HTTP client for the persistence backend. Every response uses the
// same envelope: {success, <payload>, error}. A success=false envelope is
// surfaced as an APIError so boards can tell a rejected save apart from a
// transport failure; both leave rollback to the caller.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/logging"
)

// APIError is a definitive rejection from the backend (success=false or a
// non-2xx status). Transport errors are returned as-is, wrapped.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: request failed with status %d", e.Status)
}

// IsRejection reports whether err is a definitive backend rejection, as
// opposed to a transport failure.
func IsRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Client talks to the persistence API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logging.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a diagnostic logger; every request logs its method,
// path, request id, and outcome.
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client for the given base URL and bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// envelope is the common response wrapper.
type envelope struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Entity   json.RawMessage `json:"entity,omitempty"`
	Entities json.RawMessage `json:"entities,omitempty"`
	Note     *entity.Note    `json:"note,omitempty"`
	Notes    []entity.Note   `json:"notes,omitempty"`
	Invite   *Invite         `json:"invite,omitempty"`
}

// Invite is a time-boxed external document upload link. The client only
// stores and displays the URL; its contents are the backend's business.
type Invite struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// do issues one request and decodes the envelope. Each request carries a
// generated request id so failures in the log can be matched to backend
// traces.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Printf("api: %s %s rid=%s transport error: %v", method, path, requestID, err)
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.log.Printf("api: %s %s rid=%s decode error: %v", method, path, requestID, err)
		return nil, fmt.Errorf("api: %s %s: decode response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		c.log.Printf("api: %s %s rid=%s rejected status=%d error=%q", method, path, requestID, resp.StatusCode, env.Error)
		return nil, &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	c.log.Printf("api: %s %s rid=%s ok", method, path, requestID)
	return &env, nil
}

// Invite generates a time-boxed document upload link for a partner.
func (c *Client) Invite(ctx context.Context, kind, id string) (Invite, error) {
	env, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/%s/%s/invite", kind, id), nil)
	if err != nil {
		return Invite{}, err
	}
	if env.Invite == nil {
		return Invite{}, fmt.Errorf("api: invite response missing link")
	}
	return *env.Invite, nil
}
