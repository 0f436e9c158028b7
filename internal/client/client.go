// Package client talks to a running rutinas server over its HTTP API.
package client

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

	"github.com/claude/rutinas/internal/routine"
	"github.com/google/uuid"
)

// Session is a server-side editing session and its current routine.
type Session struct {
	ID      uuid.UUID       `json:"id"`
	Routine routine.Routine `json:"routine"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client sends requests to the rutinas server.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// New creates a client for the server at serverURL. apiKey may be empty when
// the server runs without one.
func New(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// OpenSession starts a new session holding the default routine. It is not
// retried: a lost response would leave an orphaned session on the server.
func (c *Client) OpenSession(ctx context.Context) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, &s); err != nil {
		return Session{}, fmt.Errorf("opening session: %w", err)
	}
	return s, nil
}

// Get returns the current routine of a session.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	var s Session
	err := c.retry(ctx, func() error {
		return c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id.String(), nil, &s)
	})
	if err != nil {
		return Session{}, fmt.Errorf("getting session %s: %w", id, err)
	}
	return s, nil
}

// Dispatch sends one encoded action to a session and returns the resulting
// routine. It is not retried: a lost response would apply an add twice.
func (c *Client) Dispatch(ctx context.Context, id uuid.UUID, action []byte) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+id.String()+"/actions", action, &s); err != nil {
		return Session{}, fmt.Errorf("dispatching action: %w", err)
	}
	return s, nil
}

// Save stores the session's routine in the server's library.
func (c *Client) Save(ctx context.Context, id uuid.UUID) (Session, error) {
	var s Session
	err := c.retry(ctx, func() error {
		return c.do(ctx, http.MethodPost, "/api/v1/sessions/"+id.String()+"/save", nil, &s)
	})
	if err != nil {
		return Session{}, fmt.Errorf("saving session %s: %w", id, err)
	}
	return s, nil
}

// Close discards a session.
func (c *Client) Close(ctx context.Context, id uuid.UUID) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("closing session %s: %w", id, err)
	}
	return nil
}

// retry runs fn up to c.attempts times with exponential backoff. Client
// errors (4xx) are returned immediately.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && apiErr.Status < 500 {
			return lastErr
		}
	}
	return fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
