// Package client is the HTTP client the lesson player uses against the
// Lectern API: lesson descriptors, resume positions, and progress
// persistence.
package client

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/errors"
)

// Client talks to a Lectern server with a bearer playback credential
// supplied by the host page.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Data    jsontext.Value `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Success bool           `json:"success"`
}

// do executes a request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.MarshalWrite(reqBody, body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.UnmarshalRead(resp.Body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, env.Error)
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// statusError maps an HTTP failure onto the domain error taxonomy.
func statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return errors.NotFound(message)
	case http.StatusUnauthorized:
		return errors.Unauthorized(message)
	case http.StatusForbidden:
		return errors.Forbidden(message)
	case http.StatusBadRequest:
		return errors.Validation(message)
	case http.StatusTooManyRequests:
		return errors.RateLimited(message)
	default:
		return errors.Internalf("server error (%d): %s", status, message)
	}
}

// GetLesson fetches the lesson descriptor the player mounts with.
func (c *Client) GetLesson(ctx context.Context, lessonID string) (*domain.Lesson, error) {
	var lesson domain.Lesson
	if err := c.do(ctx, http.MethodGet, "/api/v1/lessons/"+lessonID, nil, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListLessons fetches lessons, optionally filtered by course.
func (c *Client) ListLessons(ctx context.Context, courseID string) ([]*domain.Lesson, error) {
	path := "/api/v1/lessons"
	if courseID != "" {
		path += "?course_id=" + courseID
	}
	var lessons []*domain.Lesson
	if err := c.do(ctx, http.MethodGet, path, nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// GetProgress fetches the resume position for a lesson. The host page
// calls this before mounting the player.
func (c *Client) GetProgress(ctx context.Context, lessonID string) (*domain.WatchProgress, error) {
	var progress domain.WatchProgress
	if err := c.do(ctx, http.MethodGet, "/api/v1/lessons/"+lessonID+"/progress", nil, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// Report persists a progress report. Implements the synchronizer's
// reporter contract.
func (c *Client) Report(ctx context.Context, report domain.ProgressReport) error {
	path := "/api/v1/lessons/" + report.LessonID + "/progress"
	return c.do(ctx, http.MethodPost, path, report, nil)
}

// ContinueWatching fetches the continue-watching shelf.
func (c *Client) ContinueWatching(ctx context.Context, limit int) ([]*domain.ContinueWatchingItem, error) {
	path := fmt.Sprintf("/api/v1/progress/continue?limit=%d", limit)
	var items []*domain.ContinueWatchingItem
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// IssueDevToken mints a playback credential from a development server.
func IssueDevToken(ctx context.Context, baseURL, userID string) (string, error) {
	c := New(baseURL, "")
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"user_id": userID}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/token", body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}
