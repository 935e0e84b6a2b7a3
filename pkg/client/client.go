package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuemby/cadence/pkg/types"
)

// ErrNotFound is returned when the API answers 404
var ErrNotFound = errors.New("not found")

// StatusError is returned for any other non-2xx answer
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

// Client talks to the session REST API
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent on every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout (default 10s)
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: 10 * time.Second,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetSession fetches a session by ID
func (c *Client) GetSession(ctx context.Context, id string) (*types.Session, error) {
	var sess types.Session
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions lists the sessions visible to the caller
func (c *Client) ListSessions(ctx context.Context) ([]types.Session, error) {
	var out []types.Session
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSession creates a session from a draft; the caller becomes host
func (c *Client) CreateSession(ctx context.Context, draft types.SessionDraft) (*types.Session, error) {
	var sess types.Session
	if err := c.do(ctx, http.MethodPost, "/sessions", draft, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// EndSession ends a session. The returned artifacts are nil when the
// server has no summary to report.
func (c *Client) EndSession(ctx context.Context, id string) (*types.Artifacts, error) {
	var artifacts *types.Artifacts
	if err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/end", nil, &artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// GetRecommendations fetches the current recommendation list
func (c *Client) GetRecommendations(ctx context.Context, id string) (*types.RecommendationList, error) {
	var list types.RecommendationList
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id)+"/recommendations", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// PreviewInvite resolves an invite token to a session without joining it
func (c *Client) PreviewInvite(ctx context.Context, inviteToken string) (*types.Session, error) {
	var sess types.Session
	if err := c.do(ctx, http.MethodGet, "/sessions/join/"+url.PathEscape(inviteToken), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// JoinSession joins the caller as a guest
func (c *Client) JoinSession(ctx context.Context, inviteToken string) (*types.Session, error) {
	var sess types.Session
	if err := c.do(ctx, http.MethodPost, "/sessions/join/"+url.PathEscape(inviteToken), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// LeaveSession removes the calling guest from a session
func (c *Client) LeaveSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id)+"/leave", nil, nil)
}

// RemoveGuest lets the host remove a guest
func (c *Client) RemoveGuest(ctx context.Context, id, guestID string) error {
	path := "/sessions/" + url.PathEscape(id) + "/guests/" + url.PathEscape(guestID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Vote adds the caller's vote to a recommendation and returns the updated list
func (c *Client) Vote(ctx context.Context, id, songID string) (*types.RecommendationList, error) {
	var list types.RecommendationList
	if err := c.do(ctx, http.MethodPost, votesPath(id, songID), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Unvote withdraws the caller's vote and returns the updated list
func (c *Client) Unvote(ctx context.Context, id, songID string) (*types.RecommendationList, error) {
	var list types.RecommendationList
	if err := c.do(ctx, http.MethodDelete, votesPath(id, songID), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SearchSongs finds songs whose name or artists start with pattern
func (c *Client) SearchSongs(ctx context.Context, pattern string) ([]types.Song, error) {
	var out []types.Song
	if err := c.do(ctx, http.MethodGet, "/songs/"+url.PathEscape(pattern), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func votesPath(id, songID string) string {
	return "/sessions/" + url.PathEscape(id) + "/recommendations/" + url.PathEscape(songID) + "/votes"
}

// do sends one request and decodes a JSON body into out. A 204 or an empty
// body leaves out untouched.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
