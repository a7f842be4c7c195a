// Package client provides a typed HTTP client for the taskdeck API. It
// handles the response envelope, bearer token authentication, and exposes
// one method per API operation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
	TraceID    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// envelope matches the server's response wrapper.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     []FieldError    `json:"errors"`
	Pagination *Pagination     `json:"pagination"`
	TraceID    string          `json:"traceId"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the initial bearer token, for resuming a stored session.
func WithToken(token, refreshToken string) Option {
	return func(c *Client) {
		c.token = token
		c.refreshToken = refreshToken
	}
}

// Client is a taskdeck API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.RWMutex
	token        string
	refreshToken string
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current access token, empty when not authenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setTokens(token, refreshToken string) {
	c.mu.Lock()
	c.token = token
	c.refreshToken = refreshToken
	c.mu.Unlock()
}

// Register creates a new account and stores the returned tokens on the
// client.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var result AuthResult
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &result); err != nil {
		return nil, err
	}
	c.setTokens(result.Token, result.RefreshToken)
	return &result, nil
}

// Login authenticates and stores the returned tokens on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result AuthResult
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	c.setTokens(result.Token, result.RefreshToken)
	return &result, nil
}

// RefreshSession exchanges the stored refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context) (*AuthResult, error) {
	c.mu.RLock()
	refreshToken := c.refreshToken
	c.mu.RUnlock()
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	body := map[string]string{"refreshToken": refreshToken}
	var result AuthResult
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/refresh", body, &result); err != nil {
		return nil, err
	}
	c.setTokens(result.Token, result.RefreshToken)
	return &result, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Verify checks that the stored access token is still accepted.
func (c *Client) Verify(ctx context.Context) (bool, error) {
	var data struct {
		Valid bool `json:"valid"`
		User  User `json:"user"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/verify", nil, &data); err != nil {
		return false, err
	}
	return data.Valid, nil
}

// CreateTask creates a task for the authenticated user.
func (c *Client) CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error) {
	var task Task
	if _, err := c.do(ctx, http.MethodPost, "/api/tasks", input, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns one page of tasks matching the options, along with the
// pagination block describing the full result set.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]Task, *Pagination, error) {
	var tasks []Task
	env, err := c.do(ctx, http.MethodGet, "/api/tasks"+opts.queryString(), nil, &tasks)
	if err != nil {
		return nil, nil, err
	}
	return tasks, env.Pagination, nil
}

// GetTask returns a single task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if _, err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*Task, error) {
	var task Task
	if _, err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), input, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task by ID.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
	return err
}

// TaskStats returns the authenticated user's aggregate task counts.
func (c *Client) TaskStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if _, err := c.do(ctx, http.MethodGet, "/api/tasks/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetProfile returns the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodGet, "/api/user/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial update to the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodPut, "/api/user/profile", input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword changes the authenticated user's password.
func (c *Client) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}
	_, err := c.do(ctx, http.MethodPut, "/api/user/password", body, nil)
	return err
}

// DeleteAccount deletes the authenticated user's account and all their
// tasks, then clears the stored tokens.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodDelete, "/api/user/account", nil, nil); err != nil {
		return err
	}
	c.setTokens("", "")
	return nil
}

// do performs one API request, decoding the envelope and unmarshaling its
// data payload into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (*envelope, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Fields:     env.Errors,
			TraceID:    env.TraceID,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return &env, nil
}

// queryString renders the options as a URL query string, empty when no
// option is set.
func (o ListOptions) queryString() string {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Priority != "" {
		q.Set("priority", o.Priority)
	}
	if len(o.Tags) > 0 {
		q.Set("tags", strings.Join(o.Tags, ","))
	}
	if o.SortBy != "" {
		q.Set("sortBy", o.SortBy)
	}
	if o.Order != "" {
		q.Set("order", o.Order)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
