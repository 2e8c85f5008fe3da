// Package taskapi is a fasthttp client for the task backend's /tasks resource.
package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
)

// DefaultBaseURL is where the board expects the backend when nothing is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// APIError is returned when the backend answers with a non-2xx status.
// Message holds the backend's own error text and is empty when the response
// carried none.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// UserMessage returns the backend's error text, or "" if it sent none.
func (e *APIError) UserMessage() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Client talks to the backend over fasthttp.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout bounds each request when the caller's context has no deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithDialer replaces the TCP dialer, e.g. with an in-memory listener.
func WithDialer(dial fasthttp.DialFunc) Option {
	return func(c *Client) {
		c.http.Dial = dial
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client for baseURL (for example http://localhost:8000/api).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name:                     "taskboard",
			NoDefaultUserAgentHeader: true,
		},
		timeout: 10 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every task held by the backend.
func (c *Client) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, fasthttp.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get returns a single task.
func (c *Client) Get(ctx context.Context, id string) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, fasthttp.MethodGet, taskPath(id), nil, &task)
	return task, err
}

// Create sends a new task and returns the backend's copy of it.
func (c *Client) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	var created domain.Task
	err := c.do(ctx, fasthttp.MethodPost, "/tasks", task, &created)
	return created, err
}

// Update sends a partial update and returns the full updated task.
func (c *Client) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	var updated domain.Task
	err := c.do(ctx, fasthttp.MethodPut, taskPath(id), patch, &updated)
	return updated, err
}

// Delete removes a task. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, fasthttp.MethodDelete, taskPath(id), nil, nil)
}

// Events returns the change history recorded for a task.
func (c *Client) Events(ctx context.Context, id string) ([]domain.TaskEvent, error) {
	var events []domain.TaskEvent
	if err := c.do(ctx, fasthttp.MethodGet, taskPath(id)+"/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	c.logger.Debug("request completed", zap.String("method", method), zap.String("path", path), zap.Int("status", status))

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return decodeError(status, resp.Body())
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	return decodeBody(resp.Body(), out)
}

// envelope mirrors transport.Envelope without importing the server packages.
type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  json.RawMessage `json:"error"`
}

// decodeBody accepts either a bare JSON payload or one wrapped in an envelope.
func decodeBody(body []byte, out interface{}) error {
	payload := body
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Status != "" {
		payload = env.Data
	}
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apiErr
	}
	apiErr.Code = env.Code
	apiErr.Message = errorMessage(env.Error)
	return apiErr
}

// errorMessage extracts text from an "error" field that may be a string or an
// object carrying a message.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
