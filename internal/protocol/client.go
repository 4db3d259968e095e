package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
)

const maxBodyBytes = 4 << 20

// Client talks to the backend over HTTP.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	schema    *validator
	logger    *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, core.ErrConfig(core.CodeInvalidConfig, fmt.Sprintf("invalid backend url %q", baseURL)).WithCause(err)
	}
	schema, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("compiling response schemas: %w", err)
	}
	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: core.DefaultBackendTimeout},
		userAgent: "welfare-chat",
		schema:    schema,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Chat sends a question.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.LastResultIDs == nil {
		req.LastResultIDs = []string{}
	}
	if req.ChatHistory == nil {
		req.ChatHistory = []conversation.Turn{}
	}
	body, err := c.do(ctx, http.MethodPost, "/chat", req)
	if err != nil {
		return nil, err
	}
	if err := check(c.schema.chat, body, "chat response"); err != nil {
		return nil, err
	}
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, core.ErrProtocol(core.CodeBadPayload, "decoding chat response").WithCause(err)
	}
	return &resp, nil
}

// Result fetches the state of a deferred job.
func (c *Client) Result(ctx context.Context, jobID string) (*JobResult, error) {
	body, err := c.do(ctx, http.MethodGet, "/get_result/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	if err := check(c.schema.job, body, "job result"); err != nil {
		return nil, err
	}
	var res JobResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, core.ErrProtocol(core.CodeBadPayload, "decoding job result").WithCause(err)
	}
	return &res, nil
}

// Feedback submits a rating. The reply body is ignored.
func (c *Client) Feedback(ctx context.Context, req FeedbackRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/feedback", req)
	return err
}

// Health probes GET /health.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s body: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.ErrTransport(fmt.Sprintf("%s %s failed", method, path)).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, core.ErrTransport(fmt.Sprintf("reading %s reply", path)).WithCause(err)
	}
	c.logger.Debug("backend call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := core.ErrTransport(fmt.Sprintf("%s %s: %s", method, path, resp.Status)).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", truncate(string(data), 200))
		statusErr.Code = core.CodeBadStatus
		return nil, statusErr
	}
	return data, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
