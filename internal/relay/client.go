package relay

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
)

// API defines the relay operations the rest of wakubase depends on.
// It is implemented by *Client and replaced by fakes in tests.
type API interface {
	Health(ctx context.Context) error
	Subscribe(ctx context.Context, topics ...string) error
	Messages(ctx context.Context, topic string) ([]Message, error)
	Publish(ctx context.Context, msg Message) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// URLSource yields the node base URL. It is consulted on every request so
// that settings changes take effect without rebuilding the client.
type URLSource interface {
	NodeURL() string
}

// StaticURL is a URLSource with a fixed value.
type StaticURL string

// NodeURL implements URLSource.
func (s StaticURL) NodeURL() string { return string(s) }

// Client talks to the relay node REST API.
type Client struct {
	source    URLSource
	http      *http.Client
	userAgent string
}

const (
	defaultNodeURL   = "http://127.0.0.1:8645"
	defaultUserAgent = "wakubase/0.1"
	// DefaultTimeout bounds every request unless overridden with WithTimeout.
	DefaultTimeout = 5 * time.Second

	healthPath        = "/health"
	subscriptionsPath = "/relay/v1/auto/subscriptions"
	messagesPath      = "/relay/v1/auto/messages"

	// maxErrorBody caps how much of a failed response ends up in errors.
	maxErrorBody = 4096
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client that reads the node URL from source.
func NewClient(source URLSource, opts ...Option) *Client {
	if source == nil {
		source = StaticURL(defaultNodeURL)
	}
	c := &Client{
		source: source,
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health probes GET /health. Only a 200 response counts as healthy.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	resp, err := c.send(ctx, http.MethodGet, healthPath, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return newStatusError(healthPath, resp)
	}
	return nil
}

// Subscribe asks the node to start relaying the given content topics.
func (c *Client) Subscribe(ctx context.Context, topics ...string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if topics == nil {
		topics = []string{}
	}
	body, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	headers := http.Header{}
	headers.Set("Accept", "text/plain")
	headers.Set("Content-Type", "application/json")
	return c.expectOK(ctx, http.MethodPost, subscriptionsPath, body, headers)
}

// Messages fetches the messages cached by the node for topic.
func (c *Client) Messages(ctx context.Context, topic string) ([]Message, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	path := messagesPath + "/" + escapeTopic(topic)
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	resp, err := c.send(ctx, http.MethodGet, path, nil, headers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(path, resp)
	}
	var payload []Message
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}

// Publish posts msg to the node for relaying.
func (c *Client) Publish(ctx context.Context, msg Message) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	return c.expectOK(ctx, http.MethodPost, messagesPath, body, headers)
}

func (c *Client) expectOK(ctx context.Context, method, path string, body []byte, headers http.Header) error {
	resp, err := c.send(ctx, method, path, body, headers)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(path, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// topicEscaper maps url.QueryEscape output onto URI component escaping:
// spaces become %20 and the sub-delims !'()* stay literal.
var topicEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeTopic encodes topic as a single path segment.
func escapeTopic(topic string) string {
	return topicEscaper.Replace(url.QueryEscape(topic))
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, headers http.Header) (*http.Response, error) {
	base, err := parseBaseURL(c.source.NodeURL())
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// parseBaseURL normalizes a node URL into a prefix that request paths can be
// appended to. A path prefix on the node URL is kept.
func parseBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultNodeURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse node url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse node url %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}
