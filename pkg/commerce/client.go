package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	defaultBaseURL              = "http://localhost:3618"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

// Observer receives one observation per backend round trip.
type Observer interface {
	ObserveBackend(endpoint string, status int, duration time.Duration)
}

// Client wraps the commerce REST API the storefront reads carts, products and vouchers from.
type Client struct {
	httpClient *http.Client
	baseURL    string
	observer   Observer
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithObserver records request metrics.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient builds the commerce API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client
}

// BaseURL reports the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type call struct {
	endpoint string
	method   string
	path     string
	token    string
	body     any
}

// do executes the call and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, req call, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+req.endpoint+" request")
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.path), payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+req.endpoint+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.endpoint, 0, start)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+req.endpoint+" request")
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(req.endpoint, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return statusError(req.endpoint, resp.StatusCode, msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+req.endpoint+" response")
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveBackend(endpoint, status, time.Since(start))
	}
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

// statusError maps a non-2xx response onto a coded error carrying the backend message.
func statusError(endpoint string, status int, body []byte) error {
	message := upstreamMessage(body)
	cause := fmt.Errorf("status %d: %s", status, message)

	var code pkgerrors.Code
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status >= 500:
		code = pkgerrors.CodeDependency
	default:
		code = pkgerrors.CodeUpstream
	}

	err := pkgerrors.Wrap(code, cause, endpoint+" request failed")
	if pkgerrors.MetadataFor(code).DetailsAllowed {
		details := map[string]any{"status": status}
		if message != "" {
			details["message"] = message
		}
		err = err.WithDetails(details)
	}
	return err
}

func upstreamMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(body))
}
