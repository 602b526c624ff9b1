// Package http is the JSON client the outbound REST integrations share.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// RequestOption modifies a single outbound request.
type RequestOption func(*http.Request)

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// Middleware wraps the client transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// HTTPError is returned for 4xx and 5xx responses.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Method     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d %s: %s", e.Method, e.URL, e.StatusCode, e.Status, e.Body)
}

// HTTPClient sends JSON requests relative to a base URL. It never retries.
type HTTPClient struct {
	httpClient  *http.Client
	baseURL     string
	middlewares []Middleware
	logger      *zap.Logger
}

// NewHTTPClient creates an HTTPClient. Middlewares wrap the transport in the
// order given, the first being outermost.
func NewHTTPClient(options ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(c)
	}

	if len(c.middlewares) > 0 {
		transport := c.httpClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		for i := len(c.middlewares) - 1; i >= 0; i-- {
			transport = c.middlewares[i](transport)
		}
		c.httpClient.Transport = transport
	}
	return c
}

// WithBaseURL sets the URL request paths are resolved against.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *HTTPClient) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithTimeout bounds each request including reading the response headers.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMiddleware appends a transport middleware.
func WithMiddleware(middleware Middleware) ClientOption {
	return func(c *HTTPClient) { c.middlewares = append(c.middlewares, middleware) }
}

// WithLogger sets the logger used for request outcomes.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBearerToken sets the Authorization header.
func WithBearerToken(token string) RequestOption {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

// Post sends body as JSON.
func (c *HTTPClient) Post(ctx context.Context, path string, body interface{}, options ...RequestOption) (*http.Response, error) {
	return c.DoRequest(ctx, http.MethodPost, path, body, options...)
}

// DoRequest sends one request. For 4xx/5xx it returns the response, with its
// body buffered, together with an *HTTPError.
func (c *HTTPClient) DoRequest(ctx context.Context, method, path string, body interface{}, options ...RequestOption) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	for _, option := range options {
		option(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	log := c.logger.With(
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.Duration("duration", time.Since(start)))

	if err != nil {
		log.Error("HTTP request failed", zap.Error(err))
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.StatusCode < 400 {
		log.Debug("HTTP request successful", zap.Int("status", resp.StatusCode))
		return resp, nil
	}

	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	log.Warn("HTTP error response", zap.Int("status", resp.StatusCode))
	return resp, &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		URL:        req.URL.String(),
		Method:     method,
		Body:       string(raw),
	}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ProcessJSONResponse decodes resp into target and closes the body.
func (c *HTTPClient) ProcessJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func (c *HTTPClient) resolveURL(path string) string {
	if c.baseURL == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// LoggingMiddleware logs each round trip at debug level.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			logger.Debug("HTTP request started",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()))

			resp, err := next.RoundTrip(req)
			if err != nil {
				return resp, err
			}

			logger.Debug("HTTP response received",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", time.Since(start)))
			return resp, nil
		})
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
