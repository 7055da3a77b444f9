package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	nethttp "net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-outbound/auth"
	"github.com/gaborage/go-outbound/logger"
	"github.com/gaborage/go-outbound/retry"
	"github.com/gaborage/go-outbound/trace"
)

const (
	// DefaultTimeout is the default request timeout duration
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPayloadLogBytes caps payload log output when no limit is configured
	DefaultMaxPayloadLogBytes = 1024

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	limiter              *rate.Limiter
	callCount            int64

	authMu       sync.RWMutex
	authStrategy auth.Strategy
}

func defaultConfig() *Config {
	return &Config{
		Timeout:              DefaultTimeout,
		Retry:                retry.Default(),
		RequestInterceptors:  []RequestInterceptor{},
		ResponseInterceptors: []ResponseInterceptor{},
		DefaultHeaders:       map[string]string{"Accept": "*/*"},
		MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
		TraceIDHeader:        trace.HeaderXRequestID,
		NewTraceID:           trace.NewID,
	}
}

// NewClient creates a new REST client with default configuration
func NewClient(log logger.Logger) Client {
	return newClient(defaultConfig(), log, nil)
}

func newClient(cfg *Config, log logger.Logger, strategy auth.Strategy) *client {
	if cfg.MaxPayloadLogBytes <= 0 {
		cfg.MaxPayloadLogBytes = DefaultMaxPayloadLogBytes
	}
	if cfg.TraceIDHeader == "" {
		cfg.TraceIDHeader = trace.HeaderXRequestID
	}
	if cfg.NewTraceID == nil {
		cfg.NewTraceID = trace.NewID
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(math.Ceil(cfg.RateLimit))
			if burst < 1 {
				burst = 1
			}
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &client{
		httpClient: &nethttp.Client{
			Timeout: cfg.Timeout,
		},
		logger:               log,
		config:               cfg,
		requestInterceptors:  cfg.RequestInterceptors,
		responseInterceptors: cfg.ResponseInterceptors,
		limiter:              limiter,
		authStrategy:         strategy,
	}
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config   *Config
	logger   logger.Logger
	strategy auth.Strategy
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: log,
	}
}

// WithTimeout sets the request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithBaseURL sets the base URL for resolving relative request URLs
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithRetryPolicy sets the retry policy
func (b *Builder) WithRetryPolicy(policy retry.Policy) *Builder {
	b.config.Retry = policy
	return b
}

// WithAuthStrategy sets the initial authentication strategy
func (b *Builder) WithAuthStrategy(s auth.Strategy) *Builder {
	b.strategy = s
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug-level payload logging capped at maxBytes
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithTraceIDHeader overrides the correlation ID header name
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.TraceIDHeader = header
	}
	return b
}

// WithRateLimit caps outgoing requests per second with the given burst
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	b.config.RateLimit = rps
	b.config.RateBurst = burst
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	return newClient(b.config, b.logger, b.strategy)
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Head performs a HEAD request
func (c *client) Head(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodHead, req)
}

// Options performs an OPTIONS request
func (c *client) Options(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodOptions, req)
}

// SetAuthStrategy replaces the active authentication strategy
func (c *client) SetAuthStrategy(s auth.Strategy) {
	c.authMu.Lock()
	c.authStrategy = s
	c.authMu.Unlock()
}

// ClearAuthStrategy removes the active authentication strategy
func (c *client) ClearAuthStrategy() {
	c.SetAuthStrategy(nil)
}

func (c *client) strategy() auth.Strategy {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.authStrategy
}

// Do performs an HTTP request with the specified method, retrying
// retryable response statuses per the configured policy.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	targetURL, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)
	policy := c.config.Retry

	// Bounded loop: attempt counts completed retries, so the total
	// number of wire requests is at most policy.MaxAttempts+1.
	for attempt := 0; ; attempt++ {
		resp, err := c.doAttempt(ctx, method, targetURL, req, start, callCount, attempt)
		if err != nil {
			// Auth, interceptor, and transport failures carry no
			// retryable HTTP status and are surfaced immediately.
			return nil, err
		}

		if IsSuccessStatus(resp.StatusCode) {
			return resp, nil
		}

		if policy.ShouldRetry(resp.StatusCode, attempt) {
			delay := policy.Delay(attempt + 1)
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Str("url", targetURL).
				Msg("retrying request")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, NewNetworkError("retry backoff interrupted", err)
			}
			continue
		}

		return resp, NewHTTPError(
			fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}
}

// doAttempt performs a single wire request: build, authenticate,
// dispatch, and read the response.
func (c *client) doAttempt(ctx context.Context, method, targetURL string, req *Request, start time.Time, callCount int64, attempt int) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewNetworkError("rate limit wait aborted", err)
		}
	}

	attemptCtx := ctx
	cancel := func() {}
	if req.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()

	httpReq, correlationID, err := c.buildRequest(attemptCtx, method, targetURL, req)
	if err != nil {
		return nil, err
	}

	c.logRequest(httpReq, req.Body, correlationID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Failures without an HTTP status are outside the retry
		// predicate and propagate immediately.
		if c.isTimeout(err) {
			return nil, NewTimeoutError("request timeout", c.effectiveTimeout(req))
		}
		return nil, NewNetworkError("request execution failed", err)
	}

	resp, err := c.buildResponse(attemptCtx, start, callCount, attempt+1, httpReq, httpResp)
	if err != nil {
		return nil, err
	}

	c.logResponse(resp, correlationID)
	return resp, nil
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" && c.config.BaseURL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

// resolveURL resolves the request URL against the configured base URL
// and appends query parameters.
func (c *client) resolveURL(req *Request) (string, error) {
	raw := req.URL
	if c.config.BaseURL != "" {
		base, err := url.Parse(c.config.BaseURL)
		if err != nil {
			return "", NewValidationError("invalid base URL", "baseURL")
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return "", NewValidationError("invalid URL", "url")
		}
		raw = base.ResolveReference(ref).String()
	}

	if len(req.Query) > 0 {
		parsed, err := url.Parse(raw)
		if err != nil {
			return "", NewValidationError("invalid URL", "url")
		}
		q := parsed.Query()
		for key, value := range req.Query {
			q.Set(key, value)
		}
		parsed.RawQuery = q.Encode()
		raw = parsed.String()
	}

	return raw, nil
}

// applyHeaders applies headers to the HTTP request. Default headers go
// first so per-call headers override them.
func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get(headerContentType) == "" && req.Body != nil {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}
}

// buildRequest constructs an *http.Request: merged headers, a fresh
// correlation ID, the authentication strategy (last header writer), and
// request interceptors, in that order.
func (c *client) buildRequest(ctx context.Context, method, targetURL string, req *Request) (*nethttp.Request, string, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, "", NewNetworkError("failed to create HTTP request", err)
	}

	c.applyHeaders(httpReq, req)

	// A new correlation ID per wire request: a retry is a distinct
	// request on the wire and must be traceable as such.
	correlationID := c.config.NewTraceID()
	httpReq.Header.Set(c.config.TraceIDHeader, correlationID)

	if strategy := c.strategy(); strategy != nil {
		if err := strategy.Apply(ctx, httpReq); err != nil {
			return nil, "", NewAuthError("authentication strategy failed", err)
		}
	}

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, "", NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, correlationID, nil
}

// buildResponse runs response interceptors, reads the body, and builds a Response.
func (c *client) buildResponse(ctx context.Context, start time.Time, callCount int64, attempts int, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
			Attempts:    attempts,
		},
	}, nil
}

// sleep waits for the backoff delay, aborting when ctx is canceled.
func (c *client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *client) effectiveTimeout(req *Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return c.config.Timeout
}

func (c *client) isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}
