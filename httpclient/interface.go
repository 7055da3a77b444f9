package httpclient

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gaborage/go-outbound/auth"
	"github.com/gaborage/go-outbound/retry"
	"github.com/gaborage/go-outbound/trace"
)

// HeaderXRequestID is the standard header name for request correlation
const HeaderXRequestID = trace.HeaderXRequestID

// Client defines the REST client interface for making HTTP requests
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Head(ctx context.Context, req *Request) (*Response, error)
	Options(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)

	// SetAuthStrategy replaces the active authentication strategy. It
	// takes effect for any attempt that has not yet been authenticated;
	// in-flight requests keep the credentials already applied.
	SetAuthStrategy(s auth.Strategy)
	// ClearAuthStrategy removes the active strategy; subsequent
	// requests go out unauthenticated.
	ClearAuthStrategy()
}

// Request represents an HTTP request with all necessary data
type Request struct {
	// URL is the request target, absolute or relative to Config.BaseURL.
	URL string
	// Headers are merged over the client's default headers;
	// last write wins per header name.
	Headers map[string]string
	// Query parameters appended to the URL.
	Query map[string]string
	// Body is the raw request payload. Content-Type defaults to
	// application/json when a body is present and no type is set.
	Body []byte
	// Timeout overrides the client timeout for this call only.
	// Zero keeps the client default.
	Timeout time.Duration
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
	// Attempts is the number of wire requests made for this call,
	// including the final one.
	Attempts int
}

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the REST client configuration
type Config struct {
	// BaseURL resolves relative request URLs when set.
	BaseURL string
	// Timeout bounds each wire request (zero disables the transport
	// timeout; the context still applies).
	Timeout time.Duration
	// Retry governs which failed responses are re-attempted and how
	// long to back off between attempts.
	Retry                retry.Policy
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	DefaultHeaders       map[string]string
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header used for the per-attempt
	// correlation ID (default: X-Request-ID)
	TraceIDHeader string
	// NewTraceID generates the correlation ID for each wire request
	// (default: uuid)
	NewTraceID func() string
	// RateLimit caps outgoing requests per second across all callers of
	// this client. Zero means unlimited.
	RateLimit float64
	// RateBurst is the burst size when RateLimit is set (defaults to
	// ceil(RateLimit), minimum 1).
	RateBurst int
}
