// Package auth provides pluggable authentication strategies for the
// outbound HTTP client. A strategy attaches authentication material to
// an outgoing request and touches nothing else.
//
// Stateless strategies (APIKey, Basic, BearerToken) never fail once
// constructed. Stateful strategies (BasicBearer, OAuth2) cache a token
// obtained from a remote endpoint and renew it ahead of expiry;
// concurrent renewals are collapsed into a single round trip.
package auth

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	// defaultEndpointTimeout bounds token-endpoint round trips when the
	// caller did not supply an HTTP client.
	defaultEndpointTimeout = 30 * time.Second
)

// Strategy attaches authentication material to an outgoing request.
// Implementations must be safe for concurrent use and must leave every
// request field other than headers and transport auth untouched.
type Strategy interface {
	Apply(ctx context.Context, req *nethttp.Request) error
}

// TokenInvalidator is implemented by strategies holding a cached token
// that a caller can force-expire, e.g. after observing a 401 response
// despite an apparently valid token.
type TokenInvalidator interface {
	Invalidate()
}

// TokenRefresher is implemented by strategies that can renew their
// credentials on demand.
type TokenRefresher interface {
	Refresh(ctx context.Context) error
}

// ErrTokenUnavailable is returned when a token-issuing call fails or
// its response lacks the expected token fields. The underlying cause is
// logged, not returned, so credentials and endpoint internals never
// leak to callers.
var ErrTokenUnavailable = errors.New("authentication failed: unable to obtain token")

// ErrRefreshFailed is returned when an OAuth2 refresh grant fails. As
// with ErrTokenUnavailable, the cause is logged rather than surfaced.
var ErrRefreshFailed = errors.New("authentication failed: unable to refresh access token")

// ConfigError reports malformed strategy construction arguments. It is
// returned by the New* constructors, never at Apply time.
type ConfigError struct {
	Strategy string
	cause    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s strategy configuration: %v", e.Strategy, e.cause)
}

func (e *ConfigError) Unwrap() error {
	return e.cause
}

// IsConfigError reports whether err is a strategy configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

var validate = validator.New()

func newConfigError(strategy string, cause error) error {
	return &ConfigError{Strategy: strategy, cause: cause}
}

func checkParams(strategy string, params any) error {
	if err := validate.Struct(params); err != nil {
		return newConfigError(strategy, err)
	}
	return nil
}

func defaultEndpointClient(c *nethttp.Client) *nethttp.Client {
	if c != nil {
		return c
	}
	return &nethttp.Client{Timeout: defaultEndpointTimeout}
}
