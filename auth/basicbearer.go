package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gaborage/go-outbound/logger"
)

// DefaultExpirationBuffer is subtracted from a token's reported
// lifetime so renewal happens before the server-side expiry.
const DefaultExpirationBuffer = 60 * time.Second

// TokenExtractor pulls the bearer token out of a token-endpoint
// response body.
type TokenExtractor func(body []byte) (string, error)

// ExpiryExtractor pulls the token lifetime out of a token-endpoint
// response body.
type ExpiryExtractor func(body []byte) (time.Duration, error)

// BasicBearerConfig configures a BasicBearer strategy.
type BasicBearerConfig struct {
	// Username and Password are the basic credentials presented to the
	// token endpoint.
	Username string `validate:"required"`
	Password string `validate:"required"`
	// Method is the HTTP method for the token endpoint (default GET).
	Method string `validate:"omitempty,oneof=GET POST"`
	// TokenURL is the token-issuing endpoint.
	TokenURL string `validate:"required,url"`
	// ExpirationBuffer forces renewal this long before the reported
	// expiry (default 60s).
	ExpirationBuffer time.Duration `validate:"min=0"`
	// TokenExtractor and ExpiryExtractor decode the endpoint's response
	// shape. Defaults expect a nested data.data.token / data.data.expiresIn
	// JSON document with the expiry in milliseconds.
	TokenExtractor  TokenExtractor
	ExpiryExtractor ExpiryExtractor
	// HTTPClient performs the token-endpoint round trip. Defaults to a
	// client with a 30-second timeout.
	HTTPClient *nethttp.Client
	// Logger receives acquisition failures. Defaults to a no-op logger.
	Logger logger.Logger
}

// BasicBearer exchanges basic credentials for a bearer token at a
// remote endpoint and caches it until shortly before expiry. Concurrent
// callers needing a token share a single endpoint round trip.
type BasicBearer struct {
	username     string
	password     string
	method       string
	tokenURL     string
	buffer       time.Duration
	extractToken TokenExtractor
	extractTTL   ExpiryExtractor
	httpClient   *nethttp.Client
	log          logger.Logger
	now          func() time.Time

	mu        sync.Mutex
	sf        singleflight.Group
	token     string
	expiresAt time.Time
}

var (
	_ Strategy         = (*BasicBearer)(nil)
	_ TokenInvalidator = (*BasicBearer)(nil)
)

// NewBasicBearer creates a basic-then-bearer token exchange strategy.
func NewBasicBearer(cfg BasicBearerConfig) (*BasicBearer, error) {
	if err := checkParams("basic bearer", cfg); err != nil {
		return nil, err
	}
	if cfg.Method == "" {
		cfg.Method = nethttp.MethodGet
	}
	if cfg.ExpirationBuffer == 0 {
		cfg.ExpirationBuffer = DefaultExpirationBuffer
	}
	if cfg.TokenExtractor == nil {
		cfg.TokenExtractor = defaultTokenExtractor
	}
	if cfg.ExpiryExtractor == nil {
		cfg.ExpiryExtractor = defaultExpiryExtractor
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &BasicBearer{
		username:     cfg.Username,
		password:     cfg.Password,
		method:       cfg.Method,
		tokenURL:     cfg.TokenURL,
		buffer:       cfg.ExpirationBuffer,
		extractToken: cfg.TokenExtractor,
		extractTTL:   cfg.ExpiryExtractor,
		httpClient:   defaultEndpointClient(cfg.HTTPClient),
		log:          cfg.Logger,
		now:          time.Now,
	}, nil
}

// Apply attaches a bearer token to the request, obtaining a fresh one
// from the token endpoint when the cached token is missing or expired.
func (s *BasicBearer) Apply(ctx context.Context, req *nethttp.Request) error {
	token, err := s.bearerToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set(headerAuthorization, bearerPrefix+token)
	return nil
}

// Invalidate drops the cached token. The next Apply call hits the
// token endpoint regardless of the previously reported expiry.
func (s *BasicBearer) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

func (s *BasicBearer) bearerToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.tokenValidLocked() {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	v, err, _ := s.sf.Do("token", func() (any, error) {
		// A caller that waited on the flight may find the token already
		// renewed; re-check before going to the network.
		s.mu.Lock()
		if s.tokenValidLocked() {
			token := s.token
			s.mu.Unlock()
			return token, nil
		}
		s.mu.Unlock()
		return s.obtainToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *BasicBearer) tokenValidLocked() bool {
	return s.token != "" && s.now().Before(s.expiresAt)
}

// obtainToken calls the token endpoint with basic credentials and
// replaces the cached token. State is only mutated after the response
// passed both extractors, so a failed call leaves the cache untouched.
func (s *BasicBearer) obtainToken(ctx context.Context) (string, error) {
	req, err := nethttp.NewRequestWithContext(ctx, s.method, s.tokenURL, nethttp.NoBody)
	if err != nil {
		s.logFailure("building token request failed", err)
		return "", ErrTokenUnavailable
	}
	req.SetBasicAuth(s.username, s.password)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logFailure("token endpoint request failed", err)
		return "", ErrTokenUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logFailure("reading token response failed", err)
		return "", ErrTokenUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logFailure("token endpoint returned non-success status",
			fmt.Errorf("status %d", resp.StatusCode))
		return "", ErrTokenUnavailable
	}

	token, err := s.extractToken(body)
	if err != nil || token == "" {
		s.logFailure("extracting token from response failed", err)
		return "", ErrTokenUnavailable
	}
	ttl, err := s.extractTTL(body)
	if err != nil {
		s.logFailure("extracting token expiry from response failed", err)
		return "", ErrTokenUnavailable
	}

	expiresAt := s.now().Add(ttl - s.buffer)
	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()
	return token, nil
}

func (s *BasicBearer) logFailure(msg string, err error) {
	s.log.Error().
		Err(err).
		Str("token_url", s.tokenURL).
		Msg(msg)
}

// defaultTokenExtractor reads the nested data.data.token field.
func defaultTokenExtractor(body []byte) (string, error) {
	payload, err := decodeTokenEnvelope(body)
	if err != nil {
		return "", err
	}
	if payload.Data.Data.Token == "" {
		return "", fmt.Errorf("token response missing data.data.token")
	}
	return payload.Data.Data.Token, nil
}

// defaultExpiryExtractor reads data.data.expiresIn as milliseconds.
func defaultExpiryExtractor(body []byte) (time.Duration, error) {
	payload, err := decodeTokenEnvelope(body)
	if err != nil {
		return 0, err
	}
	if payload.Data.Data.ExpiresIn <= 0 {
		return 0, fmt.Errorf("token response missing data.data.expiresIn")
	}
	return time.Duration(payload.Data.Data.ExpiresIn) * time.Millisecond, nil
}

type tokenEnvelope struct {
	Data struct {
		Data struct {
			Token     string `json:"token"`
			ExpiresIn int64  `json:"expiresIn"`
		} `json:"data"`
	} `json:"data"`
}

func decodeTokenEnvelope(body []byte) (*tokenEnvelope, error) {
	var payload tokenEnvelope
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	return &payload, nil
}
