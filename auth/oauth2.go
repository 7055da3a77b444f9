package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gaborage/go-outbound/logger"
)

// refreshBuffer forces an OAuth2 refresh five minutes ahead of the
// known expiry. Unlike BasicBearer's buffer it is not configurable.
const refreshBuffer = 5 * time.Minute

// OAuth2Token is the initial token material handed to NewOAuth2.
type OAuth2Token struct {
	AccessToken  string `validate:"required"`
	RefreshToken string `validate:"required"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `validate:"gt=0"`
}

// OAuth2Config configures an OAuth2 strategy.
type OAuth2Config struct {
	ClientID        string `validate:"required"`
	ClientSecret    string `validate:"required"`
	TokenRefreshURL string `validate:"required,url"`
	Token           OAuth2Token
	// HTTPClient performs the refresh round trip. Defaults to a client
	// with a 30-second timeout.
	HTTPClient *nethttp.Client
	// Logger receives refresh failures. Defaults to a no-op logger.
	Logger logger.Logger
}

// OAuth2 authenticates requests with an OAuth2 access token and renews
// it via the refresh_token grant (RFC 6749 section 6) when the token
// approaches expiry. Concurrent renewals share one round trip.
type OAuth2 struct {
	clientID     string
	clientSecret string
	refreshURL   string
	httpClient   *nethttp.Client
	log          logger.Logger
	now          func() time.Time

	mu           sync.Mutex
	sf           singleflight.Group
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

var (
	_ Strategy       = (*OAuth2)(nil)
	_ TokenRefresher = (*OAuth2)(nil)
)

// NewOAuth2 creates an OAuth2 strategy seeded with initial token
// material obtained out of band.
func NewOAuth2(cfg OAuth2Config) (*OAuth2, error) {
	if err := checkParams("oauth2", cfg); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	s := &OAuth2{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshURL:   cfg.TokenRefreshURL,
		httpClient:   defaultEndpointClient(cfg.HTTPClient),
		log:          cfg.Logger,
		now:          time.Now,
		accessToken:  cfg.Token.AccessToken,
		refreshToken: cfg.Token.RefreshToken,
	}
	s.expiresAt = s.now().Add(time.Duration(cfg.Token.ExpiresIn) * time.Second)
	return s, nil
}

// Apply attaches the access token to the request, refreshing it first
// when it is missing or within the refresh buffer of its expiry.
func (s *OAuth2) Apply(ctx context.Context, req *nethttp.Request) error {
	token, err := s.currentAccessToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set(headerAuthorization, bearerPrefix+token)
	return nil
}

// Refresh exchanges the refresh token for a new access token. Cached
// fields are replaced only after the response is fully validated; a
// failed refresh leaves the previous token material intact.
func (s *OAuth2) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, s.refreshURL, strings.NewReader(form.Encode()))
	if err != nil {
		s.logFailure("building refresh request failed", err)
		return ErrRefreshFailed
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logFailure("refresh request failed", err)
		return ErrRefreshFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logFailure("reading refresh response failed", err)
		return ErrRefreshFailed
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logFailure("refresh endpoint returned non-success status",
			fmt.Errorf("status %d", resp.StatusCode))
		return ErrRefreshFailed
	}

	var payload struct {
		AccessToken  string  `json:"access_token"`
		RefreshToken string  `json:"refresh_token"`
		ExpiresIn    float64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logFailure("decoding refresh response failed", err)
		return ErrRefreshFailed
	}
	if payload.AccessToken == "" {
		s.logFailure("refresh response missing access_token", nil)
		return ErrRefreshFailed
	}

	expiresAt := time.Time{}
	if payload.ExpiresIn > 0 {
		expiresAt = s.now().Add(time.Duration(payload.ExpiresIn * float64(time.Second)))
	}

	s.mu.Lock()
	s.accessToken = payload.AccessToken
	// Some providers omit refresh_token from the refresh response; the
	// previous one stays valid in that case.
	if payload.RefreshToken != "" {
		s.refreshToken = payload.RefreshToken
	}
	s.expiresAt = expiresAt
	s.mu.Unlock()
	return nil
}

func (s *OAuth2) currentAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if !s.shouldRefreshLocked() {
		token := s.accessToken
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	_, err, _ := s.sf.Do("refresh", func() (any, error) {
		s.mu.Lock()
		if !s.shouldRefreshLocked() {
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()
		return nil, s.Refresh(ctx)
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	token := s.accessToken
	s.mu.Unlock()
	if token == "" {
		return "", ErrRefreshFailed
	}
	return token, nil
}

// shouldRefreshLocked reports whether the access token needs renewal:
// no token, no known expiry, or inside the refresh buffer.
func (s *OAuth2) shouldRefreshLocked() bool {
	if s.accessToken == "" || s.expiresAt.IsZero() {
		return true
	}
	return !s.now().Before(s.expiresAt.Add(-refreshBuffer))
}

func (s *OAuth2) logFailure(msg string, err error) {
	s.log.Error().
		Err(err).
		Str("token_refresh_url", s.refreshURL).
		Msg(msg)
}
