package auth

import (
	"context"
	nethttp "net/http"
)

// DefaultAPIKeyHeader is the header used by APIKey when none is configured.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKey authenticates requests with a static key in a single header.
type APIKey struct {
	key    string
	header string
}

// NewAPIKey creates an API key strategy. headerName may be empty, in
// which case DefaultAPIKeyHeader is used.
func NewAPIKey(key, headerName string) (*APIKey, error) {
	params := struct {
		Key string `validate:"required"`
	}{Key: key}
	if err := checkParams("api key", params); err != nil {
		return nil, err
	}
	if headerName == "" {
		headerName = DefaultAPIKeyHeader
	}
	return &APIKey{key: key, header: headerName}, nil
}

// Apply sets the API key header, overwriting any caller-supplied value.
func (s *APIKey) Apply(_ context.Context, req *nethttp.Request) error {
	req.Header.Set(s.header, s.key)
	return nil
}

// Basic authenticates requests with HTTP basic credentials. Base64
// encoding is the transport's responsibility, not the strategy's.
type Basic struct {
	username string
	password string
}

// NewBasic creates a basic-auth strategy.
func NewBasic(username, password string) (*Basic, error) {
	params := struct {
		Username string `validate:"required"`
		Password string `validate:"required"`
	}{Username: username, Password: password}
	if err := checkParams("basic", params); err != nil {
		return nil, err
	}
	return &Basic{username: username, password: password}, nil
}

// Apply sets transport-level basic auth credentials on the request.
func (s *Basic) Apply(_ context.Context, req *nethttp.Request) error {
	req.SetBasicAuth(s.username, s.password)
	return nil
}

// BearerToken authenticates requests with a fixed bearer token.
type BearerToken struct {
	token string
}

// NewBearerToken creates a fixed bearer token strategy.
func NewBearerToken(token string) (*BearerToken, error) {
	params := struct {
		Token string `validate:"required"`
	}{Token: token}
	if err := checkParams("bearer token", params); err != nil {
		return nil, err
	}
	return &BearerToken{token: token}, nil
}

// Apply sets the Authorization header, overwriting any caller value.
func (s *BearerToken) Apply(_ context.Context, req *nethttp.Request) error {
	req.Header.Set(headerAuthorization, bearerPrefix+s.token)
	return nil
}
