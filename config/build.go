package config

import (
	"fmt"

	"github.com/gaborage/go-outbound/auth"
	"github.com/gaborage/go-outbound/httpclient"
	"github.com/gaborage/go-outbound/logger"
	"github.com/gaborage/go-outbound/retry"
)

// NewLogger creates a logger from the Log section.
func (c *Config) NewLogger() logger.Logger {
	return logger.New(c.Log.Level, c.Log.Pretty)
}

// RetryPolicy materializes the Retry section.
func (c *Config) RetryPolicy() retry.Policy {
	codes := c.Retry.StatusCodes
	if len(codes) == 0 {
		codes = retry.DefaultStatusCodes
	}
	return retry.Policy{
		StatusCodes: codes,
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
	}
}

// AuthStrategy materializes the Auth section into a strategy. It
// returns nil when the configured type is "none".
func (c *Config) AuthStrategy(log logger.Logger) (auth.Strategy, error) {
	switch c.Auth.Type {
	case AuthNone:
		return nil, nil
	case AuthAPIKey:
		return auth.NewAPIKey(c.Auth.APIKey.Key, c.Auth.APIKey.Header)
	case AuthBasic:
		return auth.NewBasic(c.Auth.Basic.Username, c.Auth.Basic.Password)
	case AuthBearer:
		return auth.NewBearerToken(c.Auth.Bearer.Token)
	case AuthBasicBearer:
		return auth.NewBasicBearer(auth.BasicBearerConfig{
			Username:         c.Auth.BasicBearer.Username,
			Password:         c.Auth.BasicBearer.Password,
			TokenURL:         c.Auth.BasicBearer.TokenURL,
			Method:           c.Auth.BasicBearer.Method,
			ExpirationBuffer: c.Auth.BasicBearer.ExpirationBuffer,
			Logger:           log,
		})
	case AuthOAuth2:
		return auth.NewOAuth2(auth.OAuth2Config{
			ClientID:        c.Auth.OAuth2.ClientID,
			ClientSecret:    c.Auth.OAuth2.ClientSecret,
			TokenRefreshURL: c.Auth.OAuth2.TokenRefreshURL,
			Token: auth.OAuth2Token{
				AccessToken:  c.Auth.OAuth2.AccessToken,
				RefreshToken: c.Auth.OAuth2.RefreshToken,
				ExpiresIn:    c.Auth.OAuth2.ExpiresIn,
			},
			Logger: log,
		})
	default:
		return nil, fmt.Errorf("invalid auth type: %s", c.Auth.Type)
	}
}

// BuildClient assembles a fully configured client: transport settings,
// retry policy, and the configured authentication strategy.
func (c *Config) BuildClient(log logger.Logger) (httpclient.Client, error) {
	if log == nil {
		log = c.NewLogger()
	}

	strategy, err := c.AuthStrategy(log)
	if err != nil {
		return nil, fmt.Errorf("auth strategy: %w", err)
	}

	b := httpclient.NewBuilder(log).
		WithRetryPolicy(c.RetryPolicy())

	if c.Client.Timeout > 0 {
		b = b.WithTimeout(c.Client.Timeout)
	}
	if c.Client.BaseURL != "" {
		b = b.WithBaseURL(c.Client.BaseURL)
	}
	if c.Client.TraceHeader != "" {
		b = b.WithTraceIDHeader(c.Client.TraceHeader)
	}
	for key, value := range c.Client.Headers {
		b = b.WithDefaultHeader(key, value)
	}
	if c.Client.LogPayloads {
		b = b.WithPayloadLogging(c.Client.MaxPayloadLogBytes)
	}
	if c.Client.Rate.Limit > 0 {
		b = b.WithRateLimit(c.Client.Rate.Limit, c.Client.Rate.Burst)
	}
	if strategy != nil {
		b = b.WithAuthStrategy(strategy)
	}

	return b.Build(), nil
}
