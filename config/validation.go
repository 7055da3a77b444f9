package config

import (
	"fmt"
	"slices"
	"strings"
)

// Authentication type constants
const (
	AuthNone        = "none"
	AuthAPIKey      = "apikey"
	AuthBasic       = "basic"
	AuthBearer      = "bearer"
	AuthBasicBearer = "basicbearer"
	AuthOAuth2      = "oauth2"
)

func Validate(cfg *Config) error {
	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := validateRetry(&cfg.Retry); err != nil {
		return fmt.Errorf("retry config: %w", err)
	}

	if err := validateAuth(&cfg.Auth); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

func validateClient(cfg *ClientConfig) error {
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	if cfg.Rate.Limit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	if cfg.Rate.Burst < 0 {
		return fmt.Errorf("rate burst must not be negative")
	}

	return nil
}

func validateRetry(cfg *RetryConfig) error {
	if cfg.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative")
	}

	if cfg.BaseDelay < 0 {
		return fmt.Errorf("base delay must not be negative")
	}

	for _, code := range cfg.StatusCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("invalid status code: %d", code)
		}
	}

	return nil
}

// validateAuth checks that the selected strategy type is known and its
// sub-section carries the fields the strategy constructor requires.
// Constructor-level validation still runs when the strategy is built.
func validateAuth(cfg *AuthConfig) error {
	validTypes := []string{AuthNone, AuthAPIKey, AuthBasic, AuthBearer, AuthBasicBearer, AuthOAuth2}
	if !slices.Contains(validTypes, cfg.Type) {
		return fmt.Errorf("invalid auth type: %s (must be one of: %s)",
			cfg.Type, strings.Join(validTypes, ", "))
	}

	switch cfg.Type {
	case AuthAPIKey:
		if cfg.APIKey.Key == "" {
			return fmt.Errorf("api key is required")
		}
	case AuthBasic:
		if cfg.Basic.Username == "" || cfg.Basic.Password == "" {
			return fmt.Errorf("basic auth username and password are required")
		}
	case AuthBearer:
		if cfg.Bearer.Token == "" {
			return fmt.Errorf("bearer token is required")
		}
	case AuthBasicBearer:
		if cfg.BasicBearer.Username == "" || cfg.BasicBearer.Password == "" {
			return fmt.Errorf("basic bearer username and password are required")
		}
		if cfg.BasicBearer.TokenURL == "" {
			return fmt.Errorf("basic bearer token URL is required")
		}
	case AuthOAuth2:
		if cfg.OAuth2.ClientID == "" || cfg.OAuth2.ClientSecret == "" {
			return fmt.Errorf("oauth2 client id and client secret are required")
		}
		if cfg.OAuth2.TokenRefreshURL == "" {
			return fmt.Errorf("oauth2 token refresh URL is required")
		}
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(validLevels, cfg.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			cfg.Level, strings.Join(validLevels, ", "))
	}

	return nil
}
