package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the outbound client configuration structure.
// It includes sections for client transport settings, retry behavior,
// authentication, and logging preferences. The embedded koanf.Koanf
// instance allows for flexible access to additional custom
// configurations not explicitly defined in the struct.
type Config struct {
	Client ClientConfig `koanf:"client" json:"client" yaml:"client" toml:"client" mapstructure:"client"`
	Retry  RetryConfig  `koanf:"retry" json:"retry" yaml:"retry" toml:"retry" mapstructure:"retry"`
	Auth   AuthConfig   `koanf:"auth" json:"auth" yaml:"auth" toml:"auth" mapstructure:"auth"`
	Log    LogConfig    `koanf:"log" json:"log" yaml:"log" toml:"log" mapstructure:"log"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// ClientConfig holds transport-level settings for the outbound client.
type ClientConfig struct {
	BaseURL            string            `koanf:"baseurl" json:"baseurl" yaml:"baseurl" toml:"baseurl" mapstructure:"baseurl"`
	Timeout            time.Duration     `koanf:"timeout" json:"timeout" yaml:"timeout" toml:"timeout" mapstructure:"timeout"`
	Headers            map[string]string `koanf:"headers" json:"headers" yaml:"headers" toml:"headers" mapstructure:"headers"`
	TraceHeader        string            `koanf:"traceheader" json:"traceheader" yaml:"traceheader" toml:"traceheader" mapstructure:"traceheader"`
	LogPayloads        bool              `koanf:"logpayloads" json:"logpayloads" yaml:"logpayloads" toml:"logpayloads" mapstructure:"logpayloads"`
	MaxPayloadLogBytes int               `koanf:"maxpayloadlogbytes" json:"maxpayloadlogbytes" yaml:"maxpayloadlogbytes" toml:"maxpayloadlogbytes" mapstructure:"maxpayloadlogbytes"`
	Rate               RateConfig        `koanf:"rate" json:"rate" yaml:"rate" toml:"rate" mapstructure:"rate"`
}

// RateConfig holds outbound rate limiting settings.
type RateConfig struct {
	Limit float64 `koanf:"limit" json:"limit" yaml:"limit" toml:"limit" mapstructure:"limit"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst" toml:"burst" mapstructure:"burst"`
}

// RetryConfig holds retry policy settings.
type RetryConfig struct {
	MaxAttempts int           `koanf:"maxattempts" json:"maxattempts" yaml:"maxattempts" toml:"maxattempts" mapstructure:"maxattempts"`
	BaseDelay   time.Duration `koanf:"basedelay" json:"basedelay" yaml:"basedelay" toml:"basedelay" mapstructure:"basedelay"`
	StatusCodes []int         `koanf:"statuscodes" json:"statuscodes" yaml:"statuscodes" toml:"statuscodes" mapstructure:"statuscodes"`
}

// AuthConfig selects and parameterizes the authentication strategy.
// Type decides which sub-section applies.
type AuthConfig struct {
	Type        string            `koanf:"type" json:"type" yaml:"type" toml:"type" mapstructure:"type"`
	APIKey      APIKeyConfig      `koanf:"apikey" json:"apikey" yaml:"apikey" toml:"apikey" mapstructure:"apikey"`
	Basic       BasicConfig       `koanf:"basic" json:"basic" yaml:"basic" toml:"basic" mapstructure:"basic"`
	Bearer      BearerConfig      `koanf:"bearer" json:"bearer" yaml:"bearer" toml:"bearer" mapstructure:"bearer"`
	BasicBearer BasicBearerConfig `koanf:"basicbearer" json:"basicbearer" yaml:"basicbearer" toml:"basicbearer" mapstructure:"basicbearer"`
	OAuth2      OAuth2Config      `koanf:"oauth2" json:"oauth2" yaml:"oauth2" toml:"oauth2" mapstructure:"oauth2"`
}

// APIKeyConfig holds static API key settings.
type APIKeyConfig struct {
	Key    string `koanf:"key" json:"key" yaml:"key" toml:"key" mapstructure:"key"`
	Header string `koanf:"header" json:"header" yaml:"header" toml:"header" mapstructure:"header"`
}

// BasicConfig holds static basic-auth credentials.
type BasicConfig struct {
	Username string `koanf:"username" json:"username" yaml:"username" toml:"username" mapstructure:"username"`
	Password string `koanf:"password" json:"password" yaml:"password" toml:"password" mapstructure:"password"`
}

// BearerConfig holds a static bearer token.
type BearerConfig struct {
	Token string `koanf:"token" json:"token" yaml:"token" toml:"token" mapstructure:"token"`
}

// BasicBearerConfig holds settings for basic-auth token acquisition.
type BasicBearerConfig struct {
	Username         string        `koanf:"username" json:"username" yaml:"username" toml:"username" mapstructure:"username"`
	Password         string        `koanf:"password" json:"password" yaml:"password" toml:"password" mapstructure:"password"`
	TokenURL         string        `koanf:"tokenurl" json:"tokenurl" yaml:"tokenurl" toml:"tokenurl" mapstructure:"tokenurl"`
	Method           string        `koanf:"method" json:"method" yaml:"method" toml:"method" mapstructure:"method"`
	ExpirationBuffer time.Duration `koanf:"expirationbuffer" json:"expirationbuffer" yaml:"expirationbuffer" toml:"expirationbuffer" mapstructure:"expirationbuffer"`
}

// OAuth2Config holds settings for OAuth2 refresh-token authentication.
type OAuth2Config struct {
	ClientID        string `koanf:"clientid" json:"clientid" yaml:"clientid" toml:"clientid" mapstructure:"clientid"`
	ClientSecret    string `koanf:"clientsecret" json:"clientsecret" yaml:"clientsecret" toml:"clientsecret" mapstructure:"clientsecret"`
	TokenRefreshURL string `koanf:"tokenrefreshurl" json:"tokenrefreshurl" yaml:"tokenrefreshurl" toml:"tokenrefreshurl" mapstructure:"tokenrefreshurl"`
	AccessToken     string `koanf:"accesstoken" json:"accesstoken" yaml:"accesstoken" toml:"accesstoken" mapstructure:"accesstoken"`
	RefreshToken    string `koanf:"refreshtoken" json:"refreshtoken" yaml:"refreshtoken" toml:"refreshtoken" mapstructure:"refreshtoken"`
	ExpiresIn       int    `koanf:"expiresin" json:"expiresin" yaml:"expiresin" toml:"expiresin" mapstructure:"expiresin"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" toml:"level" mapstructure:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" toml:"pretty" mapstructure:"pretty"`
}

// Koanf exposes the underlying koanf instance for custom keys outside
// the typed sections.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
