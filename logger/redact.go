package logger

import (
	"net/url"
	"strings"
)

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// Redactor masks credential material in log fields. A field is masked
// when its lowercased name contains one of the configured markers.
type Redactor struct {
	markers []string
	mask    string
}

// defaultMarkers covers the credential surface of the client: request
// headers (Authorization, X-API-Key), strategy parameters (password,
// client_secret) and token material (access/refresh tokens).
var defaultMarkers = []string{
	"password", "passwd", "pwd",
	"secret", "client_secret",
	"key", "api_key", "apikey",
	"token", "access_token", "refresh_token",
	"auth", "authorization",
	"credential", "credentials",
}

// NewRedactor creates a Redactor masking the given field-name markers.
// A nil or empty markers slice selects the default credential set.
func NewRedactor(markers []string) *Redactor {
	if len(markers) == 0 {
		markers = defaultMarkers
	}
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return &Redactor{markers: lowered, mask: DefaultMaskValue}
}

// String returns the value, masked when the key names a sensitive field.
// URL-shaped values keep their structure with only the userinfo password
// replaced, so endpoints stay diagnosable.
func (r *Redactor) String(key, value string) string {
	if !r.sensitive(key) || value == "" {
		return value
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return r.maskURL(value)
	}
	return r.mask
}

// Value masks string values and string maps; everything else passes
// through unchanged. Header maps are the common case in this codebase.
func (r *Redactor) Value(key string, value any) any {
	switch v := value.(type) {
	case string:
		return r.String(key, v)
	case map[string]string:
		return r.StringMap(v)
	case map[string]any:
		return r.Fields(v)
	default:
		if r.sensitive(key) {
			return r.mask
		}
		return value
	}
}

// StringMap returns a copy of m with sensitive entries masked.
func (r *Redactor) StringMap(m map[string]string) map[string]string {
	filtered := make(map[string]string, len(m))
	for k, v := range m {
		filtered[k] = r.String(k, v)
	}
	return filtered
}

// Fields returns a copy of fields with sensitive entries masked.
func (r *Redactor) Fields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = r.Value(k, v)
	}
	return filtered
}

func (r *Redactor) sensitive(key string) bool {
	lowered := strings.ToLower(key)
	for _, m := range r.markers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

func (r *Redactor) maskURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return r.mask
	}
	if parsed.User == nil {
		return raw
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return raw
	}
	parsed.User = url.UserPassword(parsed.User.Username(), r.mask)
	return parsed.String()
}
