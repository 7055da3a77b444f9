package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer, level zerolog.Level) *ZeroLogger {
	l := zerolog.New(buf).Level(level)
	return &ZeroLogger{zlog: &l, redact: NewRedactor(nil)}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestZeroLoggerFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zerolog.DebugLevel)

	log.Info().
		Str("method", "GET").
		Int("status", 200).
		Int64("call_count", 7).
		Dur("elapsed", 250*time.Millisecond).
		Msg("REST client response")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "REST client response", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(7), entry["call_count"])
}

func TestZeroLoggerRedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zerolog.DebugLevel)

	log.Info().
		Str("authorization", "Bearer secret-token").
		Str("url", "https://api.example.com").
		Msg("request")

	entry := decodeLine(t, &buf)
	assert.Equal(t, DefaultMaskValue, entry["authorization"])
	assert.Equal(t, "https://api.example.com", entry["url"])
	assert.NotContains(t, buf.String(), "secret-token")
}

func TestZeroLoggerRedactsHeaderMaps(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zerolog.DebugLevel)

	log.Debug().
		Interface("headers", map[string]string{
			"Accept":        "*/*",
			"Authorization": "Bearer abc",
		}).
		Msg("payload")

	assert.NotContains(t, buf.String(), "Bearer abc")
	assert.Contains(t, buf.String(), "*/*")
}

func TestZeroLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zerolog.InfoLevel)

	log.Debug().Str("k", "v").Msg("hidden")
	assert.Empty(t, buf.String())

	log.Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewParsesLevel(t *testing.T) {
	assert.NotNil(t, New("debug", false))
	assert.NotNil(t, New("bogus", false)) // falls back to info
	assert.NotNil(t, New("warn", true))
}

func TestWithFieldsMasksCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zerolog.DebugLevel)

	bound := log.WithFields(map[string]any{
		"client_secret": "s3cr3t",
		"component":     "httpclient",
	})
	bound.Info().Msg("configured")

	assert.NotContains(t, buf.String(), "s3cr3t")
	assert.Contains(t, buf.String(), "httpclient")
}
