// Package logger defines the structured logging contract used by the
// outbound HTTP client and provides a zerolog-backed implementation.
// Credential material (Authorization headers, API keys, tokens, client
// secrets) is masked before it reaches the log output.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logging contract. Implementations must be
// safe for concurrent use.
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	Fatal() LogEvent
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent is a single structured log event under construction.
// Field methods return the event to allow chaining; Msg or Msgf sends it.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Bytes(key string, val []byte) LogEvent
}

// ZeroLogger implements Logger on top of rs/zerolog.
type ZeroLogger struct {
	zlog   *zerolog.Logger
	redact *Redactor
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger writing JSON to stdout at the given level.
// Unknown level strings fall back to info. If pretty is true, output is
// formatted for human consumption instead.
func New(level string, pretty bool) *ZeroLogger {
	var l zerolog.Logger
	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, redact: NewRedactor(nil)}
}

// Nop returns a logger that discards every event. Useful as a default
// for components whose caller did not supply a logger.
func Nop() Logger {
	l := zerolog.Nop()
	return &ZeroLogger{zlog: &l}
}

// NewWithRedactor creates a ZeroLogger with a custom redaction policy.
func NewWithRedactor(level string, pretty bool, r *Redactor) *ZeroLogger {
	l := New(level, pretty)
	if r != nil {
		l.redact = r
	}
	return l
}

// WithContext returns a logger bound to a zerolog logger stored in ctx,
// if any. Otherwise the receiver is returned unchanged.
func (l *ZeroLogger) WithContext(ctx any) Logger {
	if c, ok := ctx.(context.Context); ok {
		zl := zerolog.Ctx(c)
		if zl == nil || zl.GetLevel() == zerolog.Disabled {
			return l
		}
		return &ZeroLogger{zlog: zl, redact: l.redact}
	}
	return l
}

// WithFields returns a logger with the given fields attached to every
// event. Sensitive fields are masked first.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.redact != nil {
		fields = l.redact.Fields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, redact: l.redact}
}

// Info creates an info-level log event.
func (l *ZeroLogger) Info() LogEvent {
	return &zerologEvent{event: l.zlog.Info(), redact: l.redact}
}

// Error creates an error-level log event.
func (l *ZeroLogger) Error() LogEvent {
	return &zerologEvent{event: l.zlog.Error(), redact: l.redact}
}

// Debug creates a debug-level log event.
func (l *ZeroLogger) Debug() LogEvent {
	return &zerologEvent{event: l.zlog.Debug(), redact: l.redact}
}

// Warn creates a warn-level log event.
func (l *ZeroLogger) Warn() LogEvent {
	return &zerologEvent{event: l.zlog.Warn(), redact: l.redact}
}

// Fatal creates a fatal-level log event.
func (l *ZeroLogger) Fatal() LogEvent {
	return &zerologEvent{event: l.zlog.Fatal(), redact: l.redact}
}

// zerologEvent adapts a zerolog.Event to the LogEvent interface,
// passing string and map fields through the redactor.
type zerologEvent struct {
	event  *zerolog.Event
	redact *Redactor
}

func (e *zerologEvent) Msg(msg string) {
	e.event.Msg(msg)
}

func (e *zerologEvent) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

func (e *zerologEvent) Err(err error) LogEvent {
	return &zerologEvent{event: e.event.Err(err), redact: e.redact}
}

func (e *zerologEvent) Str(key, value string) LogEvent {
	if e.redact != nil {
		value = e.redact.String(key, value)
	}
	return &zerologEvent{event: e.event.Str(key, value), redact: e.redact}
}

func (e *zerologEvent) Int(key string, value int) LogEvent {
	return &zerologEvent{event: e.event.Int(key, value), redact: e.redact}
}

func (e *zerologEvent) Int64(key string, value int64) LogEvent {
	return &zerologEvent{event: e.event.Int64(key, value), redact: e.redact}
}

func (e *zerologEvent) Dur(key string, d time.Duration) LogEvent {
	return &zerologEvent{event: e.event.Dur(key, d), redact: e.redact}
}

func (e *zerologEvent) Interface(key string, i any) LogEvent {
	if e.redact != nil {
		i = e.redact.Value(key, i)
	}
	return &zerologEvent{event: e.event.Interface(key, i), redact: e.redact}
}

func (e *zerologEvent) Bytes(key string, val []byte) LogEvent {
	return &zerologEvent{event: e.event.Bytes(key, val), redact: e.redact}
}
