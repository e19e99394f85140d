// Package logging is the structured logger shared by the simulation, the
// catalog loader and the command line. It is a thin layer over log/slog.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Field is a structured attribute attached to a record.
type Field = slog.Attr

func String(key, value string) Field                 { return slog.String(key, value) }
func Int(key string, value int) Field                { return slog.Int(key, value) }
func Float64(key string, value float64) Field        { return slog.Float64(key, value) }
func Duration(key string, value time.Duration) Field { return slog.Duration(key, value) }

// Err records err under the "error" key. A nil error logs as an empty value.
func Err(err error) Field {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", err.Error())
}

// Logger is what packages depend on. Every call takes the caller's context
// so handlers can pick up session IDs and trace spans.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Config selects the handler. It is decoded from the "log" section of the
// configuration file.
type Config struct {
	Level     string `mapstructure:"level"`      // debug, info, warn, error
	Format    string `mapstructure:"format"`     // json or text
	AddSource bool   `mapstructure:"add_source"` // include source locations
}

// New writes to stderr so that command output on stdout stays clean.
func New(cfg Config) Logger { return NewWithWriter(os.Stderr, cfg) }

// NewWithWriter builds a logger writing records to w. Unknown levels fall
// back to info and unknown formats to text.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return logger{l: slog.New(h)}
}

// Noop discards everything.
func Noop() Logger { return noop{} }

type logger struct{ l *slog.Logger }

func (g logger) With(fields ...Field) Logger {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger{l: g.l.With(args...)}
}

func (g logger) Debug(ctx context.Context, msg string, fields ...Field) {
	g.l.LogAttrs(ctx, slog.LevelDebug, msg, fields...)
}

func (g logger) Info(ctx context.Context, msg string, fields ...Field) {
	g.l.LogAttrs(ctx, slog.LevelInfo, msg, fields...)
}

func (g logger) Warn(ctx context.Context, msg string, fields ...Field) {
	g.l.LogAttrs(ctx, slog.LevelWarn, msg, fields...)
}

func (g logger) Error(ctx context.Context, msg string, fields ...Field) {
	g.l.LogAttrs(ctx, slog.LevelError, msg, fields...)
}

type noop struct{}

func (noop) With(...Field) Logger                    { return noop{} }
func (noop) Debug(context.Context, string, ...Field) {}
func (noop) Info(context.Context, string, ...Field)  {}
func (noop) Warn(context.Context, string, ...Field)  {}
func (noop) Error(context.Context, string, ...Field) {}

type sessionKey struct{}

// SessionID returns the ID stored by WithSession, or "".
func SessionID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSession tags ctx with a session ID, reusing one already present, and
// returns base annotated with it. Stream clients get one session each.
func WithSession(ctx context.Context, base Logger) (context.Context, Logger) {
	if ctx == nil {
		ctx = context.Background()
	}
	if base == nil {
		base = Noop()
	}
	id := SessionID(ctx)
	if id == "" {
		id = newSessionID()
		ctx = context.WithValue(ctx, sessionKey{}, id)
	}
	return ctx, base.With(String("session_id", id))
}

func newSessionID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
