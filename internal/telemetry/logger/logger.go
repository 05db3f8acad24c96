package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface used across bindplan.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config selects the level, encoding and destination of log output.
type Config struct {
	Level     string    // debug, info, warn or error; empty means info
	Format    string    // json or text; empty means json
	Output    io.Writer // nil means os.Stderr
	AddSource bool
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

// level is shared by every logger built with New so SetLevel applies
// process-wide, including to loggers handed out before the change.
var level = new(slog.LevelVar)

// ParseLevel maps a level name to its slog level. Matching ignores case
// and accepts "warning" for warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func levelName(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	}
	return "error"
}

// New builds a logger from cfg and makes cfg.Level the process level.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		h = slog.NewJSONHandler(out, opts)
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level.Set(lvl)
	return &slogger{l: slog.New(h), ctx: context.Background()}, nil
}

// SetLevel changes the level of every logger built with New.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// GetLevel returns the current process level name.
func GetLevel() string {
	return levelName(level.Level())
}

type slogger struct {
	l   *slog.Logger
	ctx context.Context
}

func (s *slogger) log(lvl slog.Level, msg string, args []any) {
	s.l.Log(s.ctx, lvl, msg, args...)
}

func (s *slogger) Debug(msg string, args ...any) { s.log(slog.LevelDebug, msg, args) }
func (s *slogger) Info(msg string, args ...any)  { s.log(slog.LevelInfo, msg, args) }
func (s *slogger) Warn(msg string, args ...any)  { s.log(slog.LevelWarn, msg, args) }
func (s *slogger) Error(msg string, args ...any) { s.log(slog.LevelError, msg, args) }

func (s *slogger) With(args ...any) Logger {
	return &slogger{l: s.l.With(args...), ctx: s.ctx}
}

func (s *slogger) WithContext(ctx context.Context) Logger {
	return &slogger{l: s.l, ctx: ctx}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &slogger{l: slog.New(slog.DiscardHandler), ctx: context.Background()}
}

type holder struct{ Logger }

var std atomic.Pointer[holder]

func init() {
	l, _ := New(DefaultConfig())
	std.Store(&holder{l})
}

// SetDefault replaces the logger returned by Default. A nil logger is
// ignored.
func SetDefault(l Logger) {
	if l != nil {
		std.Store(&holder{l})
	}
}

// Default returns the process logger. Components fall back to it when
// no logger is injected.
func Default() Logger {
	return std.Load().Logger
}
