// Package logging adapts log/slog to ports.Logger and maps the CLI
// verbosity levels onto slog levels.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
)

// SlogAdapter wraps *slog.Logger to implement ports.Logger
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a ports.Logger from *slog.Logger
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{Logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.Logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.Logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// With returns a logger that adds args to every entry
func (s *SlogAdapter) With(args ...any) ports.Logger {
	return &SlogAdapter{Logger: s.Logger.With(args...)}
}

// Options configures New
type Options struct {
	Level     slog.Level
	Format    string // text or json
	AddSource bool
}

// New builds a slog-backed logger writing to w
func New(w io.Writer, opts Options) *SlogAdapter {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// LevelFor maps the session verbosity onto a slog level.
// Raw device reads are logged at debug, so level 2 needs debug as well.
func LevelFor(cfg entities.SessionConfig) slog.Level {
	if cfg.IsDebugEnabled() || cfg.IsRawOutputEnabled() {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// ForConfig builds a text logger for the verbosity of cfg
func ForConfig(w io.Writer, cfg entities.SessionConfig) *SlogAdapter {
	return New(w, Options{Level: LevelFor(cfg)})
}

// NoOp discards every entry
type NoOp struct{}

func (NoOp) Debug(string, ...any)      {}
func (NoOp) Info(string, ...any)       {}
func (NoOp) Warn(string, ...any)       {}
func (NoOp) Error(string, ...any)      {}
func (n NoOp) With(...any) ports.Logger { return n }

var (
	_ ports.Logger = (*SlogAdapter)(nil)
	_ ports.Logger = NoOp{}
)
