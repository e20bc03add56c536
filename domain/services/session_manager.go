package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
)

// DefaultSettleDelay is how long the line must stay quiet before the banner is considered flushed
const DefaultSettleDelay = 200 * time.Millisecond

// SessionManager is the public entry point for one device.
// Calls are serialized; a session is meant to be driven by a single goroutine.
type SessionManager struct {
	mu sync.Mutex

	id        string
	config    entities.SessionConfig
	profile   entities.VendorProfile
	transport ports.Transport
	logger    ports.Logger
	reader    *StreamReader
	graph     *ModeGraph
	settle    time.Duration

	connected       bool
	basePrompt      string
	prompt          Pattern
	currentContext  string
	multipleContext bool
}

// SessionOption customizes a SessionManager
type SessionOption func(*SessionManager)

// WithLogger sets the logger; host and session attributes are added to it
func WithLogger(logger ports.Logger) SessionOption {
	return func(s *SessionManager) { s.logger = logger }
}

// WithSettleDelay sets the quiet interval used to flush the login banner
func WithSettleDelay(d time.Duration) SessionOption {
	return func(s *SessionManager) { s.settle = d }
}

// WithSessionID overrides the generated session identifier
func WithSessionID(id string) SessionOption {
	return func(s *SessionManager) { s.id = id }
}

// NewSessionManager creates a session over transport driven by profile
func NewSessionManager(cfg entities.SessionConfig, profile entities.VendorProfile, transport ports.Transport, opts ...SessionOption) (*SessionManager, error) {
	s := &SessionManager{
		id:        uuid.NewString(),
		config:    cfg,
		profile:   profile.Clone(),
		transport: transport,
		logger:    nopLogger{},
		settle:    DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("host", transport.Host(), "session", s.id)

	s.reader = NewStreamReader(transport, s.profile, s.logger, cfg.IsRawOutputEnabled())
	graph, err := NewModeGraph(s.profile, s.reader, CredentialsFor(cfg), s.logger)
	if err != nil {
		return nil, err
	}
	s.graph = graph
	return s, nil
}

// Connect opens the transport, finds the prompt, settles the mode and disables paging
func (s *SessionManager) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.logger.Info("connecting", "device_type", s.profile.Name)
	if err := s.transport.Connect(ctx); err != nil {
		var disconnect *entities.DisconnectError
		if errors.As(err, &disconnect) {
			return err
		}
		return &entities.DisconnectError{Host: s.Host(), Reason: err.Error(), Err: err}
	}

	if err := s.prepare(ctx); err != nil {
		if cerr := s.transport.Disconnect(); cerr != nil {
			s.logger.Warn("failed to close transport", "error", cerr)
		}
		return s.timeoutOp(err, "connect")
	}
	s.connected = true
	s.logger.Info("connected", "prompt", s.basePrompt, "mode", s.graph.Current())
	return nil
}

func (s *SessionManager) prepare(ctx context.Context) error {
	delimiters := DelimiterPattern(s.profile)
	if _, _, err := s.reader.ReadUntil(ctx, delimiters); err != nil {
		return err
	}
	s.reader.Drain(ctx, s.settle)

	raw, err := s.reader.WriteAndReadUntil(ctx, "", delimiters)
	if err != nil {
		return err
	}
	line := LastLine(s.reader.Clean(raw, "", CleanOptions{}))
	if line == "" {
		return &entities.DisconnectError{Host: s.Host(), Reason: "unable to find prompt"}
	}

	base, secCtx, err := DerivePrompt(s.profile, line)
	if err != nil {
		return err
	}
	prompt, err := BuildPromptPattern(s.profile, base)
	if err != nil {
		return err
	}
	s.basePrompt, s.prompt, s.currentContext = base, prompt, secCtx
	s.graph.SetPrompt(base, prompt)
	s.logger.Debug("prompt found", "prompt", line, "base", base, "pattern", prompt.String())

	if _, err := s.graph.Discover(ctx); err != nil {
		return err
	}
	for _, step := range s.profile.ConnectSteps {
		if _, err := s.graph.RunStep(ctx, step); err != nil {
			return err
		}
	}
	if target := s.profile.ConnectMode; target != "" && !s.config.SkipElevation {
		if _, err := s.graph.SwitchTo(ctx, target, SwitchOptions{}); err != nil {
			return err
		}
	}

	if cmd := s.profile.DisablePaging; cmd != "" {
		if _, err := s.exchange(ctx, cmd); err != nil {
			return err
		}
	}
	if cmd := s.profile.ContextCommand; cmd != "" {
		out, err := s.exchange(ctx, cmd)
		if err != nil {
			return err
		}
		s.multipleContext = s.profile.ContextMarker != "" && strings.Contains(out, s.profile.ContextMarker)
	}
	return nil
}

// SendCommand runs cmd in the profile command mode and returns the cleaned output
func (s *SessionManager) SendCommand(ctx context.Context, cmd string, opts ...ports.CommandOption) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o := ports.DefaultCommandOptions()
	for _, opt := range opts {
		opt(&o)
	}

	mode := o.Mode
	if mode == "" {
		mode = s.profile.CommandMode
	}
	if mode != "" {
		if _, err := s.graph.SwitchTo(ctx, mode, SwitchOptions{}); err != nil {
			return "", err
		}
	}

	s.logger.Debug("sending command", "command", cmd)
	var raw string
	if o.Pattern != "" {
		alt, err := CompilePattern(o.Pattern)
		if err != nil {
			return "", err
		}
		if raw, _, err = s.reader.WriteAndReadUntilPromptOr(ctx, cmd, s.prompt, alt); err != nil {
			return "", s.timeoutOp(err, "send_command")
		}
	} else {
		var err error
		if raw, err = s.reader.WriteAndReadUntil(ctx, cmd, s.prompt); err != nil {
			return "", s.timeoutOp(err, "send_command")
		}
	}

	return s.reader.Clean(raw, cmd, CleanOptions{
		StripCommand: o.StripCommand,
		StripPrompt:  o.StripPrompt,
		BasePrompt:   s.basePrompt,
		Prompt:       s.prompt,
	}), nil
}

// SendConfigSet enters config mode, sends every command on its own, commits
// transactional modes once and leaves config mode unless asked to stay.
func (s *SessionManager) SendConfigSet(ctx context.Context, cmds []string, opts ...ports.ConfigOption) (string, error) {
	if len(cmds) == 0 {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o := ports.DefaultConfigOptions()
	for _, opt := range opts {
		opt(&o)
	}

	mode := s.profile.ConfigMode
	node, ok := s.graph.Node(mode)
	if !ok {
		return "", &entities.SwitchError{Host: s.Host(), Mode: mode, Reason: "profile " + s.profile.Name + " has no config mode"}
	}

	var out strings.Builder
	x, err := s.graph.SwitchTo(ctx, mode, SwitchOptions{})
	out.WriteString(x)
	if err != nil {
		return out.String(), err
	}

	for _, cmd := range cmds {
		s.logger.Debug("sending config command", "command", cmd)
		raw, err := s.reader.WriteAndReadUntil(ctx, cmd, s.prompt)
		if err != nil {
			return out.String(), s.timeoutOp(err, "send_config_set")
		}
		out.WriteString(s.reader.Clean(raw, "", CleanOptions{}))
	}

	if node.Transactional && o.Commit {
		c, err := s.graph.Commit(ctx, mode, o.CommitComment)
		out.WriteString(c)
		if err != nil {
			return out.String(), err
		}
	}

	if !o.KeepConfigMode && !node.IsRoot() {
		x, err := s.graph.SwitchTo(ctx, node.Parent, SwitchOptions{SkipCommit: true})
		out.WriteString(x)
		if err != nil {
			return out.String(), err
		}
	}
	return out.String(), nil
}

// Disconnect aborts uncommitted changes, leaves nested modes and closes the transport.
// Failures are logged and never returned.
func (s *SessionManager) Disconnect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.connected {
		s.cleanup(ctx)
	}
	if err := s.transport.Disconnect(); err != nil {
		s.logger.Warn("failed to close transport", "error", err)
	}
	s.connected = false
	s.logger.Info("disconnected")
}

func (s *SessionManager) cleanup(ctx context.Context) {
	current := s.graph.Current()
	if node, ok := s.graph.Node(current); ok && node.Transactional {
		if _, err := s.graph.Abort(ctx, current); err != nil {
			s.logger.Warn("cleanup abort failed", "mode", current, "error", err)
			return
		}
	}

	target := s.profile.ConnectMode
	if target == "" {
		target = s.profile.CommandMode
	}
	if target == "" || s.graph.Current() == "" {
		return
	}
	if _, err := s.graph.SwitchTo(ctx, target, SwitchOptions{SkipCommit: true}); err != nil {
		s.logger.Warn("cleanup mode switch failed", "target", target, "error", err)
	}
}

// exchange sends a housekeeping command and returns its cleaned output
func (s *SessionManager) exchange(ctx context.Context, cmd string) (string, error) {
	raw, err := s.reader.WriteAndReadUntil(ctx, cmd, s.prompt)
	if err != nil {
		return "", err
	}
	return s.reader.Clean(raw, cmd, CleanOptions{
		StripCommand: true,
		StripPrompt:  true,
		BasePrompt:   s.basePrompt,
		Prompt:       s.prompt,
	}), nil
}

func (s *SessionManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.OperationTimeout())
}

func (s *SessionManager) timeoutOp(err error, op string) error {
	var timeout *entities.TimeoutError
	if errors.As(err, &timeout) && timeout.Op == "" {
		timeout.Op = op
	}
	return err
}

// ID is the session identifier used for log correlation
func (s *SessionManager) ID() string { return s.id }

// Host is the device identity used in errors
func (s *SessionManager) Host() string { return s.transport.Host() }

// BasePrompt is the hostname part of the prompt found at connect time
func (s *SessionManager) BasePrompt() string { return s.basePrompt }

// CurrentMode is the last observed mode
func (s *SessionManager) CurrentMode() string { return s.graph.Current() }

// CurrentContext is the security context of multi-context firewalls
func (s *SessionManager) CurrentContext() string { return s.currentContext }

// MultipleContext reports whether the firewall runs in multiple context mode
func (s *SessionManager) MultipleContext() bool { return s.multipleContext }

// Profile returns a copy of the vendor profile in use
func (s *SessionManager) Profile() entities.VendorProfile { return s.profile.Clone() }

// ModeGraph exposes the mode graph for callers that drive modes directly
func (s *SessionManager) ModeGraph() *ModeGraph { return s.graph }

var _ ports.Session = (*SessionManager)(nil)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)      {}
func (nopLogger) Info(string, ...any)       {}
func (nopLogger) Warn(string, ...any)       {}
func (nopLogger) Error(string, ...any)      {}
func (n nopLogger) With(...any) ports.Logger { return n }
