package ports

import "context"

// CommandOptions tunes a single SendCommand call
type CommandOptions struct {
	Pattern      string
	StripCommand bool
	StripPrompt  bool
	Mode         string
}

// CommandOption mutates CommandOptions
type CommandOption func(*CommandOptions)

// ConfigOptions tunes a SendConfigSet call
type ConfigOptions struct {
	Commit         bool
	CommitComment  string
	KeepConfigMode bool
}

// ConfigOption mutates ConfigOptions
type ConfigOption func(*ConfigOptions)

// Session defines the port for a connected device session
type Session interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context)
	SendCommand(ctx context.Context, cmd string, opts ...CommandOption) (string, error)
	SendConfigSet(ctx context.Context, cmds []string, opts ...ConfigOption) (string, error)
	BasePrompt() string
	CurrentMode() string
	Host() string
	ID() string
}

// DefaultCommandOptions strips both the echo and the trailing prompt
func DefaultCommandOptions() CommandOptions {
	return CommandOptions{StripCommand: true, StripPrompt: true}
}

// DefaultConfigOptions commits transactional modes and leaves config mode afterwards
func DefaultConfigOptions() ConfigOptions {
	return ConfigOptions{Commit: true}
}

// WithPattern also ends the read when pattern matches; the session prompt still ends it too
func WithPattern(pattern string) CommandOption {
	return func(o *CommandOptions) { o.Pattern = pattern }
}

// WithoutStripCommand keeps the echoed command in the output
func WithoutStripCommand() CommandOption {
	return func(o *CommandOptions) { o.StripCommand = false }
}

// WithoutStripPrompt keeps the trailing prompt line in the output
func WithoutStripPrompt() CommandOption {
	return func(o *CommandOptions) { o.StripPrompt = false }
}

// InMode runs the command in the named mode instead of the profile command mode
func InMode(mode string) CommandOption {
	return func(o *CommandOptions) { o.Mode = mode }
}

// WithoutCommit leaves transactional changes uncommitted
func WithoutCommit() ConfigOption {
	return func(o *ConfigOptions) { o.Commit = false }
}

// WithCommitComment attaches a comment to the commit where the platform supports it
func WithCommitComment(comment string) ConfigOption {
	return func(o *ConfigOptions) { o.CommitComment = comment }
}

// KeepConfigMode stays in config mode after the set is applied
func KeepConfigMode() ConfigOption {
	return func(o *ConfigOptions) { o.KeepConfigMode = true }
}
