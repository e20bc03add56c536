package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
)

// SwitchOptions tunes SwitchTo
type SwitchOptions struct {
	SkipCommit bool
}

// Credentials are the answers dialogs may ask for beyond the login
type Credentials struct {
	Secret          string
	CmdlinePassword string
	Preempt         bool
}

// CredentialsFor takes the dialog answers out of a session config
func CredentialsFor(cfg entities.SessionConfig) Credentials {
	return Credentials{Secret: cfg.Secret, CmdlinePassword: cfg.CmdlinePassword, Preempt: cfg.PreemptPrivilege}
}

// ModeGraph tracks the CLI mode of one session and moves between modes.
// Every transition is confirmed by a fresh probe of the device prompt.
type ModeGraph struct {
	nodes   []entities.ModeNode
	checks  []entities.ModeCheck
	index   map[string]int
	depth   map[string]int
	reader  *StreamReader
	logger  ports.Logger
	creds   Credentials
	prompt  Pattern
	base    string
	current string
}

// NewModeGraph builds the graph from the profile modes
func NewModeGraph(profile entities.VendorProfile, reader *StreamReader, creds Credentials, logger ports.Logger) (*ModeGraph, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	g := &ModeGraph{
		nodes:  profile.Modes,
		checks: make([]entities.ModeCheck, len(profile.Modes)),
		index:  make(map[string]int, len(profile.Modes)),
		depth:  make(map[string]int, len(profile.Modes)),
		reader: reader,
		logger: logger,
		creds:  creds,
	}
	for i, n := range profile.Modes {
		check, err := n.Check.Compile()
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", n.Name, err)
		}
		g.checks[i] = check
		g.index[n.Name] = i
		if n.Parent != "" {
			g.depth[n.Name] = g.depth[n.Parent] + 1
		}
	}
	return g, nil
}

// SetPrompt installs the prompt pattern found at connect time
func (g *ModeGraph) SetPrompt(base string, prompt Pattern) {
	g.base = base
	g.prompt = prompt
}

// Current is the last observed mode, empty when unknown
func (g *ModeGraph) Current() string {
	return g.current
}

// Node looks a mode up by name
func (g *ModeGraph) Node(name string) (entities.ModeNode, bool) {
	i, ok := g.index[name]
	if !ok {
		return entities.ModeNode{}, false
	}
	return g.nodes[i], true
}

// Classify returns the deepest mode whose check holds for the probe output
func (g *ModeGraph) Classify(output string) string {
	best, bestDepth := "", -1
	for i, n := range g.nodes {
		if g.checks[i].Matches(output) && g.depth[n.Name] > bestDepth {
			best, bestDepth = n.Name, g.depth[n.Name]
		}
	}
	return best
}

// Discover probes the device with a newline and records the observed mode
func (g *ModeGraph) Discover(ctx context.Context) (string, error) {
	raw, err := g.reader.WriteAndReadUntil(ctx, "", g.prompt)
	if err != nil {
		return "", err
	}
	out := g.reader.Clean(raw, "", CleanOptions{})
	g.current = g.Classify(out)
	g.logger.Debug("mode discovered", "mode", g.current)
	return g.current, nil
}

// Check reports whether the device is in the named mode.
// Unless force is set a matching cached mode answers without a round trip.
func (g *ModeGraph) Check(ctx context.Context, name string, force bool) (bool, error) {
	if !force && g.current == name {
		return true, nil
	}
	mode, err := g.Discover(ctx)
	if err != nil {
		return false, err
	}
	return mode == name, nil
}

// Enter moves one level into the named mode
func (g *ModeGraph) Enter(ctx context.Context, name string) (string, error) {
	node, ok := g.Node(name)
	if !ok {
		return "", g.switchError(name, "unknown mode "+name, nil)
	}
	in, err := g.Check(ctx, name, false)
	if err != nil || in {
		return "", err
	}
	if node.Enter.Command == "" {
		return "", g.switchError(name, "mode "+name+" has no enter command", nil)
	}

	g.logger.Debug("entering mode", "mode", name)
	out, _, err := g.run(ctx, name, node.Enter)
	if err != nil {
		return out, err
	}
	if in, err = g.Check(ctx, name, true); err != nil {
		return out, err
	}
	if !in {
		return out, g.switchError(name, "failed to enter "+name, nil)
	}
	return out, nil
}

// Exit leaves the named mode for its parent, committing transactional modes first
func (g *ModeGraph) Exit(ctx context.Context, name string) (string, error) {
	return g.exit(ctx, name, true)
}

func (g *ModeGraph) exit(ctx context.Context, name string, commit bool) (string, error) {
	node, ok := g.Node(name)
	if !ok {
		return "", g.switchError(name, "unknown mode "+name, nil)
	}
	if g.current != name {
		return "", nil
	}
	if node.IsRoot() || node.Exit.Command == "" {
		return "", g.switchError(name, "cannot exit "+name, nil)
	}

	var out strings.Builder
	if node.Transactional && commit {
		c, err := g.Commit(ctx, name, "")
		out.WriteString(c)
		if err != nil {
			return out.String(), err
		}
	}

	g.logger.Debug("exiting mode", "mode", name)
	x, pending, err := g.run(ctx, name, node.Exit)
	out.WriteString(x)
	if err != nil {
		return out.String(), err
	}

	mode, err := g.Discover(ctx)
	if err != nil {
		return out.String(), err
	}
	switch {
	case mode == node.Parent:
		if pending {
			g.logger.Warn("device discarded uncommitted changes on exit", "mode", name)
		}
		return out.String(), nil
	case mode == name && pending:
		return out.String(), g.switchError(name, "uncommitted changes pending in "+name, entities.ErrUncommittedChanges)
	default:
		return out.String(), g.switchError(name, "failed to exit "+name, nil)
	}
}

// Commit applies pending changes of a transactional mode.
// A rejected commit leaves the session in the mode and returns a CommitError.
func (g *ModeGraph) Commit(ctx context.Context, name, comment string) (string, error) {
	node, ok := g.Node(name)
	if !ok {
		return "", g.switchError(name, "unknown mode "+name, nil)
	}
	if !node.Transactional {
		return "", nil
	}

	g.logger.Debug("committing", "mode", name)
	commit := entities.Transition{Command: node.Commit.CommandFor(comment), Dialogs: node.Commit.Dialogs}
	out, _, err := g.run(ctx, name, commit)
	if err != nil {
		return out, err
	}
	failure, failed := node.Commit.Failed(out)
	if !failed {
		return out, nil
	}

	reason := strings.TrimSpace(out)
	if failure.Diagnostic != "" {
		raw, err := g.reader.WriteAndReadUntil(ctx, failure.Diagnostic, g.prompt)
		if err != nil {
			return out, err
		}
		reason = g.reader.Clean(raw, failure.Diagnostic, g.cleanAll())
	}
	g.logger.Error("commit rejected", "mode", name, "reason", reason)
	return out, &entities.CommitError{Host: g.reader.Host(), Reason: reason}
}

// Abort discards pending changes of a transactional mode and rediscovers the mode
func (g *ModeGraph) Abort(ctx context.Context, name string) (string, error) {
	node, ok := g.Node(name)
	if !ok {
		return "", g.switchError(name, "unknown mode "+name, nil)
	}
	if !node.Transactional || node.Commit.AbortCommand == "" {
		return "", nil
	}

	g.logger.Debug("aborting changes", "mode", name)
	raw, err := g.reader.WriteAndReadUntil(ctx, node.Commit.AbortCommand, g.prompt)
	if err != nil {
		return "", err
	}
	out := g.reader.Clean(raw, node.Commit.AbortCommand, g.cleanAll())
	if _, err := g.Discover(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// SwitchTo walks from the current mode to target: exits up to the common
// ancestor, then enters down. The first failed step stops the walk.
func (g *ModeGraph) SwitchTo(ctx context.Context, target string, opts SwitchOptions) (string, error) {
	if _, ok := g.Node(target); !ok {
		return "", g.switchError(target, "unknown mode "+target, nil)
	}
	if g.current == "" {
		if _, err := g.Discover(ctx); err != nil {
			return "", err
		}
		if g.current == "" {
			return "", g.switchError(target, "unable to determine current mode", nil)
		}
	}
	if g.current == target {
		return "", nil
	}

	up, down := g.path(g.current, target)
	var out strings.Builder
	for _, name := range up {
		x, err := g.exit(ctx, name, !opts.SkipCommit)
		out.WriteString(x)
		if err != nil {
			return out.String(), err
		}
	}
	for _, name := range down {
		x, err := g.Enter(ctx, name)
		out.WriteString(x)
		if err != nil {
			return out.String(), err
		}
	}
	return out.String(), nil
}

// path returns the modes to exit, deepest first, and the modes to enter, shallowest first
func (g *ModeGraph) path(from, to string) (up, down []string) {
	fromChain := g.ancestry(from)
	toChain := g.ancestry(to)

	common := make(map[string]bool, len(toChain))
	for _, name := range toChain {
		common[name] = true
	}
	pivot := ""
	for _, name := range fromChain {
		if common[name] {
			pivot = name
			break
		}
		up = append(up, name)
	}
	for i := len(toChain) - 1; i >= 0; i-- {
		if toChain[i] == pivot {
			down = down[:0]
			continue
		}
		down = append(down, toChain[i])
	}
	return up, down
}

// ancestry lists name and its ancestors, deepest first
func (g *ModeGraph) ancestry(name string) []string {
	var chain []string
	for name != "" {
		chain = append(chain, name)
		node, _ := g.Node(name)
		name = node.Parent
	}
	return chain
}

// RunStep runs a transition that does not change mode, such as a connect
// step, and fails when the device refuses it. The mode is rediscovered after.
func (g *ModeGraph) RunStep(ctx context.Context, step entities.Transition) (string, error) {
	g.logger.Debug("running step", "command", step.Command)
	out, _, err := g.run(ctx, g.current, step)
	if err != nil {
		return out, err
	}
	if _, err := g.Discover(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// run sends the transition command and answers dialogs until the prompt returns.
// pending reports whether an answer kept uncommitted changes alive.
func (g *ModeGraph) run(ctx context.Context, mode string, t entities.Transition) (string, bool, error) {
	exprs := make([]string, len(t.Dialogs))
	for i, d := range t.Dialogs {
		exprs[i] = d.Pattern
	}
	alt, err := CompilePattern(exprs...)
	if err != nil {
		return "", false, err
	}

	var out strings.Builder
	cmd := t.Command
	pending, echoed := false, true
	answered := make(map[int]bool, len(t.Dialogs))
	for {
		raw, idx, err := g.reader.WriteAndReadUntilPromptOr(ctx, cmd, g.prompt, alt)
		if err != nil {
			return out.String(), pending, err
		}
		out.WriteString(g.reader.Clean(raw, cmd, CleanOptions{StripCommand: echoed}))
		if idx < 0 {
			break
		}
		if answered[idx] {
			return out.String(), pending, g.switchError(mode, fmt.Sprintf("dialog %q repeated", t.Dialogs[idx].Pattern), nil)
		}
		answered[idx] = true

		d := t.Dialogs[idx]
		if d.Preempt && !g.creds.Preempt {
			if d.Decline != "" {
				raw, err := g.reader.WriteAndReadUntil(ctx, d.Decline, g.prompt)
				if err != nil {
					return out.String(), pending, err
				}
				out.WriteString(g.reader.Clean(raw, d.Decline, CleanOptions{StripCommand: true}))
			}
			return out.String(), pending, g.switchError(mode, "another session is active and preempt_privilege is off", nil)
		}

		pending = pending || d.Pending
		cmd, echoed = d.Answer, !d.Credential()
		switch {
		case d.Secret:
			cmd = g.creds.Secret
			g.logger.Debug("answering dialog with secret", "mode", mode)
		case d.CmdlinePassword:
			cmd = g.creds.CmdlinePassword
			g.logger.Debug("answering dialog with cmdline password", "mode", mode)
		default:
			g.logger.Debug("answering dialog", "mode", mode, "answer", cmd)
		}
	}

	if marker, failed := t.Failed(out.String()); failed {
		return out.String(), pending, g.switchError(mode, fmt.Sprintf("%q refused: %s", t.Command, marker), nil)
	}
	return out.String(), pending, nil
}

func (g *ModeGraph) cleanAll() CleanOptions {
	return CleanOptions{StripCommand: true, StripPrompt: true, BasePrompt: g.base, Prompt: g.prompt}
}

func (g *ModeGraph) switchError(mode, reason string, err error) error {
	return &entities.SwitchError{Host: g.reader.Host(), Mode: mode, Reason: reason, Err: err}
}
