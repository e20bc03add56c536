package entities

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPromptChars is how much of the base prompt goes into the prompt pattern
const DefaultPromptChars = 12

// PromptRule derives the base prompt from the raw prompt line.
// Steps run in field order: StripPrefix, TrimLeft/TrimRight, CutAt, AfterAt.
type PromptRule struct {
	StripPrefix string `yaml:"strip_prefix"`
	TrimLeft    int    `yaml:"trim_left"`
	TrimRight   int    `yaml:"trim_right"`
	CutAt       string `yaml:"cut_at"`
	AfterAt     bool   `yaml:"after_at"`
	MaxChars    int    `yaml:"max_chars"`
	NoBase      bool   `yaml:"no_base"` // prompt pattern only, no hostname
}

// VendorProfile is the read-only per-platform table of delimiters, commands and modes
type VendorProfile struct {
	Name               string       `yaml:"name"`
	Delimiters         []string     `yaml:"delimiters"`
	LeftDelimiters     []string     `yaml:"left_delimiters"`
	PromptTemplate     string       `yaml:"prompt_template"`
	Prompt             PromptRule   `yaml:"prompt"`
	Terminator         string       `yaml:"terminator"`
	TerminalType       string       `yaml:"terminal_type"`
	StripANSI          bool         `yaml:"strip_ansi"`
	StripStrayCR       bool         `yaml:"strip_stray_cr"`
	CollapseBlankLines bool         `yaml:"collapse_blank_lines"`
	DisablePaging      string       `yaml:"disable_paging"`
	Modes              []ModeNode   `yaml:"modes"`
	CommandMode        string       `yaml:"command_mode"`
	ConfigMode         string       `yaml:"config_mode"`
	ConnectMode        string       `yaml:"connect_mode"`
	ContextCommand     string       `yaml:"context_command"`
	ContextMarker      string       `yaml:"context_marker"`
	UsernameSuffix     string       `yaml:"username_suffix"`
	LoginPrompts       []AuthPrompt `yaml:"login_prompts"`
	ConnectSteps       []Transition `yaml:"connect_steps"` // run once after the first mode discovery
	DetectMarkers      []string     `yaml:"detect_markers"`
}

// EffectiveTerminator returns the line terminator appended to every command
func (vp VendorProfile) EffectiveTerminator() string {
	if vp.Terminator == "" {
		return "\n"
	}
	return vp.Terminator
}

// EffectiveTerminalType returns the PTY type requested over SSH
func (vp VendorProfile) EffectiveTerminalType() string {
	if vp.TerminalType == "" {
		return "vt100"
	}
	return vp.TerminalType
}

// EffectiveLoginPrompts returns the Telnet login sequence
func (vp VendorProfile) EffectiveLoginPrompts() []AuthPrompt {
	if len(vp.LoginPrompts) == 0 {
		return DefaultLoginPrompts()
	}
	return vp.LoginPrompts
}

// Mode looks a mode up by name
func (vp VendorProfile) Mode(name string) (ModeNode, bool) {
	for _, m := range vp.Modes {
		if m.Name == name {
			return m, true
		}
	}
	return ModeNode{}, false
}

// Clone returns a deep copy so registry entries can never be mutated through a session
func (vp VendorProfile) Clone() VendorProfile {
	out := vp
	out.Delimiters = append([]string(nil), vp.Delimiters...)
	out.LeftDelimiters = append([]string(nil), vp.LeftDelimiters...)
	out.DetectMarkers = append([]string(nil), vp.DetectMarkers...)
	out.LoginPrompts = append([]AuthPrompt(nil), vp.LoginPrompts...)
	out.ConnectSteps = nil
	for _, step := range vp.ConnectSteps {
		out.ConnectSteps = append(out.ConnectSteps, step.Clone())
	}
	out.Modes = make([]ModeNode, len(vp.Modes))
	for i, m := range vp.Modes {
		m.Enter = m.Enter.Clone()
		m.Exit = m.Exit.Clone()
		m.Commit.Dialogs = append([]Dialog(nil), m.Commit.Dialogs...)
		m.Commit.Failures = append([]CommitFailure(nil), m.Commit.Failures...)
		out.Modes[i] = m
	}
	return out
}

// Validate checks that the profile is internally consistent
func (vp VendorProfile) Validate() error {
	if strings.TrimSpace(vp.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if len(vp.Delimiters) == 0 {
		return fmt.Errorf("profile %s: at least one delimiter is required", vp.Name)
	}
	for _, d := range vp.Delimiters {
		if len([]rune(d)) != 1 {
			return fmt.Errorf("profile %s: delimiter %q must be a single character", vp.Name, d)
		}
	}
	if vp.PromptTemplate == "" {
		return fmt.Errorf("profile %s: prompt_template is required", vp.Name)
	}
	if vp.Prompt.StripPrefix != "" {
		if _, err := regexp.Compile(vp.Prompt.StripPrefix); err != nil {
			return fmt.Errorf("profile %s: invalid strip_prefix: %w", vp.Name, err)
		}
	}
	if len(vp.Modes) == 0 {
		return fmt.Errorf("profile %s: at least one mode is required", vp.Name)
	}
	seen := make(map[string]bool, len(vp.Modes))
	for _, m := range vp.Modes {
		if m.Name == "" {
			return fmt.Errorf("profile %s: mode without name", vp.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("profile %s: duplicate mode %s", vp.Name, m.Name)
		}
		if m.Parent != "" && !seen[m.Parent] {
			return fmt.Errorf("profile %s: mode %s must be declared after its parent %s", vp.Name, m.Name, m.Parent)
		}
		if m.Check.Contains == "" && m.Check.Pattern == "" {
			return fmt.Errorf("profile %s: mode %s has no check rule", vp.Name, m.Name)
		}
		if m.Check.Pattern != "" {
			if _, err := regexp.Compile(m.Check.Pattern); err != nil {
				return fmt.Errorf("profile %s: mode %s has invalid check pattern: %w", vp.Name, m.Name, err)
			}
		}
		for _, dialogs := range [][]Dialog{m.Enter.Dialogs, m.Exit.Dialogs, m.Commit.Dialogs} {
			for _, d := range dialogs {
				if _, err := regexp.Compile(d.Pattern); err != nil {
					return fmt.Errorf("profile %s: mode %s has invalid dialog pattern: %w", vp.Name, m.Name, err)
				}
			}
		}
		if m.Prompt != "" {
			if _, err := regexp.Compile(m.Prompt); err != nil {
				return fmt.Errorf("profile %s: mode %s has invalid prompt: %w", vp.Name, m.Name, err)
			}
		}
		if m.Transactional && m.Commit.Command == "" {
			return fmt.Errorf("profile %s: transactional mode %s needs a commit command", vp.Name, m.Name)
		}
		seen[m.Name] = true
	}
	for i, step := range vp.ConnectSteps {
		if step.Command == "" {
			return fmt.Errorf("profile %s: connect step %d has no command", vp.Name, i+1)
		}
		for _, d := range step.Dialogs {
			if _, err := regexp.Compile(d.Pattern); err != nil {
				return fmt.Errorf("profile %s: connect step %d has invalid dialog pattern: %w", vp.Name, i+1, err)
			}
		}
	}
	for _, name := range []string{vp.CommandMode, vp.ConfigMode, vp.ConnectMode} {
		if name != "" && !seen[name] {
			return fmt.Errorf("profile %s: unknown mode %s", vp.Name, name)
		}
	}
	return nil
}
