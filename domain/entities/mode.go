package entities

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialog is one interactive sub-prompt a transition may run into
type Dialog struct {
	Pattern         string `yaml:"pattern"` // regular expression matched against the response
	Answer          string `yaml:"answer"`
	Secret          bool   `yaml:"secret"`           // answer with the session secret instead of Answer
	CmdlinePassword bool   `yaml:"cmdline_password"` // answer with the session cmdline password
	Pending         bool   `yaml:"pending"`          // answering leaves uncommitted changes on the device
	Preempt         bool   `yaml:"preempt"`          // takes over another session; Answer only when the session allows it
	Decline         string `yaml:"decline"`          // sent instead of Answer when preemption is refused
}

// Credential reports whether the answer comes from the session credentials.
// Devices do not echo those answers.
func (d Dialog) Credential() bool {
	return d.Secret || d.CmdlinePassword
}

// Transition is a command plus the dialogs it may trigger
type Transition struct {
	Command  string   `yaml:"command"`
	Dialogs  []Dialog `yaml:"dialogs"`
	Failures []string `yaml:"failures"` // output markers that mean the command was refused
}

// Failed returns the first failure marker found in output
func (t Transition) Failed(output string) (string, bool) {
	for _, marker := range t.Failures {
		if marker != "" && strings.Contains(output, marker) {
			return marker, true
		}
	}
	return "", false
}

// Clone deep copies the dialogs and failure markers
func (t Transition) Clone() Transition {
	t.Dialogs = append([]Dialog(nil), t.Dialogs...)
	t.Failures = append([]string(nil), t.Failures...)
	return t
}

// CheckRule decides whether a prompt belongs to a mode
type CheckRule struct {
	Contains string `yaml:"contains"`
	Pattern  string `yaml:"pattern"`
}

// Compile turns the rule into a matcher. An empty rule never matches.
func (c CheckRule) Compile() (ModeCheck, error) {
	check := ModeCheck{contains: c.Contains}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return ModeCheck{}, fmt.Errorf("invalid check pattern %q: %w", c.Pattern, err)
		}
		check.re = re
	}
	return check, nil
}

// ModeCheck is a compiled CheckRule
type ModeCheck struct {
	contains string
	re       *regexp.Regexp
}

// Matches tests the check against probe output
func (m ModeCheck) Matches(output string) bool {
	if m.contains != "" && strings.Contains(output, m.contains) {
		return true
	}
	return m.re != nil && m.re.MatchString(output)
}

// CommitFailure maps a failure marker in commit output to the command that explains it
type CommitFailure struct {
	Marker     string `yaml:"marker"`
	Diagnostic string `yaml:"diagnostic"`
}

// CommitRule describes how a transactional mode applies its changes
type CommitRule struct {
	Command        string          `yaml:"command"`
	CommentCommand string          `yaml:"comment_command"` // {comment} is expanded
	Dialogs        []Dialog        `yaml:"dialogs"`
	Failures       []CommitFailure `yaml:"failures"`
	AbortCommand   string          `yaml:"abort_command"`
}

// CommandFor returns the commit command, with comment when supported
func (c CommitRule) CommandFor(comment string) string {
	if comment != "" && c.CommentCommand != "" {
		return strings.ReplaceAll(c.CommentCommand, "{comment}", comment)
	}
	return c.Command
}

// Failed returns the first failure whose marker appears in output
func (c CommitRule) Failed(output string) (CommitFailure, bool) {
	for _, f := range c.Failures {
		if f.Marker != "" && strings.Contains(output, f.Marker) {
			return f, true
		}
	}
	return CommitFailure{}, false
}

// ModeNode is an immutable descriptor of one CLI mode
type ModeNode struct {
	Name          string     `yaml:"name"`
	Parent        string     `yaml:"parent"`
	Enter         Transition `yaml:"enter"`
	Exit          Transition `yaml:"exit"`
	Check         CheckRule  `yaml:"check"`
	Prompt        string     `yaml:"prompt"` // extra prompt regexp for modes whose prompt lacks the base prompt
	Transactional bool       `yaml:"transactional"`
	Commit        CommitRule `yaml:"commit"`
}

// IsRoot reports whether the node has no parent
func (m ModeNode) IsRoot() bool {
	return m.Parent == ""
}
