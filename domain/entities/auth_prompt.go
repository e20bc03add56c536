package entities

import "strings"

// AuthPrompt represents a prompt-response pair during Telnet login
type AuthPrompt struct {
	WaitFor string `yaml:"wait_for"` // regular expression to wait for
	SendCmd string `yaml:"send"`     // reply; {username} and {password} are expanded, empty means just wait
}

// Expand returns the reply with the credentials substituted
func (p AuthPrompt) Expand(username, password string) string {
	return strings.NewReplacer("{username}", username, "{password}", password).Replace(p.SendCmd)
}

// DefaultLoginPrompts is the Cisco-like Telnet login sequence
func DefaultLoginPrompts() []AuthPrompt {
	return []AuthPrompt{
		{WaitFor: `(?i)(username|login|user name)\s*:`, SendCmd: "{username}"},
		{WaitFor: `(?i)password\s*:`, SendCmd: "{password}"},
	}
}
