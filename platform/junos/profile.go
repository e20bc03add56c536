// Package junos holds the profile of Juniper Junos.
package junos

import "github.com/carlosrabelo/netterm/domain/entities"

// Profile returns the Junos profile: the FreeBSD shell, the operational
// CLI and the candidate configuration that must be committed. Prompts are
// user@host, and the shell adds the routing engine after a colon
// (root@mx1:RE:0%), which is cut off so every mode shares one base prompt.
func Profile() entities.VendorProfile {
	return entities.VendorProfile{
		Name:           "juniper_junos",
		Delimiters:     []string{"%", ">", "#"},
		PromptTemplate: `\w+@{prompt}.*?[{delimiters}]`,
		Prompt:         entities.PromptRule{TrimRight: 1, CutAt: ":", AfterAt: true},
		DisablePaging:  "set cli screen-length 0",
		Modes: []entities.ModeNode{
			{
				Name:  "shell",
				Check: entities.CheckRule{Contains: "%"},
			},
			{
				Name:   "cli",
				Parent: "shell",
				Enter:  entities.Transition{Command: "cli"},
				Exit:   entities.Transition{Command: "exit"},
				Check:  entities.CheckRule{Contains: ">"},
			},
			{
				Name:   "config",
				Parent: "cli",
				Enter:  entities.Transition{Command: "configure"},
				Exit: entities.Transition{
					Command: "exit configuration-mode",
					Dialogs: []entities.Dialog{
						{Pattern: `(?i)uncommitted changes`, Answer: "no", Pending: true},
					},
				},
				Check:         entities.CheckRule{Contains: "#"},
				Transactional: true,
				Commit: entities.CommitRule{
					Command:        "commit",
					CommentCommand: `commit comment "{comment}"`,
					Failures: []entities.CommitFailure{
						{Marker: "commit failed", Diagnostic: "show | compare"},
						{Marker: "configuration check-out failed", Diagnostic: "show | compare"},
						{Marker: "error:"},
					},
					AbortCommand: "rollback 0",
				},
			},
		},
		CommandMode:   "cli",
		ConfigMode:    "config",
		ConnectMode:   "cli",
		DetectMarkers: []string{"junos", "juniper"},
	}
}
