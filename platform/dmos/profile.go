// Package dmos holds the profile of Datacom DmOS switches.
package dmos

import "github.com/carlosrabelo/netterm/domain/entities"

// Profile returns the DmOS profile. DmOS logs straight into privileged
// mode and applies configuration through a ConfD-style commit.
func Profile() entities.VendorProfile {
	return entities.VendorProfile{
		Name:           "datacom_dmos",
		Delimiters:     []string{">", "#"},
		PromptTemplate: `{prompt}.*?(\(.*?\))?[{delimiters}]`,
		Prompt:         entities.PromptRule{TrimRight: 1},
		DisablePaging:  "paginate false",
		Modes: []entities.ModeNode{
			{
				Name:  "privilege",
				Check: entities.CheckRule{Contains: "#"},
			},
			{
				Name:   "config",
				Parent: "privilege",
				Enter:  entities.Transition{Command: "config"},
				Exit: entities.Transition{
					Command: "end",
					Dialogs: []entities.Dialog{
						{Pattern: `(?i)uncommitted changes found`, Answer: "no", Pending: true},
					},
				},
				Check:         entities.CheckRule{Contains: ")#"},
				Transactional: true,
				Commit: entities.CommitRule{
					Command:        "commit",
					CommentCommand: `commit comment "{comment}"`,
					Failures: []entities.CommitFailure{
						{Marker: "Aborted:", Diagnostic: "show configuration commit changes"},
						{Marker: "Error:"},
					},
					AbortCommand: "abort",
				},
			},
		},
		CommandMode:   "privilege",
		ConfigMode:    "config",
		ConnectMode:   "privilege",
		DetectMarkers: []string{"dmos", "datacom"},
	}
}
