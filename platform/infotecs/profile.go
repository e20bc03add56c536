// Package infotecs holds the profile of ViPNet HW1000 crypto gateways.
package infotecs

import "github.com/carlosrabelo/netterm/domain/entities"

const shellPrompt = `sh-[\d.]+[#$]\s*$`

// HW1000 allows one privileged session at a time; entering privilege exec
// while another is open asks to terminate it. The shell mode is the Linux
// shell underneath, whose prompt carries no host name.
func HW1000() entities.VendorProfile {
	return entities.VendorProfile{
		Name:           "infotecs_hw1000",
		Delimiters:     []string{">", "#"},
		PromptTemplate: `{prompt}.*?(\(.*?\))?[{delimiters}]`,
		Prompt:         entities.PromptRule{TrimRight: 1},
		Modes: []entities.ModeNode{
			{
				Name:  "user",
				Check: entities.CheckRule{Contains: ">"},
			},
			{
				Name:   "privilege",
				Parent: "user",
				Enter: entities.Transition{
					Command: "enable",
					Dialogs: []entities.Dialog{
						{Pattern: `(?i)password`, Secret: true},
						{Pattern: `force termination of the specified session`, Preempt: true, Answer: "Yes", Decline: "No"},
					},
				},
				Exit:  entities.Transition{Command: "exit"},
				Check: entities.CheckRule{Contains: "#"},
			},
			{
				Name:   "shell",
				Parent: "privilege",
				Enter: entities.Transition{
					Command: "admin esc",
					Dialogs: []entities.Dialog{
						{Pattern: `(?i)exit to the Linux system shell`, Answer: "Yes"},
						{Pattern: `(?i)password:`, Secret: true},
					},
				},
				Exit:   entities.Transition{Command: "exit"},
				Check:  entities.CheckRule{Pattern: shellPrompt},
				Prompt: shellPrompt,
			},
		},
		CommandMode:   "privilege",
		ConfigMode:    "privilege",
		ConnectMode:   "privilege",
		DetectMarkers: []string{"vipnet", "infotecs"},
	}
}
