// Package terminal holds the profiles that are not tied to a vendor: a
// plain Unix shell and the probe used to auto-detect device types.
package terminal

import "github.com/carlosrabelo/netterm/domain/entities"

// AutodetectName is the device type that triggers detection
const AutodetectName = "autodetect"

// Profile returns a plain shell with $ or # prompts
func Profile() entities.VendorProfile {
	return entities.VendorProfile{
		Name:           "terminal",
		Delimiters:     []string{"$", "#"},
		PromptTemplate: `[{delimiters}]`,
		Prompt:         entities.PromptRule{NoBase: true},
		Modes: []entities.ModeNode{
			{
				Name:  "shell",
				Check: entities.CheckRule{Pattern: `[$#]`},
			},
		},
		CommandMode: "shell",
		ConfigMode:  "shell",
	}
}

// Autodetect accepts any common prompt and never changes mode
func Autodetect() entities.VendorProfile {
	return entities.VendorProfile{
		Name:           AutodetectName,
		Delimiters:     []string{">", "#", "]", "$", "%"},
		PromptTemplate: `{prompt}.*?[{delimiters}]`,
		Prompt:         entities.PromptRule{TrimRight: 1},
		Modes: []entities.ModeNode{
			{
				Name:  "any",
				Check: entities.CheckRule{Pattern: `[>#\]$%]`},
			},
		},
		CommandMode: "any",
	}
}
