// Package alcatel holds the profile of Alcatel-Lucent OmniSwitch (AOS).
package alcatel

import "github.com/carlosrabelo/netterm/domain/entities"

// AOS prompts are free text set by the operator, so the prompt must start a
// line to tell it apart from output that repeats the host name.
func AOS() entities.VendorProfile {
	return entities.VendorProfile{
		Name:           "alcatel_aos",
		Delimiters:     []string{">", "#"},
		PromptTemplate: `\n{prompt}.*?(\(.*?\))?[{delimiters}]`,
		Prompt:         entities.PromptRule{TrimRight: 1},
		DisablePaging:  "terminal length 0",
		Modes: []entities.ModeNode{
			{
				Name:  "cli",
				Check: entities.CheckRule{Pattern: `[>#]`},
			},
		},
		CommandMode:   "cli",
		ConfigMode:    "cli",
		DetectMarkers: []string{"alcatel", "omniswitch"},
	}
}
