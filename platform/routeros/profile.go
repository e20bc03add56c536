// Package routeros holds the profile of MikroTik RouterOS.
package routeros

import "github.com/carlosrabelo/netterm/domain/entities"

// Profile returns the RouterOS profile. The login name suffix turns off
// colors and terminal detection and widens the terminal to 200 columns.
func Profile() entities.VendorProfile {
	return entities.VendorProfile{
		Name:           "mikrotik_routeros",
		Delimiters:     []string{">", "#"},
		PromptTemplate: `\[.*?\] (\/.*?)?\>`,
		Prompt:         entities.PromptRule{TrimLeft: 1, TrimRight: 3, AfterAt: true},
		Terminator:     "\r",
		TerminalType:   "dumb",
		StripANSI:      true,
		UsernameSuffix: "+ct200w",
		Modes: []entities.ModeNode{
			{
				Name:  "cli",
				Check: entities.CheckRule{Contains: ">"},
			},
		},
		CommandMode:   "cli",
		ConfigMode:    "cli",
		DetectMarkers: []string{"mikrotik", "routeros"},
	}
}
