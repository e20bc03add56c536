// Package comware holds the profiles of HP Comware and Huawei VRP, which
// share the <user view> and [system view] prompts.
package comware

import "github.com/carlosrabelo/netterm/domain/entities"

func base(name string) entities.VendorProfile {
	return entities.VendorProfile{
		Name:           name,
		Delimiters:     []string{">", "]"},
		LeftDelimiters: []string{"<", "["},
		PromptTemplate: `[{left}]{prompt}[\-\w]*[{delimiters}]`,
		Prompt:         entities.PromptRule{TrimLeft: 1, TrimRight: 1},
		DisablePaging:  "screen-length disable",
		Modes: []entities.ModeNode{
			{
				Name:  "user",
				Check: entities.CheckRule{Contains: ">"},
			},
			{
				Name:   "system",
				Parent: "user",
				Enter:  entities.Transition{Command: "system-view"},
				Exit:   entities.Transition{Command: "return"},
				Check:  entities.CheckRule{Contains: "]"},
			},
		},
		CommandMode: "user",
		ConfigMode:  "system",
		ConnectMode: "user",
	}
}

// HPComware is HP/H3C Comware
func HPComware() entities.VendorProfile {
	p := base("hp_comware")
	p.DetectMarkers = []string{"comware", "h3c"}
	return p
}

// Huawei is Huawei VRP; USG firewalls in HA prefix the prompt with HRP_M or HRP_S
func Huawei() entities.VendorProfile {
	p := base("huawei")
	p.Prompt.StripPrefix = `^HRP_.`
	p.DisablePaging = "screen-length 0 temporary"
	p.DetectMarkers = []string{"huawei", "versatile routing platform"}
	return p
}

// HPComwareLimited is Comware with a restricted command set that unlocks
// the hidden commands with "_cmdline-mode on" and a vendor password
func HPComwareLimited() entities.VendorProfile {
	p := base("hp_comware_limited")
	p.ConnectSteps = []entities.Transition{
		{
			Command: "_cmdline-mode on",
			Dialogs: []entities.Dialog{
				{Pattern: `\[Y/N\]`, Answer: "Y"},
				{Pattern: `(?i)password:`, CmdlinePassword: true},
			},
			Failures: []string{"Invalid password"},
		},
	}
	return p
}
