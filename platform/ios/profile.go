// Package ios holds the profiles of Cisco IOS and the CLIs that copy its
// user, privileged and configuration modes.
package ios

import "github.com/carlosrabelo/netterm/domain/entities"

const (
	iosTemplate = `{prompt}.*?(\(.*?\))?[{delimiters}]`
	asaTemplate = `{prompt}([\/\w]+)?(\(.*?\))?[{delimiters}]`
	boxTemplate = `\({prompt}.*?\) (\(.*?\))?[{delimiters}]`
)

var enableDialog = entities.Dialog{Pattern: `(?i)password`, Secret: true}

// modes returns the user > privilege > config chain shared by the family
func modes(configEnter, configCheck string) []entities.ModeNode {
	return []entities.ModeNode{
		{
			Name:  "user",
			Check: entities.CheckRule{Contains: ">"},
		},
		{
			Name:   "privilege",
			Parent: "user",
			Enter:  entities.Transition{Command: "enable", Dialogs: []entities.Dialog{enableDialog}},
			Exit:   entities.Transition{Command: "disable"},
			Check:  entities.CheckRule{Contains: "#"},
		},
		{
			Name:   "config",
			Parent: "privilege",
			Enter:  entities.Transition{Command: configEnter},
			Exit:   entities.Transition{Command: "end"},
			Check:  entities.CheckRule{Contains: configCheck},
		},
	}
}

func base(name string) entities.VendorProfile {
	return entities.VendorProfile{
		Name:           name,
		Delimiters:     []string{">", "#"},
		PromptTemplate: iosTemplate,
		Prompt:         entities.PromptRule{TrimRight: 1},
		DisablePaging:  "terminal length 0",
		Modes:          modes("conf t", ")#"),
		CommandMode:    "privilege",
		ConfigMode:     "config",
		ConnectMode:    "privilege",
	}
}

// CiscoIOS is classic IOS
func CiscoIOS() entities.VendorProfile {
	p := base("cisco_ios")
	p.DetectMarkers = []string{"cisco ios software", "cisco internetwork operating system"}
	return p
}

// CiscoXE is IOS-XE
func CiscoXE() entities.VendorProfile {
	p := base("cisco_xe")
	p.DetectMarkers = []string{"ios-xe", "ios xe"}
	return p
}

// CiscoNXOS is NX-OS, which leaves stray carriage returns in its output
func CiscoNXOS() entities.VendorProfile {
	p := base("cisco_nxos")
	p.StripStrayCR = true
	p.DetectMarkers = []string{"nx-os", "nexus"}
	return p
}

// AristaEOS is Arista EOS
func AristaEOS() entities.VendorProfile {
	p := base("arista_eos")
	p.DetectMarkers = []string{"arista"}
	return p
}

// CiscoASA is the ASA firewall; the prompt may carry a /context suffix
func CiscoASA() entities.VendorProfile {
	p := base("cisco_asa")
	p.PromptTemplate = asaTemplate
	p.Prompt.CutAt = "/"
	p.DisablePaging = "terminal pager 0"
	p.ContextCommand = "show mode"
	p.ContextMarker = "multiple"
	p.DetectMarkers = []string{"adaptive security appliance"}
	return p
}

// CiscoIOSXR is IOS-XR with its two-stage commit
func CiscoIOSXR() entities.VendorProfile {
	p := base("cisco_iosxr")
	config := &p.Modes[2]
	config.Enter.Command = "configure terminal"
	config.Exit.Dialogs = []entities.Dialog{
		{Pattern: `(?i)uncommitted changes found`, Answer: "no", Pending: true},
	}
	config.Transactional = true
	config.Commit = entities.CommitRule{
		Command:        "commit",
		CommentCommand: "commit comment {comment}",
		Dialogs: []entities.Dialog{
			{Pattern: `Do you wish to proceed with this commit anyway\?`, Answer: "no"},
		},
		Failures: []entities.CommitFailure{
			{Marker: "Failed to commit", Diagnostic: "show configuration failed"},
			{Marker: "Please issue 'show configuration failed", Diagnostic: "show configuration failed"},
			{Marker: "One or more commits have occurred", Diagnostic: "show configuration commit changes"},
		},
		AbortCommand: "abort",
	}
	p.DetectMarkers = []string{"ios xr", "ios-xr"}
	return p
}

// FujitsuSwitch is the Fujitsu blade switch CLI, "(name) #"
func FujitsuSwitch() entities.VendorProfile {
	p := base("fujitsu_switch")
	p.PromptTemplate = boxTemplate
	p.Prompt = entities.PromptRule{TrimLeft: 1, TrimRight: 3}
	p.DisablePaging = "no pager"
	p.CollapseBlankLines = true
	p.Modes = modes("conf", ")#")
	p.DetectMarkers = []string{"fujitsu"}
	return p
}

// UbiquitiEdge is the EdgeSwitch CLI, "(UBNT) >"
func UbiquitiEdge() entities.VendorProfile {
	p := base("ubiquiti_edge")
	p.PromptTemplate = boxTemplate
	p.Prompt = entities.PromptRule{TrimLeft: 1, TrimRight: 3}
	p.Modes = modes("configure", ")#")
	p.DetectMarkers = []string{"edgeswitch", "ubiquiti"}
	return p
}

// ArubaAOS is ArubaOS 6, "(host) (config) #"
func ArubaAOS() entities.VendorProfile {
	p := base("aruba_aos")
	p.PromptTemplate = `\({prompt}.*?\) (\(.*?\))?\s?[{delimiters}]`
	p.Prompt = entities.PromptRule{TrimLeft: 1, TrimRight: 3}
	p.DisablePaging = "no paging"
	p.Modes = modes("conf t", ") (config")
	p.DetectMarkers = []string{"arubaos", "aruba networks"}
	return p
}

// Profiles lists the family, most specific detection markers first
func Profiles() []entities.VendorProfile {
	return []entities.VendorProfile{
		CiscoIOSXR(),
		CiscoXE(),
		CiscoNXOS(),
		CiscoASA(),
		AristaEOS(),
		FujitsuSwitch(),
		UbiquitiEdge(),
		ArubaAOS(),
		CiscoIOS(),
	}
}
