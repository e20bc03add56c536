package fakedevice

import "strings"

const (
	// XRCommitFailure is what IOS-XR prints when a commit is rejected
	XRCommitFailure = "% Failed to commit one or more configuration items during a pseudo-atomic operation. " +
		"All changes made have been reverted. Please issue 'show configuration failed [inheritance]' " +
		"from this session to view the errors"
	junosExitQuestion = "The configuration has been changed but not committed\nExit with uncommitted changes? [yes,no] (yes) "
	xrExitQuestion    = "Uncommitted changes found, commit them before exiting(yes/no/cancel)? [cancel]:"
)

// CiscoIOS returns a router in user mode that asks for secret on enable
func CiscoIOS(host, hostname, secret string) *Device {
	d := New(host, "user", hostname+">").
		AddMode("privilege", hostname+"#").
		AddMode("config", hostname+"(config)#").
		AddMode("config-if", hostname+"(config-if)#")

	d.Handle("user", "enable", func(d *Device, _ string) string {
		return d.Ask("Password: ", func(answer string) string {
			if answer != secret {
				return "% Access denied"
			}
			d.SetMode("privilege")
			return ""
		})
	})
	d.Transition("privilege", "disable", "user")
	configure := func(d *Device, _ string) string {
		d.SetMode("config")
		return "Enter configuration commands, one per line.  End with CNTL/Z."
	}
	d.Handle("privilege", "configure terminal", configure)
	d.Handle("privilege", "conf t", configure)
	d.Respond("*", "terminal length 0", "")
	d.Respond("privilege", "show version", "Cisco IOS Software, C2960 Software\nROM: Bootstrap program is C2960 boot loader\n"+hostname+" uptime is 2 weeks")
	d.Transition("config", "end", "privilege")
	d.Transition("config-if", "end", "privilege")
	d.Transition("config-if", "exit", "config")
	d.Fallback("config", func(d *Device, cmd string) string {
		if strings.HasPrefix(cmd, "interface ") {
			d.SetMode("config-if")
		}
		return ""
	})
	d.Fallback("config-if", func(*Device, string) string { return "" })
	return d
}

// Junos returns a router in operational mode with a candidate configuration
func Junos(host, user, hostname string) *Device {
	dirty := false
	d := New(host, "cli", user+"@"+hostname+"> ").
		AddMode("config", "\r\n[edit]\r\n"+user+"@"+hostname+"# ")

	d.Respond("cli", "set cli screen-length 0", "Screen length set to 0")
	d.Respond("cli", "show version", "Hostname: "+hostname+"\nModel: mx960\nJunos: 21.4R3")
	d.Handle("cli", "configure", func(d *Device, _ string) string {
		d.SetMode("config")
		return "Entering configuration mode"
	})
	d.Handle("config", "commit", func(*Device, string) string {
		dirty = false
		return "commit complete"
	})
	d.Handle("config", "rollback 0", func(*Device, string) string {
		dirty = false
		return "load complete"
	})
	d.Handle("config", "exit configuration-mode", func(d *Device, _ string) string {
		if !dirty {
			d.SetMode("cli")
			return "Exiting configuration mode"
		}
		return d.Confirm(junosExitQuestion, func(answer string) string {
			if answer == "no" {
				return ""
			}
			dirty = false
			d.SetMode("cli")
			return "Exiting configuration mode"
		})
	})
	d.Fallback("config", func(*Device, string) string {
		dirty = true
		return ""
	})
	return d
}

// CiscoIOSXR returns a router in exec mode whose commits succeed until the
// "commit" handler is replaced
func CiscoIOSXR(host, hostname string) *Device {
	dirty := false
	prefix := "RP/0/RSP0/CPU0:" + hostname
	d := New(host, "privilege", prefix+"#").
		AddMode("config", prefix+"(config)#")

	d.Respond("*", "terminal length 0", "")
	d.Transition("privilege", "configure terminal", "config")
	d.Handle("config", "commit", func(*Device, string) string {
		dirty = false
		return ""
	})
	d.Handle("config", "abort", func(d *Device, _ string) string {
		dirty = false
		d.SetMode("privilege")
		return ""
	})
	d.Handle("config", "end", func(d *Device, _ string) string {
		if !dirty {
			d.SetMode("privilege")
			return ""
		}
		return d.Confirm(xrExitQuestion, func(answer string) string {
			if answer == "yes" || answer == "no" {
				dirty = false
				d.SetMode("privilege")
			}
			return ""
		})
	})
	d.Fallback("config", func(*Device, string) string {
		dirty = true
		return ""
	})
	return d
}

// HPComwareLimited returns a switch in user view whose paging command only
// works after "_cmdline-mode on" is unlocked with password
func HPComwareLimited(host, hostname, password string) *Device {
	unlocked := false
	d := New(host, "user", "<"+hostname+">").
		AddMode("system", "["+hostname+"]")

	d.Handle("user", "_cmdline-mode on", func(d *Device, _ string) string {
		return d.Confirm("All commands can be displayed and executed. Continue? [Y/N]:", func(answer string) string {
			if answer != "Y" {
				return ""
			}
			return d.Ask("Please input password:", func(answer string) string {
				if answer != password {
					return "Error: Invalid password."
				}
				unlocked = true
				return "Warning: Now you enter an all-command mode for developer's testing, some commands may affect operation by wrong use, please carefully use it with our engineer's direction."
			})
		})
	})
	d.Handle("*", "screen-length disable", func(*Device, string) string {
		if !unlocked {
			return "% Unrecognized command found at '^' position."
		}
		return ""
	})
	d.Respond("user", "display version", "HPE Comware Software, Version 7.1.070, Release 3208P08\n"+hostname+" uptime is 0 weeks, 3 days")
	d.Transition("user", "system-view", "system")
	d.Transition("system", "return", "user")
	return d
}

// HW1000 returns a crypto gateway in user exec. When busy is set another
// administrator holds privilege exec and enable offers to terminate it.
func HW1000(host, hostname, secret string, busy bool) *Device {
	d := New(host, "user", hostname+"> ").
		AddMode("privilege", hostname+"# ").
		AddMode("shell", "sh-4.1# ")

	d.Handle("user", "enable", func(d *Device, _ string) string {
		return d.Ask("Password: ", func(answer string) string {
			if answer != secret {
				return "% Access denied"
			}
			if !busy {
				d.SetMode("privilege")
				return ""
			}
			return d.Confirm("Another administrator session is active.\nAre you sure you want to force termination of the specified session? (Yes/No) ", func(answer string) string {
				if answer != "Yes" {
					return ""
				}
				busy = false
				d.SetMode("privilege")
				return "Session terminated"
			})
		})
	})
	d.Transition("privilege", "exit", "user")
	d.Respond("privilege", "show version", "ViPNet HW1000 4.5.0-2103\nHostname: "+hostname)
	d.Handle("privilege", "admin esc", func(d *Device, _ string) string {
		return d.Confirm("Are you sure you want to exit to the Linux system shell? (Yes/No) ", func(answer string) string {
			if answer != "Yes" {
				return ""
			}
			return d.Ask("password: ", func(answer string) string {
				if answer != secret {
					return "Access denied"
				}
				d.SetMode("shell")
				return ""
			})
		})
	})
	d.Transition("shell", "exit", "privilege")
	d.Respond("shell", "uname -r", "4.14.0-hw1000")
	return d
}

// AlcatelAOS returns an OmniSwitch whose output may repeat the host name
// followed by a prompt delimiter
func AlcatelAOS(host, hostname string) *Device {
	d := New(host, "cli", hostname+"> ")
	d.Respond("cli", "terminal length 0", "")
	d.Respond("cli", "show system", "System:\n  Description:  Alcatel-Lucent OS6450-24 6.7.2.191.R04\n  Contact:      noc, "+hostname+"> core uplink,\n  Name:         "+hostname)
	return d
}
