package entities

import (
	"net"
	"strconv"
	"time"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultSSHPort    = 22
	DefaultTelnetPort = 23
	TransportSSH      = "ssh"
	TransportTelnet   = "telnet"
)

// SessionConfig defines how to reach and drive a single device
type SessionConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	DeviceType       string        `yaml:"device_type"`
	Transport        string        `yaml:"transport"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	Secret           string        `yaml:"secret"`
	CmdlinePassword  string        `yaml:"cmdline_password"`
	PreemptPrivilege bool          `yaml:"preempt_privilege"`
	Timeout          time.Duration `yaml:"timeout"`
	KnownHosts       string        `yaml:"known_hosts"`
	LocalAddr        string        `yaml:"local_addr"`
	ClientKeys       []string      `yaml:"client_keys"`
	Passphrase       string        `yaml:"passphrase"`
	SkipElevation    bool          `yaml:"skip_elevation"`
	SNMPCommunity    string        `yaml:"snmp_community"`
	VerbosityLevel   int           `yaml:"-"`
}

// IsDebugEnabled returns true if debug logs are enabled
func (sc SessionConfig) IsDebugEnabled() bool {
	return sc.VerbosityLevel == 1 || sc.VerbosityLevel == 3
}

// IsRawOutputEnabled returns true if raw device output is logged
func (sc SessionConfig) IsRawOutputEnabled() bool {
	return sc.VerbosityLevel == 2 || sc.VerbosityLevel == 3
}

// EffectivePort returns the configured port or the transport default
func (sc SessionConfig) EffectivePort() int {
	if sc.Port > 0 {
		return sc.Port
	}
	if sc.Transport == TransportTelnet {
		return DefaultTelnetPort
	}
	return DefaultSSHPort
}

// Address returns host:port suitable for dialing
func (sc SessionConfig) Address() string {
	return net.JoinHostPort(sc.Host, strconv.Itoa(sc.EffectivePort()))
}

// OperationTimeout returns the per-operation deadline
func (sc SessionConfig) OperationTimeout() time.Duration {
	if sc.Timeout > 0 {
		return sc.Timeout
	}
	return DefaultTimeout
}
