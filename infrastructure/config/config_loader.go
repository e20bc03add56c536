// Package config loads the device inventory: global defaults, per-device
// overrides and custom vendor profiles.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
	"github.com/carlosrabelo/netterm/platform"
)

// Config defines the global configuration
type Config struct {
	DeviceType    string                   `yaml:"device_type"`
	LegacyVendor  string                   `yaml:"platform"`
	Transport     string                   `yaml:"transport"`
	Username      string                   `yaml:"username"`
	Password      string                   `yaml:"password"`
	Secret        string                   `yaml:"secret"`
	CmdlinePass   string                   `yaml:"cmdline_password"`
	Preempt       bool                     `yaml:"preempt_privilege"`
	Timeout       time.Duration            `yaml:"timeout"`
	KnownHosts    string                   `yaml:"known_hosts"`
	LocalAddr     string                   `yaml:"local_addr"`
	ClientKeys    []string                 `yaml:"client_keys"`
	Passphrase    string                   `yaml:"passphrase"`
	SkipElevation bool                     `yaml:"skip_elevation"`
	SNMPCommunity string                   `yaml:"snmp_community"`
	Profiles      []yaml.Node              `yaml:"profiles"`
	Devices       []entities.SessionConfig `yaml:"devices"`
}

// Device returns the device whose host matches target
func (c *Config) Device(target string) (entities.SessionConfig, bool) {
	for _, d := range c.Devices {
		if d.Host == target {
			return d, true
		}
	}
	return entities.SessionConfig{}, false
}

// Hosts lists the configured hosts in file order
func (c *Config) Hosts() []string {
	hosts := make([]string, len(c.Devices))
	for i, d := range c.Devices {
		hosts[i] = d.Host
	}
	return hosts
}

func validateTransport(transport string) error {
	switch transport {
	case entities.TransportSSH, entities.TransportTelnet:
		return nil
	default:
		return fmt.Errorf("transport %s is invalid, must be 'ssh' or 'telnet'", transport)
	}
}

func validateDeviceType(deviceType string) error {
	if !platform.IsKnown(deviceType) {
		return fmt.Errorf("device_type %s is invalid, must be one of %s or '%s'",
			deviceType, strings.Join(platform.Available(), ", "), platform.AutoName)
	}
	return nil
}

// Load loads, validates and expands the inventory in yamlFile
func Load(yamlFile string, verbosityLevel int, logger ports.Logger) (*Config, error) {
	data, err := os.ReadFile(yamlFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", yamlFile, err)
	}
	return Parse(data, verbosityLevel, logger)
}

// Parse is Load for an inventory already in memory
func Parse(data []byte, verbosityLevel int, logger ports.Logger) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range cfg.Profiles {
		name, err := registerProfile(&cfg.Profiles[i])
		if err != nil {
			return nil, fmt.Errorf("invalid profile %d: %w", i, err)
		}
		logger.Debug("registered custom profile", "device_type", name)
	}

	if cfg.DeviceType == "" {
		cfg.DeviceType = cfg.LegacyVendor
	}
	cfg.DeviceType = normalize(cfg.DeviceType)
	if cfg.DeviceType == "" {
		cfg.DeviceType = platform.AutoName
	}
	if err := validateDeviceType(cfg.DeviceType); err != nil {
		return nil, err
	}

	cfg.Transport = normalize(cfg.Transport)
	if cfg.Transport == "" {
		cfg.Transport = entities.TransportSSH
	}
	if err := validateTransport(cfg.Transport); err != nil {
		return nil, err
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("global timeout must not be negative")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = entities.DefaultTimeout
	}

	logger.Debug("global values", "device_type", cfg.DeviceType, "transport", cfg.Transport, "timeout", cfg.Timeout)

	if len(cfg.Devices) == 0 {
		return nil, fmt.Errorf("no devices defined in the YAML configuration")
	}
	seen := make(map[string]bool, len(cfg.Devices))
	for i, dev := range cfg.Devices {
		dev, err := cfg.inherit(dev, i, logger)
		if err != nil {
			return nil, err
		}
		if seen[dev.Host] {
			return nil, fmt.Errorf("host %s is defined more than once", dev.Host)
		}
		seen[dev.Host] = true
		dev.VerbosityLevel = verbosityLevel
		cfg.Devices[i] = dev
		logger.Debug("final device configuration", "host", dev.Host, "device_type", dev.DeviceType,
			"transport", dev.Transport, "port", dev.EffectivePort(), "timeout", dev.Timeout)
	}
	return &cfg, nil
}

// inherit fills the unset fields of dev from the global section and validates the result
func (c *Config) inherit(dev entities.SessionConfig, i int, logger ports.Logger) (entities.SessionConfig, error) {
	dev.Host = strings.TrimSpace(dev.Host)
	if dev.Host == "" {
		return dev, fmt.Errorf("host is required for device %d", i)
	}

	dev.DeviceType = normalize(dev.DeviceType)
	if dev.DeviceType == "" {
		dev.DeviceType = c.DeviceType
		logger.Debug("no device_type defined, using global", "host", dev.Host, "device_type", c.DeviceType)
	}
	if err := validateDeviceType(dev.DeviceType); err != nil {
		return dev, fmt.Errorf("invalid device_type for device %s: %w", dev.Host, err)
	}

	dev.Transport = normalize(dev.Transport)
	if dev.Transport == "" {
		dev.Transport = c.Transport
	}
	if err := validateTransport(dev.Transport); err != nil {
		return dev, fmt.Errorf("invalid transport for device %s: %w", dev.Host, err)
	}
	if dev.Port < 0 || dev.Port > 65535 {
		return dev, fmt.Errorf("port %d is invalid for device %s", dev.Port, dev.Host)
	}

	dev.Username = firstNonEmpty(dev.Username, c.Username)
	dev.Password = firstNonEmpty(dev.Password, c.Password)
	dev.Secret = firstNonEmpty(dev.Secret, c.Secret)
	dev.CmdlinePassword = firstNonEmpty(dev.CmdlinePassword, c.CmdlinePass)
	dev.KnownHosts = firstNonEmpty(dev.KnownHosts, c.KnownHosts)
	dev.LocalAddr = firstNonEmpty(dev.LocalAddr, c.LocalAddr)
	dev.Passphrase = firstNonEmpty(dev.Passphrase, c.Passphrase)
	dev.SNMPCommunity = firstNonEmpty(dev.SNMPCommunity, c.SNMPCommunity)
	if len(dev.ClientKeys) == 0 {
		dev.ClientKeys = append([]string(nil), c.ClientKeys...)
	}
	dev.SkipElevation = dev.SkipElevation || c.SkipElevation
	dev.PreemptPrivilege = dev.PreemptPrivilege || c.Preempt
	if dev.Timeout == 0 {
		dev.Timeout = c.Timeout
	}
	if dev.Timeout < 0 {
		return dev, fmt.Errorf("timeout must not be negative for device %s", dev.Host)
	}

	if dev.Username == "" {
		return dev, fmt.Errorf("username is required for device %s", dev.Host)
	}
	if dev.Password == "" && len(dev.ClientKeys) == 0 {
		return dev, fmt.Errorf("password or client_keys is required for device %s", dev.Host)
	}
	if dev.Transport == entities.TransportTelnet && dev.Password == "" {
		return dev, fmt.Errorf("password is required for telnet device %s", dev.Host)
	}
	if dev.LocalAddr != "" && net.ParseIP(dev.LocalAddr) == nil {
		return dev, fmt.Errorf("local_addr %s is not an IP address for device %s", dev.LocalAddr, dev.Host)
	}
	return dev, nil
}

// registerProfile decodes a custom profile, optionally on top of the
// built-in named by its "extends" key, and registers it.
func registerProfile(node *yaml.Node) (string, error) {
	var header struct {
		Name    string `yaml:"name"`
		Extends string `yaml:"extends"`
	}
	if err := node.Decode(&header); err != nil {
		return "", err
	}
	if header.Name == "" {
		return "", fmt.Errorf("profile name is required")
	}

	var profile entities.VendorProfile
	if header.Extends != "" {
		base, err := platform.Get(header.Extends)
		if err != nil {
			return "", fmt.Errorf("profile %s extends %w", header.Name, err)
		}
		profile = base
	}
	if err := node.Decode(&profile); err != nil {
		return "", err
	}
	if err := platform.Register(profile); err != nil {
		return "", err
	}
	return normalize(profile.Name), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
