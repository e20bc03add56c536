// Package snmp identifies devices from their SNMP sysDescr.
package snmp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
	"github.com/carlosrabelo/netterm/platform"
)

const (
	SysDescrOID = ".1.3.6.1.2.1.1.1.0"
	DefaultPort = 161
)

// Client is the part of gosnmp.GoSNMP the detector uses
type Client interface {
	Connect() error
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

type gosnmpClient struct {
	*gosnmp.GoSNMP
}

func (c gosnmpClient) Close() error {
	if c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}

// Dialer builds a client for one device
type Dialer func(host, community string, timeout time.Duration) Client

// DialV2c is the default Dialer: SNMP v2c over UDP port 161
func DialV2c(host, community string, timeout time.Duration) Client {
	return gosnmpClient{&gosnmp.GoSNMP{
		Target:    host,
		Port:      DefaultPort,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   1,
		Transport: "udp",
	}}
}

// Detector resolves device types from sysDescr
type Detector struct {
	dial   Dialer
	logger ports.Logger
}

// NewDetector returns a detector; a nil dial uses DialV2c
func NewDetector(dial Dialer, logger ports.Logger) *Detector {
	if dial == nil {
		dial = DialV2c
	}
	return &Detector{dial: dial, logger: logger}
}

// SysDescr fetches sysDescr.0 from the device
func (d *Detector) SysDescr(ctx context.Context, cfg entities.SessionConfig) (string, error) {
	if cfg.SNMPCommunity == "" {
		return "", fmt.Errorf("no snmp community configured for %s", cfg.Host)
	}
	timeout := cfg.OperationTimeout()
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	client := d.dial(cfg.Host, cfg.SNMPCommunity, timeout)
	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("failed to open snmp session to %s: %w", cfg.Host, err)
	}
	defer client.Close()

	packet, err := client.Get([]string{SysDescrOID})
	if err != nil {
		return "", fmt.Errorf("failed to query sysDescr on %s: %w", cfg.Host, err)
	}
	for _, v := range packet.Variables {
		if strings.TrimPrefix(v.Name, ".") != strings.TrimPrefix(SysDescrOID, ".") {
			continue
		}
		switch value := v.Value.(type) {
		case []byte:
			return string(value), nil
		case string:
			return value, nil
		}
	}
	return "", fmt.Errorf("sysDescr missing in snmp response from %s", cfg.Host)
}

// Detect returns the device type whose markers appear in sysDescr
func (d *Detector) Detect(ctx context.Context, cfg entities.SessionConfig) (string, error) {
	descr, err := d.SysDescr(ctx, cfg)
	if err != nil {
		return "", err
	}
	d.logger.Debug("snmp sysDescr", "host", cfg.Host, "sys_descr", descr)
	deviceType, ok := platform.DetectFromText(descr)
	if !ok {
		return "", fmt.Errorf("no device type matches sysDescr of %s: %q", cfg.Host, firstLine(descr))
	}
	return deviceType, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
