package transport

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ziutek/telnet"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
)

// TelnetTransport is a Telnet stream that logs in before handing over
type TelnetTransport struct {
	config  entities.SessionConfig
	profile entities.VendorProfile
	logger  ports.Logger

	conn *telnet.Conn
	pump *pump
}

// NewTelnet creates a Telnet transport; nothing is dialed until Connect
func NewTelnet(cfg entities.SessionConfig, profile entities.VendorProfile, logger ports.Logger) *TelnetTransport {
	return &TelnetTransport{config: cfg, profile: profile, logger: logger}
}

// Connect dials the device and answers the login prompts of the profile
func (t *TelnetTransport) Connect(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	dialer, err := newDialer(t.config)
	if err != nil {
		return t.fail("invalid local address", err)
	}
	addr := t.config.Address()
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return t.fail(fmt.Sprintf("failed to connect to %s", addr), err)
	}
	conn, err := telnet.NewConn(raw)
	if err != nil {
		raw.Close()
		return t.fail("failed to start telnet session", err)
	}
	t.conn = conn
	t.pump = newPump(conn)
	t.logger.Debug("telnet connected", "addr", addr)

	if err := t.login(ctx); err != nil {
		t.Disconnect()
		return err
	}
	return nil
}

func (t *TelnetTransport) login(ctx context.Context) error {
	username := t.config.Username + t.profile.UsernameSuffix
	for _, p := range t.profile.EffectiveLoginPrompts() {
		re, err := regexp.Compile(p.WaitFor)
		if err != nil {
			return t.fail("invalid login prompt "+p.WaitFor, err)
		}
		output, err := t.readUntil(ctx, re)
		if err != nil {
			return t.fail(fmt.Sprintf("failed to wait for %s, output: %s", p.WaitFor, output), err)
		}
		if p.SendCmd == "" {
			continue
		}
		if err := t.Send(p.Expand(username, t.config.Password) + t.profile.EffectiveTerminator()); err != nil {
			return err
		}
		t.logger.Debug("answered login prompt", "prompt", p.WaitFor)
	}
	return nil
}

func (t *TelnetTransport) readUntil(ctx context.Context, re *regexp.Regexp) (string, error) {
	var output strings.Builder
	for {
		chunk, err := t.pump.read(ctx)
		if err != nil {
			return output.String(), err
		}
		output.WriteString(chunk)
		if re.MatchString(output.String()) {
			return output.String(), nil
		}
	}
}

// Send writes text to the stream as is
func (t *TelnetTransport) Send(text string) error {
	if t.conn == nil {
		return t.fail("not connected", nil)
	}
	if _, err := t.conn.Write([]byte(text)); err != nil {
		return t.fail("failed to write to stream", err)
	}
	return nil
}

// Read blocks until the device produces output or ctx is done
func (t *TelnetTransport) Read(ctx context.Context) (string, error) {
	if t.pump == nil {
		return "", t.fail("not connected", nil)
	}
	return t.pump.read(ctx)
}

// Disconnect closes the connection
func (t *TelnetTransport) Disconnect() error {
	if t.conn == nil {
		return nil
	}
	t.pump.close()
	err := t.conn.Close()
	t.conn, t.pump = nil, nil
	return err
}

// Host is the device identity used in errors
func (t *TelnetTransport) Host() string {
	return t.config.Host
}

func (t *TelnetTransport) fail(reason string, err error) error {
	if err != nil {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	return &entities.DisconnectError{Host: t.config.Host, Reason: reason, Err: err}
}

var _ ports.Transport = (*TelnetTransport)(nil)
