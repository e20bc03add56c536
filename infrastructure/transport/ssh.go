package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
)

const (
	TerminalWidth  = 200
	TerminalHeight = 24
)

// SSHTransport is an interactive PTY shell over SSH
type SSHTransport struct {
	config  entities.SessionConfig
	profile entities.VendorProfile
	logger  ports.Logger

	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	pump    *pump
}

// NewSSH creates an SSH transport; nothing is dialed until Connect
func NewSSH(cfg entities.SessionConfig, profile entities.VendorProfile, logger ports.Logger) *SSHTransport {
	return &SSHTransport{config: cfg, profile: profile, logger: logger}
}

// Connect dials, authenticates and starts a shell on a PTY
func (t *SSHTransport) Connect(ctx context.Context) error {
	if t.session != nil {
		return nil
	}
	clientConfig, err := t.clientConfig()
	if err != nil {
		return t.fail("invalid ssh settings", err)
	}

	dialer, err := newDialer(t.config)
	if err != nil {
		return t.fail("invalid local address", err)
	}
	addr := t.config.Address()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return t.fail(fmt.Sprintf("failed to connect to %s via SSH", addr), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return t.fail("failed to establish SSH client connection", err)
	}
	_ = conn.SetDeadline(time.Time{})
	client := ssh.NewClient(clientConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return t.fail("failed to create SSH session", err)
	}

	modes := ssh.TerminalModes{
		ssh.TTY_OP_ISPEED: 9600,
		ssh.TTY_OP_OSPEED: 9600,
	}
	if err := session.RequestPty(t.profile.EffectiveTerminalType(), TerminalHeight, TerminalWidth, modes); err != nil {
		session.Close()
		client.Close()
		return t.fail("failed to request PTY", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return t.fail("failed to get stdin pipe", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return t.fail("failed to get stdout pipe", err)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return t.fail("failed to start shell", err)
	}

	t.client, t.session, t.stdin = client, session, stdin
	t.pump = newPump(stdout)
	t.logger.Debug("ssh shell opened", "addr", addr, "user", clientConfig.User)
	return nil
}

func (t *SSHTransport) clientConfig() (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if t.config.KnownHosts != "" {
		cb, err := knownhosts.New(t.config.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", t.config.KnownHosts, err)
		}
		hostKeyCallback = cb
	}

	var auth []ssh.AuthMethod
	if len(t.config.ClientKeys) > 0 {
		signers, err := loadSigners(t.config.ClientKeys, t.config.Passphrase)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signers...))
	}
	if t.config.Password != "" {
		password := t.config.Password
		auth = append(auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	return &ssh.ClientConfig{
		User:            t.config.Username + t.profile.UsernameSuffix,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         t.config.OperationTimeout(),
	}, nil
}

func loadSigners(paths []string, passphrase string) ([]ssh.Signer, error) {
	signers := make([]ssh.Signer, 0, len(paths))
	for _, path := range paths {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read client key %s: %w", path, err)
		}
		signer, err := parseKey(pem, passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client key %s: %w", path, err)
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

func parseKey(pem []byte, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(pem)
}

// Send writes text to the shell as is
func (t *SSHTransport) Send(text string) error {
	if t.stdin == nil {
		return t.fail("not connected", nil)
	}
	if _, err := io.WriteString(t.stdin, text); err != nil {
		return t.fail("failed to write to shell", err)
	}
	return nil
}

// Read blocks until the shell produces output or ctx is done
func (t *SSHTransport) Read(ctx context.Context) (string, error) {
	if t.pump == nil {
		return "", t.fail("not connected", nil)
	}
	return t.pump.read(ctx)
}

// Disconnect closes the shell and the connection
func (t *SSHTransport) Disconnect() error {
	if t.pump != nil {
		t.pump.close()
	}
	var err error
	if t.session != nil {
		t.session.Close()
	}
	if t.client != nil {
		err = t.client.Close()
	}
	t.client, t.session, t.stdin, t.pump = nil, nil, nil, nil
	return err
}

// Host is the device identity used in errors
func (t *SSHTransport) Host() string {
	return t.config.Host
}

func (t *SSHTransport) fail(reason string, err error) error {
	if err != nil {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	return &entities.DisconnectError{Host: t.config.Host, Reason: reason, Err: err}
}

func newDialer(cfg entities.SessionConfig) (*net.Dialer, error) {
	dialer := &net.Dialer{Timeout: cfg.OperationTimeout()}
	if cfg.LocalAddr != "" {
		local, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(cfg.LocalAddr, "0"))
		if err != nil {
			return nil, err
		}
		dialer.LocalAddr = local
	}
	return dialer, nil
}

var _ ports.Transport = (*SSHTransport)(nil)
