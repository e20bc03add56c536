package transport

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
	"github.com/carlosrabelo/netterm/infrastructure/logging"
	"github.com/carlosrabelo/netterm/platform"
)

type ptyRequest struct {
	Term    string
	Columns uint32
	Rows    uint32
	Width   uint32
	Height  uint32
	Modes   string
}

// sshServer is a one-prompt CLI that echoes commands
type sshServer struct {
	addr    *net.TCPAddr
	hostKey ssh.Signer

	mu    sync.Mutex
	user  string
	pty   ptyRequest
	lines []string
}

func startSSHServer(t *testing.T, clientKey ssh.PublicKey) *sshServer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostKey, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	srv := &sshServer{hostKey: hostKey}
	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if strings.HasPrefix(c.User(), "netops") && string(password) == "secret" {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
		PublicKeyCallback: func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if clientKey != nil && string(key.Marshal()) == string(clientKey.Marshal()) {
				return nil, nil
			}
			return nil, errors.New("unknown key")
		},
	}
	config.AddHostKey(hostKey)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	srv.addr = ln.Addr().(*net.TCPAddr)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.serve(conn, config)
		}
	}()
	return srv
}

func (s *sshServer) serve(conn net.Conn, config *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	defer sconn.Close()
	s.mu.Lock()
	s.user = sconn.User()
	s.mu.Unlock()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go func() {
			for req := range requests {
				switch req.Type {
				case "pty-req":
					var pty ptyRequest
					ssh.Unmarshal(req.Payload, &pty)
					s.mu.Lock()
					s.pty = pty
					s.mu.Unlock()
					req.Reply(true, nil)
				case "shell":
					req.Reply(true, nil)
					go s.shell(ch)
				default:
					req.Reply(false, nil)
				}
			}
		}()
	}
}

func (s *sshServer) shell(ch ssh.Channel) {
	defer ch.Close()
	ch.Write([]byte("Authorized access only\r\nrouter>"))
	reader := bufio.NewReader(ch)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()
		if line == "exit" {
			return
		}
		ch.Write([]byte(line + "\r\nrouter>"))
	}
}

func (s *sshServer) config() entities.SessionConfig {
	return entities.SessionConfig{
		Host:     s.addr.IP.String(),
		Port:     s.addr.Port,
		Username: "netops",
		Password: "secret",
		Timeout:  5 * time.Second,
	}
}

func (s *sshServer) session() (string, ptyRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.pty
}

// readUntil collects chunks until text contains substr
func readUntil(t *testing.T, tr ports.Transport, substr string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out strings.Builder
	for !strings.Contains(out.String(), substr) {
		chunk, err := tr.Read(ctx)
		require.NoError(t, err, "output so far: %q", out.String())
		out.WriteString(chunk)
	}
	return out.String()
}

func mustProfile(t *testing.T, name string) entities.VendorProfile {
	t.Helper()
	profile, err := platform.Get(name)
	require.NoError(t, err)
	return profile
}

func TestSSHTransport_Shell(t *testing.T) {
	srv := startSSHServer(t, nil)
	tr := NewSSH(srv.config(), mustProfile(t, "cisco_ios"), logging.NoOp{})
	require.NoError(t, tr.Connect(context.Background()))
	t.Cleanup(func() { tr.Disconnect() })

	assert.Contains(t, readUntil(t, tr, "router>"), "Authorized access only")
	require.NoError(t, tr.Send("show clock\n"))
	assert.Contains(t, readUntil(t, tr, "router>"), "show clock")

	user, pty := srv.session()
	assert.Equal(t, "netops", user)
	assert.Equal(t, "vt100", pty.Term)
	assert.Equal(t, uint32(TerminalWidth), pty.Columns)
	assert.Equal(t, uint32(TerminalHeight), pty.Rows)
	assert.Equal(t, srv.addr.IP.String(), tr.Host())
}

func TestSSHTransport_ProfileQuirks(t *testing.T) {
	srv := startSSHServer(t, nil)
	tr := NewSSH(srv.config(), mustProfile(t, "mikrotik_routeros"), logging.NoOp{})
	require.NoError(t, tr.Connect(context.Background()))
	t.Cleanup(func() { tr.Disconnect() })
	readUntil(t, tr, "router>")

	user, pty := srv.session()
	assert.Equal(t, "netops+ct200w", user)
	assert.Equal(t, "dumb", pty.Term)
}

func TestSSHTransport_AuthFailure(t *testing.T) {
	srv := startSSHServer(t, nil)
	cfg := srv.config()
	cfg.Password = "wrong"

	err := NewSSH(cfg, mustProfile(t, "cisco_ios"), logging.NoOp{}).Connect(context.Background())
	var disconnect *entities.DisconnectError
	require.ErrorAs(t, err, &disconnect)
	assert.Equal(t, cfg.Host, disconnect.Host)
	assert.Contains(t, disconnect.Reason, "unable to authenticate")
}

func TestSSHTransport_ClientKeys(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	srv := startSSHServer(t, sshPub)
	dir := t.TempDir()

	plain, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	encrypted, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte("hunter2"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		block      *pem.Block
		passphrase string
		wantErr    bool
	}{
		{name: "plain key", block: plain},
		{name: "encrypted key", block: encrypted, passphrase: "hunter2"},
		{name: "wrong passphrase", block: encrypted, passphrase: "nope", wantErr: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "id_"+strconv.Itoa(i))
			require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(tt.block), 0o600))

			cfg := srv.config()
			cfg.Password = ""
			cfg.ClientKeys = []string{path}
			cfg.Passphrase = tt.passphrase

			tr := NewSSH(cfg, mustProfile(t, "cisco_ios"), logging.NoOp{})
			err := tr.Connect(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrDisconnect)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { tr.Disconnect() })
			readUntil(t, tr, "router>")
		})
	}
}

func TestSSHTransport_KnownHosts(t *testing.T) {
	srv := startSSHServer(t, nil)
	_, other, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherSigner, err := ssh.NewSignerFromKey(other)
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     ssh.PublicKey
		wantErr bool
	}{
		{name: "trusted host key", key: srv.hostKey.PublicKey()},
		{name: "changed host key", key: otherSigner.PublicKey(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "known_hosts")
			line := knownhosts.Line([]string{knownhosts.Normalize(srv.addr.String())}, tt.key)
			require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o600))

			cfg := srv.config()
			cfg.KnownHosts = path
			tr := NewSSH(cfg, mustProfile(t, "cisco_ios"), logging.NoOp{})
			err := tr.Connect(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrDisconnect)
				return
			}
			require.NoError(t, err)
			tr.Disconnect()
		})
	}

	cfg := srv.config()
	cfg.KnownHosts = filepath.Join(t.TempDir(), "missing")
	assert.ErrorIs(t, NewSSH(cfg, mustProfile(t, "cisco_ios"), logging.NoOp{}).Connect(context.Background()), entities.ErrDisconnect)
}

func TestSSHTransport_RemoteClose(t *testing.T) {
	srv := startSSHServer(t, nil)
	tr := NewSSH(srv.config(), mustProfile(t, "cisco_ios"), logging.NoOp{})
	require.NoError(t, tr.Connect(context.Background()))
	t.Cleanup(func() { tr.Disconnect() })
	readUntil(t, tr, "router>")

	require.NoError(t, tr.Send("exit\n"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, err := tr.Read(ctx)
		if err != nil {
			assert.NotErrorIs(t, err, context.DeadlineExceeded)
			return
		}
	}
}

func TestSSHTransport_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	cfg := entities.SessionConfig{Host: "127.0.0.1", Port: addr.Port, Username: "netops", Password: "secret", Timeout: time.Second}
	err = NewSSH(cfg, mustProfile(t, "cisco_ios"), logging.NoOp{}).Connect(context.Background())
	assert.ErrorIs(t, err, entities.ErrDisconnect)

	cfg.LocalAddr = "not an address"
	err = NewSSH(cfg, mustProfile(t, "cisco_ios"), logging.NoOp{}).Connect(context.Background())
	assert.ErrorIs(t, err, entities.ErrDisconnect)
}
