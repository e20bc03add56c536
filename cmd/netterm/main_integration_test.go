//go:build integration

package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestExec_OpenSSHContainer runs exec end to end against a real OpenSSH server
func TestExec_OpenSSHContainer(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "linuxserver/openssh-server:latest",
			ExposedPorts: []string{"2222/tcp"},
			Env: map[string]string{
				"USER_NAME":       "netops",
				"USER_PASSWORD":   "secret",
				"PASSWORD_ACCESS": "true",
			},
			WaitingFor: wait.ForListeningPort("2222/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start openssh container")
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "2222/tcp")
	require.NoError(t, err)

	path := writeInventory(t, fmt.Sprintf(`
device_type: terminal
username: netops
password: secret
timeout: 20s
devices:
  - host: %s
    port: %d
`, host, port.Int()))

	out, stderr, err := execute("exec", "--config", path, "--target", host, "echo netterm-$((40+2))")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "netterm-42")
}
