package ports

import "context"

// Transport defines the port for the byte stream to a device.
// Implementations own the channel setup (SSH PTY, Telnet login); the session
// layer only sees text in and text out.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Send(text string) error
	// Read blocks until a chunk is available, the stream ends or ctx is done.
	Read(ctx context.Context) (string, error)
	Host() string
}
