package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
	"github.com/carlosrabelo/netterm/internal/fakedevice"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type logSink struct {
	mu      sync.Mutex
	entries []logEntry
}

// recordingLogger keeps every entry so tests can assert on logging
type recordingLogger struct {
	sink  *logSink
	attrs []any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{sink: &logSink{}}
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	all := append(append([]any{}, l.attrs...), args...)
	l.sink.entries = append(l.sink.entries, logEntry{level: level, msg: msg, args: all})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

func (l *recordingLogger) With(args ...any) ports.Logger {
	return &recordingLogger{sink: l.sink, attrs: append(append([]any{}, l.attrs...), args...)}
}

func (l *recordingLogger) messages(level string) []string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	var out []string
	for _, e := range l.sink.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

func (l *recordingLogger) contains(level, msg string) bool {
	for _, m := range l.messages(level) {
		if m == msg {
			return true
		}
	}
	return false
}

func (l *recordingLogger) String() string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return fmt.Sprint(l.sink.entries)
}

func testConfig() entities.SessionConfig {
	return entities.SessionConfig{
		Host:     "192.0.2.10",
		Username: "netops",
		Password: "secret",
		Secret:   "enable-secret",
		Timeout:  2 * time.Second,
	}
}

// connectSession builds a session over device and connects it
func connectSession(t *testing.T, cfg entities.SessionConfig, deviceType string, device *fakedevice.Device, opts ...SessionOption) *SessionManager {
	t.Helper()
	opts = append([]SessionOption{WithSettleDelay(5 * time.Millisecond)}, opts...)
	s, err := NewSessionManager(cfg, mustProfile(t, deviceType), device, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Disconnect(context.Background()) })
	return s
}

// indexOf returns the position of line in sent, or -1
func indexOf(sent []string, line string) int {
	for i, s := range sent {
		if s == line {
			return i
		}
	}
	return -1
}

func countOf(sent []string, line string) int {
	n := 0
	for _, s := range sent {
		if s == line {
			n++
		}
	}
	return n
}

// commands drops the blank lines sent to read the prompt
func commands(sent []string) []string {
	out := make([]string, 0, len(sent))
	for _, s := range sent {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// newTestGraph connects device and returns a graph with the prompt of base installed
func newTestGraph(t *testing.T, device *fakedevice.Device, deviceType, secret, base string) (*ModeGraph, *StreamReader) {
	t.Helper()
	ctx := context.Background()
	profile := mustProfile(t, deviceType)
	require.NoError(t, device.Connect(ctx))

	reader := NewStreamReader(device, profile, nopLogger{}, false)
	_, _, err := reader.ReadUntil(ctx, DelimiterPattern(profile))
	require.NoError(t, err)

	graph, err := NewModeGraph(profile, reader, Credentials{Secret: secret}, nopLogger{})
	require.NoError(t, err)
	prompt, err := BuildPromptPattern(profile, base)
	require.NoError(t, err)
	graph.SetPrompt(base, prompt)
	return graph, reader
}
