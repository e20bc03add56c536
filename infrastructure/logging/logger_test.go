package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/netterm/domain/entities"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name           string
		verbosityLevel int
		expected       slog.Level
	}{
		{name: "quiet", verbosityLevel: 0, expected: slog.LevelWarn},
		{name: "debug", verbosityLevel: 1, expected: slog.LevelDebug},
		{name: "raw output", verbosityLevel: 2, expected: slog.LevelDebug},
		{name: "debug and raw", verbosityLevel: 3, expected: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := entities.SessionConfig{VerbosityLevel: tt.verbosityLevel}
			assert.Equal(t, tt.expected, LevelFor(cfg))
		})
	}
}

func TestSlogAdapter_JSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelDebug, Format: "json"})

	logger.With("host", "r1", "session", "s-1").Info("connected", "mode", "privilege")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connected", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "r1", entry["host"])
	assert.Equal(t, "s-1", entry["session"])
	assert.Equal(t, "privilege", entry["mode"])
}

func TestSlogAdapter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := ForConfig(&buf, entities.SessionConfig{})

	logger.Debug("raw read", "data", "router#")
	logger.Info("connected")
	assert.Empty(t, buf.String())

	logger.Warn("failed to close transport")
	assert.Contains(t, buf.String(), "failed to close transport")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestNoOp(t *testing.T) {
	var logger NoOp
	logger.Error("ignored", "k", "v")
	assert.Equal(t, logger, logger.With("host", "r1"))
}
