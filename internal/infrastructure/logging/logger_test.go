package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONAddsServiceAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "info",
		Format:      "json",
		Output:      &buf,
		ServiceName: "ticket-insight",
		Environment: "test",
	})

	ctx := WithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "ticket created", "ticket_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ticket created", entry["msg"])
	assert.Equal(t, "ticket-insight", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, float64(7), entry["ticket_id"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLogger_TextFormatWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "debug", Format: "text", Output: &buf})

	logger.Error("store failed", "error", errors.New("connection refused"))

	out := buf.String()
	assert.Contains(t, out, "store failed")
	assert.Contains(t, out, "connection refused")
	assert.NotContains(t, out, "\x1b[", "no colour codes when output is not a terminal")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
