package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/caixa-installment-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.input))
		})
	}
}

func TestNewLogger_LevelGate(t *testing.T) {
	cfg := &config.Config{Logging: config.LoggingConfig{Level: "warn"}}
	logger := NewLogger(cfg)
	require.NotNil(t, logger)

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestNewLogger_AttachesApplicationAttributes(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		Application: config.ApplicationConfig{Name: "caixa-api", Env: "test"},
		Logging:     config.LoggingConfig{Level: "debug"},
	}

	logger := newLogger(&buf, cfg)
	logger.Debug("payment created", "payment_id", "p-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "init line plus the debug line")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	assert.Equal(t, "payment created", record["msg"])
	assert.Equal(t, "caixa-api", record["app"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "p-1", record["payment_id"])
	assert.Contains(t, record, "source", "debug level adds source location")
}
