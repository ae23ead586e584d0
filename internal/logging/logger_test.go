package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/ecotrack/internal/config"
)

func TestNewWritesJSONToLogFile(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Info("action created", zap.Int64("id", 7))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(cfg.LogFile())
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "action created", entry["msg"])
	assert.EqualValues(t, 7, entry["id"])
}

func TestNewWithSinkHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithSink(zapcore.AddSync(&buf), "warn")
	logger.Info("dropped")
	logger.Warn("kept")
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}
