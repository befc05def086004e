package internal

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("info"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("whatever"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, true)

	logger.Debug("hidden")
	logger.Info("analysis complete", "law", "benford")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "analysis complete")
	assert.Contains(t, out, "law=benford")
}
