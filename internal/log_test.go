package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{"", LogLevelInfo},
		{"bogus", LogLevelInfo},
		{" debug ", LogLevelDebug},
		{"TRACE", LogLevelTrace},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), tt.in)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Info("hidden %d", 1)
	logger.Debug("hidden %d", 2)
	assert.Empty(t, buf.String())

	logger.Warn("shown %s", "warning")
	assert.Contains(t, buf.String(), "shown warning")
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelTrace).With("scenario", "A")

	logger.Trace("bootstrap resample %d", 7)
	assert.Contains(t, buf.String(), "bootstrap resample 7")
	assert.Contains(t, buf.String(), "scenario")
	assert.Equal(t, LogLevelTrace, logger.GetLevel())
}
