package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		level  slog.Level
		silent bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"silent", slog.LevelError, true},
		{"off", slog.LevelError, true},
		{"whatever", slog.LevelInfo, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			lvl, silent := ParseLevel(tc.in)
			assert.Equal(t, tc.level, lvl)
			assert.Equal(t, tc.silent, silent)
		})
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "user", "alice")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "user=alice")
}

func TestNew_Silent(t *testing.T) {
	var buf bytes.Buffer
	logger := New("silent", &buf)

	logger.Error("nothing")

	assert.Empty(t, buf.String())
}
