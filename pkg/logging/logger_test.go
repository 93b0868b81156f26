package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronesim/pkg/config"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logPath := filepath.Join(t.TempDir(), "logs", "dronesim.log")
	cfg := &config.LogConfig{
		Path:       logPath,
		Level:      "DEBUG",
		MaxSizeMB:  1,
		MaxBackups: 1,
	}

	logger, cleanup, err := Init(cfg)
	require.NoError(t, err)

	logger.Debug("engine ready", "drone", "d1")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"engine ready"`)
	assert.Contains(t, string(data), `"drone":"d1"`)
}

func TestInit_BadLevel(t *testing.T) {
	_, _, err := Init(&config.LogConfig{Level: "LOUD"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogCapture(t *testing.T) {
	w := NewLogCapture(3)
	assert.Equal(t, "", w.GetLastLine())
	assert.Empty(t, w.Recent(5))

	for _, s := range []string{"a\n", "b\n", "c\n", "d\n"} {
		_, _ = w.Write([]byte(s))
	}
	assert.Equal(t, "d", w.GetLastLine())
	assert.Equal(t, []string{"b", "c", "d"}, w.Recent(10))
	assert.Equal(t, []string{"c", "d"}, w.Recent(2))
}

func TestTrace(t *testing.T) {
	var sb strings.Builder
	l := slog.New(slog.NewTextHandler(&sb, &slog.HandlerOptions{Level: LevelTrace}))

	EnableTrace = false
	Trace(l, "hidden")
	EnableTrace = true
	Trace(l, "shown")
	EnableTrace = false

	assert.NotContains(t, sb.String(), "hidden")
	assert.Contains(t, sb.String(), "shown")
}
