package monitor

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestCustomHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(NewCustomHandler(&buf, level))

	logger.Info("session established", "provider", "gemini-live", "attempt", 2)

	out := buf.String()
	for _, want := range []string{"[INFO]", "session established", `provider="gemini-live"`, "attempt=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCustomHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	handler := NewCustomHandler(&buf, level)

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug must be filtered at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error must pass at warn level")
	}
}

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		SetLogLevel(tt.input)
		if got := logLevel.Level(); got != tt.want {
			t.Errorf("SetLogLevel(%q): level = %v, want %v", tt.input, got, tt.want)
		}
	}
	SetLogLevel("info") // restore
}
