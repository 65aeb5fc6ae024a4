package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"  WARN ":  slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"info":     slog.LevelInfo,
		"":         slog.LevelInfo,
		"verbose?": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := levelFromString(in).Level(); got != want {
			t.Errorf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerEnabledAtConfiguredLevel(t *testing.T) {
	l := NewLogger("warn")
	ctx := context.Background()
	if l.Enabled(ctx, slog.LevelInfo) {
		t.Fatal("info should be suppressed at warn level")
	}
	if !l.Enabled(ctx, slog.LevelError) {
		t.Fatal("error should pass at warn level")
	}
}
