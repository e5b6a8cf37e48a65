package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerNotNil(t *testing.T) {
	logger := NewLogger(Config{})
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
}

func TestNewLoggerUsesTextHandlerWithInfoLevel(t *testing.T) {
	logger := NewLogger(Config{Format: "text", Level: "info"})

	if enabled := logger.Enabled(context.Background(), slog.LevelInfo); !enabled {
		t.Fatal("expected info level to be enabled")
	}

	if enabled := logger.Enabled(context.Background(), slog.LevelDebug); enabled {
		t.Fatal("expected debug level to be disabled")
	}
}

func TestNewLoggerJSONIncludesServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: "JSON", Level: "debug", Service: "svc", Version: "v1", Output: &buf})
	logger.Debug("hello")

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Fatalf("expected json output, got %q", out)
	}
	if !strings.Contains(out, `"service":"svc"`) || !strings.Contains(out, `"version":"v1"`) {
		t.Fatalf("expected service/version attrs, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %s want %s", raw, got, want)
		}
	}
}

func TestContextLoggerRoundTrip(t *testing.T) {
	fallback := slog.Default()
	scoped := NewLogger(Config{})

	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatal("expected fallback when no logger stored")
	}
	ctx := WithLogger(context.Background(), scoped)
	if got := FromContext(ctx, fallback); got != scoped {
		t.Fatal("expected scoped logger from context")
	}
	if got := FromContext(nil, fallback); got != fallback {
		t.Fatal("expected fallback for nil context")
	}
}
