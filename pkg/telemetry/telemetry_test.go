package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigureSlogJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "debug", "json")
	logger.Debug("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("expected json output, got %q", out)
	}
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestInitNoneExporter(t *testing.T) {
	shutdown, err := Init("vibemonitor-test", "0.0.0", Config{Exporter: "none"})
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitUnknownExporter(t *testing.T) {
	if _, err := Init("vibemonitor-test", "0.0.0", Config{Exporter: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

func TestClientMetricsNilSafe(t *testing.T) {
	var m *ClientMetrics
	ctx := context.Background()
	m.RecordRequest(ctx, "GET", 200, false)
	m.RecordRefresh(ctx, false)
	m.RecordAuthRedirect(ctx)
}
