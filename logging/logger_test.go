package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "optionpricing", Module: "test", Level: "info", Writer: &buf})
	l.Info("priced", "model", "gbm")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if rec["service"] != "optionpricing" || rec["module"] != "test" || rec["model"] != "gbm" {
		t.Errorf("unexpected record %v", rec)
	}
	if _, ok := rec["timestamp"]; !ok {
		t.Error("time key should be renamed to timestamp")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "s", Module: "m", Level: "info", Writer: &buf})
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level: %s", buf.String())
	}
	SetLevel("debug")
	defer SetLevel("info")
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug should be emitted after SetLevel(debug)")
	}
}

func TestTraceHandlerInjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "s", Module: "m", Level: "info", Writer: &buf})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.With(slog.String("component", "pricer")).InfoContext(ctx, "traced")
	out := buf.String()
	if !strings.Contains(out, traceID.String()) || !strings.Contains(out, spanID.String()) {
		t.Errorf("trace ids missing from %s", out)
	}
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "s", Module: "m", Level: "info", Writer: &buf}).Named("lsm")
	if l.Module != "lsm" {
		t.Errorf("module %q", l.Module)
	}
	l.Info("x")
	if !strings.Contains(buf.String(), `"component":"lsm"`) {
		t.Errorf("component attr missing: %s", buf.String())
	}
}

func TestFileWithConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.log")
	l := NewFromConfig(Config{Service: "s", Module: "m", Level: "info", File: path, MaxSize: 1, Console: true})
	l.Info("rotated sink")
	l.Debug("filtered")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "rotated sink") || strings.Contains(string(data), "filtered") {
		t.Errorf("unexpected file content: %s", data)
	}
}
