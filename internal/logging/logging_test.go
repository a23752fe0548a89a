package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
		ok       bool
	}{
		{name: "debug", input: "debug", expected: LevelDebug, ok: true},
		{name: "info", input: "info", expected: LevelInfo, ok: true},
		{name: "warn", input: "warn", expected: LevelWarn, ok: true},
		{name: "warning alias", input: "warning", expected: LevelWarn, ok: true},
		{name: "error", input: "error", expected: LevelError, ok: true},
		{name: "case insensitive", input: "DEBUG", expected: LevelDebug, ok: true},
		{name: "surrounding spaces", input: "  error ", expected: LevelError, ok: true},
		{name: "unknown falls back to info", input: "verbose", expected: LevelInfo, ok: false},
		{name: "empty falls back to info", input: "", expected: LevelInfo, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	original := GetLevel()
	defer SetLevel(original)

	SetLevel(LevelWarn)
	Debug("hidden debug")
	Info("hidden info")
	Warn("visible warn")
	Error("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] visible warn") {
		t.Errorf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] visible error") {
		t.Errorf("expected error line, got %q", out)
	}
}

func TestDefaultLoggerFormatsData(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	original := GetLevel()
	defer SetLevel(original)
	SetLevel(LevelDebug)

	Default().Warn("page fetch failed", "pagination.fetch", map[string]any{"offset": 40, "err": "timeout"})

	out := buf.String()
	if !strings.Contains(out, "[WARN] pagination.fetch: page fetch failed err=timeout offset=40") {
		t.Errorf("unexpected log line: %q", out)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Warn("a", "cache", nil)
	r.Error("b", "cache", map[string]any{"k": 1})
	r.Warn("c", "prefetch", nil)
	r.Debug("d", "prefetch", nil)

	if got := len(r.Entries()); got != 4 {
		t.Fatalf("expected 4 entries, got %d", got)
	}
	if got := r.Count("cache"); got != 2 {
		t.Errorf("expected 2 cache entries, got %d", got)
	}
	if r.Entries()[1].Level != LevelError {
		t.Errorf("expected second entry to be error level")
	}
	if r.Entries()[3].Level != LevelDebug {
		t.Errorf("expected last entry to be debug level")
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic with nil data.
	Discard().Debug("x", "y", nil)
	Discard().Warn("x", "y", nil)
	Discard().Error("x", "y", nil)
}
