package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(zapcore.AddSync(&buf))
	defer SetOutput(zapcore.Lock(zapcore.AddSync(&bytes.Buffer{})))
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Trace("hidden trace")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info/trace should be filtered at warn: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Fatalf("warn entry missing: %q", out)
	}

	buf.Reset()
	SetLevel(LevelTrace)
	Trace("step %s", "one")
	if !strings.Contains(buf.String(), "[trace] step one") {
		t.Fatalf("trace entry missing: %q", buf.String())
	}
}
