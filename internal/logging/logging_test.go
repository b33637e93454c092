package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", "json", &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info leaked at warn level: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"k":"v"`) || !strings.Contains(out, `"time":`) {
		t.Fatalf("out=%s", out)
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("", "console", &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info().Msg("hello")
	if out := buf.String(); !strings.Contains(out, "hello") || strings.HasPrefix(out, "{") {
		t.Fatalf("console out=%q", out)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("loud", "json", nil); err == nil {
		t.Fatalf("expected bad level error")
	}
	if _, err := New("info", "xml", nil); err == nil {
		t.Fatalf("expected bad format error")
	}
}
