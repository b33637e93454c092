package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/scale?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/scale?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("?log=1 override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/scale", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	SetDefaultLogLevel("off")
	defer SetDefaultLogLevel("info")
	if got := requestLogLevel(httptest.NewRequest("GET", "/scale", nil)); got != LevelOff {
		t.Fatalf("default not applied: %v", got)
	}
}

func TestLogScaleEnd(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	r := httptest.NewRequest("GET", "/scale?model=x", nil)
	r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "rid-1"))

	logScaleEnd(r, LevelError, 400, time.Now(), "", nil)
	if buf.Len() != 0 {
		t.Fatalf("client errors need info level: %s", buf.String())
	}
	logScaleEnd(r, LevelError, 500, time.Now(), "", errors.New("boom"))
	out := buf.String()
	for _, want := range []string{`"level":"error"`, `"status":500`, `"request_id":"rid-1"`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
	buf.Reset()
	logScaleEnd(r, LevelDebug, 200, time.Now(), "hit", nil)
	if out := buf.String(); !strings.Contains(out, `"cache":"hit"`) || !strings.Contains(out, `"query":"model=x"`) {
		t.Fatalf("debug line=%s", out)
	}
}
