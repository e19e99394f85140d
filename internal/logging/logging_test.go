package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSONLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "warn", Format: "json"})

	log.Info(context.Background(), "hidden")
	log.With(String("body", "Mars")).Warn(context.Background(), "orbit fallback",
		Float64("jd", 2451545), Int("samples", 3), Duration("tick", 10*time.Millisecond), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "orbit fallback" || rec["body"] != "Mars" || rec["error"] != "boom" {
		t.Fatalf("record = %v", rec)
	}
	if rec["jd"] != 2451545.0 || rec["samples"] != 3.0 {
		t.Fatalf("numeric fields = %v, %v", rec["jd"], rec["samples"])
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "chatty"})
	log.Debug(context.Background(), "debug")
	log.Info(context.Background(), "info")
	if out := buf.String(); strings.Contains(out, "msg=debug") || !strings.Contains(out, "msg=info") {
		t.Fatalf("text output = %q", out)
	}
}

func TestWithSessionReusesID(t *testing.T) {
	var buf bytes.Buffer
	ctx, log := WithSession(context.Background(), NewWithWriter(&buf, Config{}))
	id := SessionID(ctx)
	if id == "" {
		t.Fatalf("SessionID is empty")
	}
	ctx2, _ := WithSession(ctx, nil)
	if got := SessionID(ctx2); got != id {
		t.Fatalf("SessionID = %q, want %q", got, id)
	}
	log.Info(ctx, "connected")
	if !strings.Contains(buf.String(), "session_id="+id) {
		t.Fatalf("output %q lacks session_id", buf.String())
	}
	Noop().With(String("k", "v")).Error(ctx, "dropped")
}
