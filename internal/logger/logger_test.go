package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"testing"
)

// records decodes every JSON log line written to buf.
func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	s := bufio.NewScanner(buf)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line: %s err=%v", line, err)
		}
		out = append(out, m)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}
	return out
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf)
	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	Info("EVR generation started")
	Warn("value set not fully exercised", "tracker", "VALID_OPCODE")

	recs := records(t, &buf)
	if len(recs) != 1 || recs[0]["msg"] != "value set not fully exercised" {
		t.Fatalf("expected only the warning, got %+v", recs)
	}

	buf.Reset()
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	Debug("seeded", "definitions", 3)
	recs = records(t, &buf)
	if len(recs) != 1 || recs[0]["level"] != "DEBUG" {
		t.Fatalf("expected one DEBUG record, got %+v", recs)
	}
}

func TestEVRFields(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf)
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}

	cases := []struct {
		id    uint32
		name  string
		level string
	}{
		{id: 42, name: "FSW_BOOT", level: "WARNING_LO"},
		{id: math.MaxUint32, name: "UNKNOWN", level: "FATAL"},
	}
	base := WithComponent(WithRun(Logger(), "run-1"), "evr_body_generator")
	for _, c := range cases {
		WithEVR(base, c.id, c.name, c.level).Error("found EVR level which is not configured")
	}

	recs := records(t, &buf)
	if len(recs) != len(cases) {
		t.Fatalf("expected %d records, got %d", len(cases), len(recs))
	}
	for i, c := range cases {
		rec := recs[i]
		// evr_id must stay a JSON number so log queries can range over it.
		id, ok := rec["evr_id"].(float64)
		if !ok {
			t.Fatalf("evr_id is %T, want a JSON number: %+v", rec["evr_id"], rec)
		}
		if uint32(id) != c.id {
			t.Fatalf("evr_id=%v want %d", id, c.id)
		}
		if rec["evr_name"] != c.name || rec["evr_level"] != c.level {
			t.Fatalf("definition fields mismatch: %+v", rec)
		}
		if rec["run_id"] != "run-1" || rec["component"] != "evr_body_generator" {
			t.Fatalf("context fields mismatch: %+v", rec)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"err":     "ERROR",
	}
	for in, expect := range cases {
		if err := SetLevel(in); err != nil {
			t.Fatalf("SetLevel(%s): %v", in, err)
		}
		if got := Level(); got != expect {
			t.Fatalf("SetLevel(%s): level %s want %s", in, got, expect)
		}
	}
	if err := SetLevel("bogus"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestDetectLevelFromEnv(t *testing.T) {
	t.Setenv(envLogLevel, "warn")
	if got := detectLevel(); got != slog.LevelWarn {
		t.Fatalf("detectLevel=%v want WARN", got)
	}
	t.Setenv(envLogLevel, "shouting")
	if got := detectLevel(); got != slog.LevelInfo {
		t.Fatalf("detectLevel=%v want INFO for unknown value", got)
	}
}

func TestConfigure(t *testing.T) {
	Init()
	t.Setenv(envLogLevel, "error")
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if err := Configure(""); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got := Level(); got != "ERROR" {
		t.Fatalf("empty level should follow %s, got %s", envLogLevel, got)
	}
	if err := Configure("warn"); err != nil {
		t.Fatalf("Configure(warn): %v", err)
	}
	if got := Level(); got != "WARN" {
		t.Fatalf("explicit level should win over the environment, got %s", got)
	}
	if err := Configure("loud"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
