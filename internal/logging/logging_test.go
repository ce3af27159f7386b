package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("run", "decay")).Info(context.Background(), "slab accepted",
		Float("t", 0.5), Int("attempts", 2))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["msg"] != "slab accepted" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["run"] != "decay" {
		t.Errorf("run = %v", rec["run"])
	}
	if rec["t"] != 0.5 {
		t.Errorf("t = %v", rec["t"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn record missing")
	}
}

func TestNoop(t *testing.T) {
	log := Noop().With(String("k", "v"))
	log.Error(context.Background(), "dropped")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "chatty", Output: &buf})

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown", Bool("fixed_step", true))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at the default level")
	}
	if !strings.Contains(out, "fixed_step=true") {
		t.Errorf("bool field missing: %q", out)
	}
}

func TestFromEnv(t *testing.T) {
	base := Config{Level: "info", Format: "text"}

	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFormat, "")
	if got := FromEnv(base); got != base {
		t.Errorf("empty env changed config: %+v", got)
	}

	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvFormat, "json")
	got := FromEnv(base)
	if got.Level != "debug" || got.Format != "json" {
		t.Errorf("env not applied: %+v", got)
	}
}
