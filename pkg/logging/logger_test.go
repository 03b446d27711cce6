package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"Error":   LevelError,
		"info":    LevelInfo,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestInitJSONWriter(t *testing.T) {
	_ = Close()
	defer func() { _ = Close() }()

	var buf bytes.Buffer
	if err := Init(Config{Level: LevelDebug, Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	WithLock(7, "s1/int/0").Debug("lock acquired", "hold", 1)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "lock acquired" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["entry"] != "s1/int/0" {
		t.Errorf("entry = %v", rec["entry"])
	}
	if rec["worker"] != float64(7) {
		t.Errorf("worker = %v", rec["worker"])
	}
}

func TestInitTwiceFails(t *testing.T) {
	_ = Close()
	defer func() { _ = Close() }()

	var buf bytes.Buffer
	if err := Init(Config{Writer: &buf}); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := Init(Config{Writer: &buf}); err == nil {
		t.Fatal("second Init should fail")
	}
}

func TestLevelFiltering(t *testing.T) {
	_ = Close()
	defer func() { _ = Close() }()

	var buf bytes.Buffer
	if err := Init(Config{Level: LevelWarn, Writer: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info("hidden")
	WithError(errors.New("boom")).Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("INFO record written at WARN level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "error=boom") {
		t.Errorf("missing WARN record: %q", out)
	}
}

func TestGetLoggerLazyInit(t *testing.T) {
	_ = Close()
	defer func() { _ = Close() }()

	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil before Init")
	}
}
