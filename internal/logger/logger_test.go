package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig("Pages", Config{IsProduction: true, AppEnv: "production", Out: &buf})
	l.LogInfof("page %s completed", "https://x.example/job/1")
	l.LogDebugf("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["component"] != "Pages" || entry["level"] != "info" || entry["message"] != "page https://x.example/job/1 completed" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestConsolePrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig("Scheduler", Config{AppEnv: "development", Out: &buf})
	l.LogWarn("no sites configured")
	if !strings.Contains(buf.String(), "[Scheduler] no sites configured") || !strings.Contains(buf.String(), "[WARN]") {
		t.Fatalf("output = %q", buf.String())
	}
	if l.Component() != "Scheduler" {
		t.Fatalf("component = %q", l.Component())
	}
}
