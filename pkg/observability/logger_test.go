package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func parseLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\nline: %s", err, line)
	}
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithPrincipal("u-1").WithTenant("t1").Info("permission check")

	entry := parseLine(t, buf.String())
	if entry["msg"] != "permission check" {
		t.Errorf("msg = %v, want %q", entry["msg"], "permission check")
	}
	if entry["principal_id"] != "u-1" {
		t.Errorf("principal_id = %v, want u-1", entry["principal_id"])
	}
	if entry["tenant_id"] != "t1" {
		t.Errorf("tenant_id = %v, want t1", entry["tenant_id"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the configured level leaked: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("operation failed")
	entry := parseLine(t, buf.String())
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}

	buf.Reset()
	logger.WithError(nil).Info("fine")
	entry = parseLine(t, buf.String())
	if _, ok := entry["error"]; ok {
		t.Error("nil error must not add a field")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{"visible": 3, "pruned": 2}).Infof("filtered %d nodes", 5)

	entry := parseLine(t, buf.String())
	if entry["msg"] != "filtered 5 nodes" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["visible"] != float64(3) || entry["pruned"] != float64(2) {
		t.Errorf("fields = %v", entry)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	// Must be safe to use everywhere a real logger is.
	logger.WithPrincipal("u-1").WithTenant("t1").WithError(errors.New("x")).Error("discarded")
}
