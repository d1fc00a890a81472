package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestZap_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Backend: "zap", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.With("component", "bench").Info("started", "workers", 4, "token", "xyz")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v (%s)", err, buf.String())
	}
	if logEntry["msg"] != "started" {
		t.Errorf("msg = %v, want started", logEntry["msg"])
	}
	if logEntry["component"] != "bench" {
		t.Errorf("component = %v, want bench", logEntry["component"])
	}
	if logEntry["workers"] != float64(4) {
		t.Errorf("workers = %v, want 4", logEntry["workers"])
	}
	if logEntry["token"] != redactedValue {
		t.Errorf("token = %v, want redacted", logEntry["token"])
	}
}

func TestZap_FollowsSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "error", Format: "text", Backend: "zap", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at error level: %s", buf.String())
	}

	SetLevel("info")
	l.Info("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("info not logged after SetLevel: %q", buf.String())
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(Config{Backend: "logrus"}); err == nil {
		t.Error("New() with unknown backend should fail")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("dropped")
	l.With("k", "v").Error("dropped")
}
