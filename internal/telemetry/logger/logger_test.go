package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

var backends = []string{"slog", "zap"}

// decode parses the last JSON line written to buf.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("parse log line: %v (%q)", err, buf.String())
	}
	return entry
}

func newJSON(t *testing.T, backend, lvl string, buf *bytes.Buffer) Logger {
	t.Helper()
	l, err := New(Config{Level: lvl, Format: "json", Backend: backend, Output: buf})
	if err != nil {
		t.Fatalf("New(%s) error = %v", backend, err)
	}
	return l
}

func TestNew_Formats(t *testing.T) {
	for _, backend := range backends {
		for _, format := range []string{"json", "text", "console"} {
			t.Run(backend+"/"+format, func(t *testing.T) {
				var buf bytes.Buffer
				l, err := New(Config{Level: "info", Format: format, Backend: backend, Output: &buf})
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				l.Info("workload started", "workload", "locks")
				if !strings.Contains(buf.String(), "workload started") {
					t.Errorf("output %q lacks message", buf.String())
				}
			})
		}
	}
}

func TestLogger_LevelsAndFields(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l := newJSON(t, backend, "debug", &buf)

			for _, log := range []func(string, ...any){l.Debug, l.Info, l.Warn, l.Error} {
				buf.Reset()
				log("queue drained", "workload", "queue", "items", 12)
				entry := decode(t, &buf)
				if entry["msg"] != "queue drained" {
					t.Errorf("msg = %v, want %q", entry["msg"], "queue drained")
				}
				if entry["workload"] != "queue" || entry["items"] != float64(12) {
					t.Errorf("fields = %v", entry)
				}
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			newJSON(t, backend, "info", &buf).With("mode", "serialized").Info("run finished")
			if got := decode(t, &buf)["mode"]; got != "serialized" {
				t.Errorf("mode = %v, want serialized", got)
			}
		})
	}
}

func TestLogger_WithContextAddsRunFields(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l := newJSON(t, backend, "info", &buf)

			ctx := WithWorker(WithRunID(context.Background(), "01HZXRUN"), 2)
			l.WithContext(ctx).Info("worker done")
			entry := decode(t, &buf)
			if entry["run_id"] != "01HZXRUN" {
				t.Errorf("run_id = %v, want 01HZXRUN", entry["run_id"])
			}
			if entry["worker"] != float64(2) {
				t.Errorf("worker = %v, want 2", entry["worker"])
			}

			buf.Reset()
			l.WithContext(context.Background()).Info("no ids")
			if _, ok := decode(t, &buf)["run_id"]; ok {
				t.Error("run_id should be absent without WithRunID")
			}
		})
	}
}

func TestSetLevel_AppliesToExistingLoggers(t *testing.T) {
	defer SetLevel("info")
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l := newJSON(t, backend, "warn", &buf)

			l.Info("hidden")
			if buf.Len() != 0 {
				t.Fatalf("info logged at warn level: %s", buf.String())
			}
			SetLevel("debug")
			if GetLevel() != "debug" {
				t.Errorf("GetLevel() = %q, want debug", GetLevel())
			}
			l.Debug("visible")
			if !strings.Contains(buf.String(), "visible") {
				t.Errorf("debug not logged after SetLevel: %q", buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"DEBUG":   "debug",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"trace":   "info",
	}
	defer SetLevel("info")
	for in, want := range tests {
		SetLevel(in)
		if got := GetLevel(); got != want {
			t.Errorf("SetLevel(%q) -> GetLevel() = %q, want %q", in, got, want)
		}
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	prev := Default()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(newJSON(t, "slog", "info", &buf))
	SetDefault(nil)
	Default().Info("through default")
	if !strings.Contains(buf.String(), "through default") {
		t.Errorf("SetDefault(nil) replaced the logger")
	}
}
