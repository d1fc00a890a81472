package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestRunIDAndWorker(t *testing.T) {
	ctx := context.Background()
	if RunIDFromContext(ctx) != "" {
		t.Error("RunIDFromContext() on empty context should be empty")
	}
	if WorkerFromContext(ctx) != -1 {
		t.Error("WorkerFromContext() on empty context should be -1")
	}

	ctx = WithRunID(ctx, "01HZX")
	ctx = WithWorker(ctx, 3)
	if got := RunIDFromContext(ctx); got != "01HZX" {
		t.Errorf("RunIDFromContext() = %q, want %q", got, "01HZX")
	}
	if got := WorkerFromContext(ctx); got != 3 {
		t.Errorf("WorkerFromContext() = %d, want 3", got)
	}
}

func TestL_Enriches(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	ctx = WithRunID(ctx, "run-1")
	ctx = WithWorker(ctx, 0)
	L(ctx).Info("test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if id, ok := logEntry["run_id"].(string); !ok || id != "run-1" {
		t.Errorf("Expected run_id='run-1', got %v", logEntry["run_id"])
	}
	if w, ok := logEntry["worker"].(float64); !ok || w != 0 {
		t.Errorf("Expected worker=0, got %v", logEntry["worker"])
	}
}

func TestL_NoIDs(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	L(WithLogger(context.Background(), l)).Info("test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if _, ok := logEntry["run_id"]; ok {
		t.Error("run_id should be absent")
	}
	if _, ok := logEntry["worker"]; ok {
		t.Error("worker should be absent")
	}
}
