package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"brightbank.org/internal/obs"
	"brightbank.org/internal/token"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = token.ContextWithSession(ctx, "js")

	if err := LogEvent(ctx, "bank.transfer.execute", map[string]any{"to": "jd", "amount": 500}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "bank.transfer.execute" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %v", entry["request_id"])
	}
	if entry["username"] != "js" {
		t.Fatalf("unexpected username: %v", entry["username"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["to"] != "jd" {
		t.Fatalf("fields not preserved: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
