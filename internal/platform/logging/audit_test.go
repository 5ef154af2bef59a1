package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogAuditEvent(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := contextWithLogger(context.Background(), zap.New(core))
	ctx = WithActor(ctx, "uid-7")

	LogAuditEvent(ctx, AuditEvent{
		Action:       "create",
		ResourceType: "profile",
		ResourceID:   "j***@example.com",
		Result:       "failure",
		Details:      map[string]any{"error": "already_exists"},
	})

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "audit event" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	fields := fieldMap(entries[0].Context)
	want := map[string]string{
		"audit.action":        "create",
		"audit.actor":         "uid-7",
		"audit.resource_type": "profile",
		"audit.resource_id":   "j***@example.com",
		"audit.result":        "failure",
	}
	for key, val := range want {
		if f, ok := fields[key]; !ok || f.String != val {
			t.Errorf("expected %s=%q, got %+v", key, val, f)
		}
	}
	if _, ok := fields["audit.details"]; !ok {
		t.Error("expected audit.details field")
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john@example.com", "j***@example.com"},
		{"x@y.com", "x***@y.com"},
		{"élodie@example.fr", "é***@example.fr"},
		{"@example.com", "***"},
		{"not-an-email", "***"},
		{"", "***"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := MaskEmail(tt.in); got != tt.want {
				t.Fatalf("MaskEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
