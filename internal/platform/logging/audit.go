package logging

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// AuditEvent describes a security relevant operation on a resource.
type AuditEvent struct {
	Action       string // "lookup", "create"
	ResourceType string
	ResourceID   string
	Result       string // "success" or "failure"
	Details      map[string]any
}

// LogAuditEvent logs a structured audit event. The actor is taken from the
// context (see WithActor).
func LogAuditEvent(ctx context.Context, ev AuditEvent) {
	LoggerFromContext(ctx).Info("audit event",
		zap.String("audit.action", ev.Action),
		zap.String("audit.actor", ActorFromContext(ctx)),
		zap.String("audit.resource_type", ev.ResourceType),
		zap.String("audit.resource_id", ev.ResourceID),
		zap.String("audit.result", ev.Result),
		zap.Any("audit.details", ev.Details),
	)
}

// MaskEmail keeps the first character of the local part and the domain so
// audit records can be correlated without storing the full address.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(local)
	return string(first) + "***@" + domain
}
