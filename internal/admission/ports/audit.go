package ports

import (
	"context"
	"log/slog"

	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// AuditPublisher re-exports the audit emit interface for service wiring.
type AuditPublisher = audit.Publisher

// LogAudit records an admission decision on both the structured log and the
// audit trail. Event emission is best-effort: the admission operation already
// happened, so a failed emit is logged and swallowed rather than unwinding an
// irreversible check-in.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Operator == "" {
		event.Operator = requestcontext.Operator(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.TraceID == "" {
		event.TraceID = requestcontext.RequestID(ctx)
	}

	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"action", event.Action,
			"match_id", event.MatchID,
			"match_kind", event.MatchKind,
			"request_id", event.RequestID,
			"subject", event.Subject,
			"reason", event.Reason,
			"operator", event.Operator,
		)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
