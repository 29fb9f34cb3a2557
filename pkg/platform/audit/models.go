// Package audit captures the decisions the admission system makes about real
// people: who was admitted, who was refused, and why. Events are emitted from
// domain logic and fanned out to a store or broker sink; keep them
// transport-agnostic.
package audit

import (
	"context"
	"time"
)

// Actions emitted by the admission module.
const (
	ActionRequestSubmitted = "request_submitted"
	ActionCapacityExceeded = "capacity_exceeded"
	ActionStatusChanged    = "status_changed"
	ActionCheckedIn        = "checked_in"
	ActionCheckInReplayed  = "check_in_replayed"
	ActionDuplicateBlocked = "duplicate_blocked"
	ActionLimitFallback    = "limit_lookup_fallback"
)

// Event records one admission decision. Subject is the spectator the decision
// is about; Operator, Device and IP identify the staff member and kiosk that
// triggered it, when the path had one.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	MatchID   string            `json:"match_id,omitempty"`
	MatchKind string            `json:"match_kind,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Operator  string            `json:"operator,omitempty"`
	Device    string            `json:"device,omitempty"`
	IP        string            `json:"ip,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Publisher is the emit side consumed by services. Implementations must not
// block the admission path beyond a local append or an async produce.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store is an append-only sink with read-back for tests and the worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}
