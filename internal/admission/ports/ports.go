// Package ports declares the store and collaborator interfaces the admission
// services depend on. Implementations live under store/ (memory for tests and
// single-node deployments, postgres for production); services stay wired to
// interfaces so either can be swapped in without touching decision logic.
package ports

import (
	"context"
	"time"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	"github.com/youssefloay/comebac-sub002/pkg/identity"
)

// Error contract: stores return sentinel errors (pkg/platform/sentinel) for
// factual states — ErrNotFound, ErrConflict for lost conditional writes —
// and wrapped infrastructure errors otherwise. Services translate.

// RequestStore owns attendance request records and their transitions.
type RequestStore interface {
	// CreateWithinLimit atomically inserts req as pending only while the
	// match's pending+approved count is below limit. Returns
	// sentinel.ErrConflict when the match is full at write time. The count
	// and the insert are one conditional operation; two racing submissions
	// can never both land on the last slot.
	CreateWithinLimit(ctx context.Context, req *models.AttendanceRequest, limit int) error

	FindByID(ctx context.Context, requestID id.RequestID) (*models.AttendanceRequest, error)

	// FindByIdentity returns every request on the match sharing the canonical
	// identity, any status, in submission order.
	FindByIdentity(ctx context.Context, match id.MatchRef, ident identity.Identity) ([]*models.AttendanceRequest, error)

	// CountActive counts requests holding an admission slot (pending or approved).
	CountActive(ctx context.Context, match id.MatchRef) (int, error)

	// UpdateStatus transitions a pending request to the given status.
	// Conditional on the current status still being pending; returns
	// sentinel.ErrInvalidState when the record has already left pending and
	// sentinel.ErrNotFound when it does not exist.
	UpdateStatus(ctx context.Context, requestID id.RequestID, status models.RequestStatus) error

	// MarkCheckedIn flips checked_in false→true with the given timestamp,
	// conditional on status being approved, checked_in still false, and no
	// other checked-in request on the match sharing the record's email or
	// phone. All conditions and the write are one atomic operation. Returns
	// applied=false (and no error) when the conditional write was a no-op,
	// so callers can re-read and answer idempotently or name the conflict.
	MarkCheckedIn(ctx context.Context, requestID id.RequestID, at time.Time) (applied bool, err error)
}

// CapacityStore owns per-match admission ceilings.
type CapacityStore interface {
	// GetLimit returns the configured limit for the match, or nil when no
	// limit has been set (callers fall back to the default).
	GetLimit(ctx context.Context, match id.MatchRef) (*models.CapacityLimit, error)

	// SetLimit upserts the ceiling for a match.
	SetLimit(ctx context.Context, limit *models.CapacityLimit) error
}

// TokenStore owns the token→request binding. Redemption state is tracked on
// the request record, not here.
type TokenStore interface {
	Save(ctx context.Context, token *models.AdmissionToken) error

	// FindByToken resolves an opaque token value; sentinel.ErrNotFound when
	// it maps to nothing.
	FindByToken(ctx context.Context, token string) (*models.AdmissionToken, error)

	// FindByRequest returns the request's token if one was issued, or nil.
	FindByRequest(ctx context.Context, requestID id.RequestID) (*models.AdmissionToken, error)
}

// AvailabilityCache is an optional read-through cache for availability
// snapshots. All methods are best-effort; callers ignore errors (fail-open).
type AvailabilityCache interface {
	Get(ctx context.Context, match id.MatchRef) (*models.Availability, error)
	Set(ctx context.Context, match id.MatchRef, availability models.Availability) error
	Invalidate(ctx context.Context, match id.MatchRef) error
}
