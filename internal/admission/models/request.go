package models

import (
	"strings"
	"time"

	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/identity"
)

// RequestStatus is the moderation state of an attendance request.
//
// Lifecycle:
//
//	submitted → pending
//	pending   → approved | rejected   (moderation)
//	approved  → checked-in            (admission, tracked by CheckedIn)
//
// rejected is terminal. checked-in is terminal and recorded on the flag, not
// the status: CheckedIn == true implies Status == approved.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// ParseRequestStatus validates a raw moderation status at the API boundary.
// Only approved and rejected are reachable through moderation; pending is the
// birth state and cannot be assigned.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	status := RequestStatus(raw)
	if status != StatusApproved && status != StatusRejected {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status must be approved or rejected")
	}
	return status, nil
}

// AttendanceRequest is one spectator's claim to attend one match.
type AttendanceRequest struct {
	ID        id.RequestID
	Match     id.MatchRef
	FirstName string
	LastName  string
	Email     string // normalized at creation
	Phone     string // normalized at creation
	PhotoRef  string // opaque URL from the photo storage collaborator

	TeamID   id.TeamID
	TeamName string

	Status      RequestStatus
	CheckedIn   bool
	CheckedInAt *time.Time
	SubmittedAt time.Time
}

// FullName is the display name staff see on conflicts and peek screens.
func (r *AttendanceRequest) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// MatchesIdentity reports whether the request was submitted under the given
// canonical identity key. Comparison is exact on the normalized key.
func (r *AttendanceRequest) MatchesIdentity(ident identity.Identity) bool {
	switch ident.Kind {
	case identity.KindEmail:
		return r.Email == ident.Key
	case identity.KindPhone:
		return r.Phone == ident.Key
	default:
		return false
	}
}

// CanTransitionTo enforces the moderation state machine. Either terminal state
// refuses all further status changes.
func (r *AttendanceRequest) CanTransitionTo(next RequestStatus) error {
	if r.CheckedIn {
		return dErrors.New(dErrors.CodeInvalidTransition, "request is already checked in")
	}
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "request is already %s", r.Status)
	}
	if next != StatusApproved && next != StatusRejected {
		return dErrors.New(dErrors.CodeInvalidTransition, "moderation can only approve or reject")
	}
	return nil
}

// Admittable reports whether the request could convert to checked-in right
// now, ignoring duplicate-identity concerns.
func (r *AttendanceRequest) Admittable() bool {
	return r.Status == StatusApproved && !r.CheckedIn
}

// NewRequestInput carries the raw registration form fields.
type NewRequestInput struct {
	Match     id.MatchRef
	FirstName string
	LastName  string
	Email     string
	Phone     string
	PhotoRef  string
	TeamID    id.TeamID
	TeamName  string
}

// Validate checks required fields before any store round-trip. Contact fields
// and exactly one photo reference are mandatory; identity normalization is the
// lifecycle service's job.
func (in *NewRequestInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(in.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(in.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(in.PhotoRef) == "" {
		missing = append(missing, "photo_ref")
	}
	if in.TeamID.IsNil() {
		missing = append(missing, "team_id")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !in.Match.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown match kind")
	}
	return nil
}
