package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
)

// Typed IDs keep match, request, and team identifiers from being swapped at
// call sites. They are plain UUIDs underneath; parsing enforces the trust
// boundary invariant that IDs are valid, non-nil UUIDs.
type (
	RequestID uuid.UUID
	MatchID   uuid.UUID
	TeamID    uuid.UUID
)

func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id MatchID) String() string   { return uuid.UUID(id).String() }
func (id TeamID) String() string    { return uuid.UUID(id).String() }

func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id MatchID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id TeamID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewRequestID returns a fresh random request ID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

// ParseRequestID validates and converts a raw string into a RequestID.
func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw, "request_id")
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(parsed), nil
}

// ParseMatchID validates and converts a raw string into a MatchID.
func ParseMatchID(raw string) (MatchID, error) {
	parsed, err := parseUUID(raw, "match_id")
	if err != nil {
		return MatchID{}, err
	}
	return MatchID(parsed), nil
}

// ParseTeamID validates and converts a raw string into a TeamID.
func ParseTeamID(raw string) (TeamID, error) {
	parsed, err := parseUUID(raw, "team_id")
	if err != nil {
		return TeamID{}, err
	}
	return TeamID(parsed), nil
}
