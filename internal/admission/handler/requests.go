package handler

import (
	"strings"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /attendance/requests.
type SubmitRequest struct {
	MatchID   string `json:"match_id"`
	MatchKind string `json:"match_kind"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	PhotoRef  string `json:"photo_ref"`
	TeamID    string `json:"team_id"`
	TeamName  string `json:"team_name"`

	// Parsed values (populated by Validate)
	parsedMatch  id.MatchRef
	parsedTeamID id.TeamID
}

// Validate parses the identifying fields. Field presence and identity
// normalization stay with the domain input and the lifecycle service; only
// what must be typed before building the input is handled here.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	match, err := id.ParseMatchRef(strings.TrimSpace(r.MatchID), strings.TrimSpace(r.MatchKind))
	if err != nil {
		return err
	}
	r.parsedMatch = match

	if teamID := strings.TrimSpace(r.TeamID); teamID != "" {
		parsed, err := id.ParseTeamID(teamID)
		if err != nil {
			return err
		}
		r.parsedTeamID = parsed
	}
	return nil
}

// Input builds the domain input for the lifecycle service.
func (r *SubmitRequest) Input() models.NewRequestInput {
	return models.NewRequestInput{
		Match:     r.parsedMatch,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     r.Email,
		Phone:     r.Phone,
		PhotoRef:  strings.TrimSpace(r.PhotoRef),
		TeamID:    r.parsedTeamID,
		TeamName:  strings.TrimSpace(r.TeamName),
	}
}

// SetStatusRequest is the HTTP request body for
// POST /attendance/requests/{requestID}/status.
type SetStatusRequest struct {
	Status string `json:"status"`

	parsedStatus models.RequestStatus
}

func (r *SetStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := models.ParseRequestStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// ParsedStatus returns the validated moderation status.
func (r *SetStatusRequest) ParsedStatus() models.RequestStatus {
	return r.parsedStatus
}
