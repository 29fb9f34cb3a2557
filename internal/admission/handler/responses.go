package handler

import (
	"time"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	checkinsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/checkin"
	consolesvc "github.com/youssefloay/comebac-sub002/internal/admission/service/console"
	gatewaysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/gateway"
	lifecyclesvc "github.com/youssefloay/comebac-sub002/internal/admission/service/lifecycle"
)

// RequestResponse is the staff-facing view of one attendance request.
type RequestResponse struct {
	ID          string     `json:"id"`
	MatchID     string     `json:"match_id"`
	MatchKind   string     `json:"match_kind"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	PhotoRef    string     `json:"photo_ref"`
	TeamID      string     `json:"team_id"`
	TeamName    string     `json:"team_name"`
	Status      string     `json:"status"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// FromRequest converts a domain request to its HTTP view.
func FromRequest(req *models.AttendanceRequest) *RequestResponse {
	return &RequestResponse{
		ID:          req.ID.String(),
		MatchID:     req.Match.ID.String(),
		MatchKind:   req.Match.Kind.String(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		PhotoRef:    req.PhotoRef,
		TeamID:      req.TeamID.String(),
		TeamName:    req.TeamName,
		Status:      string(req.Status),
		CheckedIn:   req.CheckedIn,
		CheckedInAt: req.CheckedInAt,
		SubmittedAt: req.SubmittedAt,
	}
}

// SubmitResponse is the HTTP response for POST /attendance/requests. The
// spectator only learns their request ID; moderation happens out of band.
type SubmitResponse struct {
	RequestID   string    `json:"request_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StatusResponse is the HTTP response for a moderation transition. Token is
// present only on approval, for the confirmation email's QR code.
type StatusResponse struct {
	Request *RequestResponse `json:"request"`
	Token   string           `json:"token,omitempty"`
}

// FromStatusResult converts a moderation outcome to its HTTP view.
func FromStatusResult(result *lifecyclesvc.StatusResult) *StatusResponse {
	return &StatusResponse{
		Request: FromRequest(result.Request),
		Token:   result.Token,
	}
}

// AdmissionResponse is the HTTP response for both confirm surfaces.
type AdmissionResponse struct {
	Request          *RequestResponse `json:"request"`
	CheckedInAt      time.Time        `json:"checked_in_at"`
	AlreadyCheckedIn bool             `json:"already_checked_in"`
}

// FromAdmission converts a check-in outcome to its HTTP view.
func FromAdmission(admission *checkinsvc.Admission) *AdmissionResponse {
	return &AdmissionResponse{
		Request:          FromRequest(admission.Request),
		CheckedInAt:      admission.CheckedInAt,
		AlreadyCheckedIn: admission.AlreadyCheckedIn,
	}
}

// PeekResponse is the HTTP response for GET /attendance/tokens/{token}.
type PeekResponse struct {
	Request          *RequestResponse `json:"request"`
	AlreadyCheckedIn bool             `json:"already_checked_in"`
}

// FromPeekResult converts a token peek to its HTTP view.
func FromPeekResult(result *gatewaysvc.PeekResult) *PeekResponse {
	return &PeekResponse{
		Request:          FromRequest(result.Request),
		AlreadyCheckedIn: result.AlreadyCheckedIn,
	}
}

// LookupResponse is the HTTP response for GET /attendance/lookup.
type LookupResponse struct {
	Request      *RequestResponse    `json:"request"`
	Admittable   bool                `json:"admittable"`
	Availability models.Availability `json:"availability"`
}

// FromLookupResult converts a console lookup to its HTTP view.
func FromLookupResult(result *consolesvc.LookupResult) *LookupResponse {
	return &LookupResponse{
		Request:      FromRequest(result.Request),
		Admittable:   result.Admittable,
		Availability: result.Availability,
	}
}
