// Package lifecycle owns attendance request creation and moderation
// transitions. Check-in is deliberately absent here: the only path that flips
// a request to checked-in is the confirm flow (token gateway or manual
// console), which goes through the duplicate guard first.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/youssefloay/comebac-sub002/internal/admission/metrics"
	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	"github.com/youssefloay/comebac-sub002/internal/admission/ports"
	capacitysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/capacity"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/identity"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/platform/secrets"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

type Service struct {
	requests       ports.RequestStore
	tokens         ports.TokenStore
	capacity       *capacitysvc.Service
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(requests ports.RequestStore, tokens ports.TokenStore, capacity *capacitysvc.Service, opts ...Option) (*Service, error) {
	if requests == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if capacity == nil {
		return nil, fmt.Errorf("capacity service is required")
	}

	svc := &Service{
		requests: requests,
		tokens:   tokens,
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create validates and persists a new pending request. The write is bounded
// by the store's conditional counted insert, so the capacity invariant holds
// even when two submissions race on the last slot.
func (s *Service) Create(ctx context.Context, input models.NewRequestInput) (*models.AttendanceRequest, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	email, err := identity.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	phone, err := identity.NormalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	req := &models.AttendanceRequest{
		ID:          id.NewRequestID(),
		Match:       input.Match,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       email.Key,
		Phone:       phone.Key,
		PhotoRef:    input.PhotoRef,
		TeamID:      input.TeamID,
		TeamName:    input.TeamName,
		Status:      models.StatusPending,
		SubmittedAt: requestcontext.Now(ctx),
	}

	limit := s.capacity.Limit(ctx, req.Match)
	if err := s.requests.CreateWithinLimit(ctx, req, limit); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementCapacityRejected(req.Match.Kind.String())
			ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
				Action:    audit.ActionCapacityExceeded,
				MatchID:   req.Match.ID.String(),
				MatchKind: req.Match.Kind.String(),
				Subject:   req.FullName(),
			})
			return nil, dErrors.New(dErrors.CodeCapacityExceeded, "match has no attendance slots left")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create attendance request")
	}

	s.capacity.Invalidate(ctx, req.Match)
	s.metrics.IncrementSubmitted(req.Match.Kind.String())
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:    audit.ActionRequestSubmitted,
		MatchID:   req.Match.ID.String(),
		MatchKind: req.Match.Kind.String(),
		RequestID: req.ID.String(),
		Subject:   req.FullName(),
	})
	return req, nil
}

// StatusResult reports a moderation transition. Token is set only when the
// transition was an approval: the moderation UI embeds it in the QR email.
type StatusResult struct {
	Request *models.AttendanceRequest
	Token   string
}

// SetStatus performs the moderation transition pending → approved|rejected.
// Approval also issues the request's single-use admission token.
func (s *Service) SetStatus(ctx context.Context, requestID id.RequestID, status models.RequestStatus) (*StatusResult, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.CanTransitionTo(status); err != nil {
		return nil, err
	}

	if err := s.requests.UpdateStatus(ctx, requestID, status); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "attendance request not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			// Lost a race with another moderator; the first decision stands.
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "request has already been moderated")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request status")
		}
	}
	req.Status = status

	result := &StatusResult{Request: req}
	if status == models.StatusApproved {
		tokenValue, err := s.issueToken(ctx, requestID)
		if err != nil {
			return nil, err
		}
		result.Token = tokenValue
	}

	if status == models.StatusRejected {
		// A rejection releases an admission slot.
		s.capacity.Invalidate(ctx, req.Match)
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:    audit.ActionStatusChanged,
		MatchID:   req.Match.ID.String(),
		MatchKind: req.Match.Kind.String(),
		RequestID: req.ID.String(),
		Subject:   req.FullName(),
		Reason:    string(status),
	})
	return result, nil
}

func (s *Service) issueToken(ctx context.Context, requestID id.RequestID) (string, error) {
	// Zero-or-one token per request; re-approval races return the existing one.
	existing, err := s.tokens.FindByRequest(ctx, requestID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admission token")
	}
	if existing != nil {
		return existing.Token, nil
	}

	value, err := secrets.Generate()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate admission token")
	}
	token := &models.AdmissionToken{Token: value, RequestID: requestID}
	if err := s.tokens.Save(ctx, token); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if existing, findErr := s.tokens.FindByRequest(ctx, requestID); findErr == nil && existing != nil {
				return existing.Token, nil
			}
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to save admission token")
	}
	return value, nil
}

// Get loads one request by ID.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.AttendanceRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "attendance request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance request")
	}
	return req, nil
}

// FindByIdentity lists every request on the match submitted under the raw
// identity, any status, in submission order.
func (s *Service) FindByIdentity(ctx context.Context, match id.MatchRef, rawIdentity string) ([]*models.AttendanceRequest, error) {
	ident, err := identity.Normalize(rawIdentity)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.FindByIdentity(ctx, match, ident)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search requests by identity")
	}
	return requests, nil
}
