// Package gateway is the token admission surface: resolve a scanned QR token
// to its request (peek) and redeem it exactly once (confirm). Peek is
// advisory so the operator can compare the photo before committing; confirm
// is authoritative and idempotent.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/youssefloay/comebac-sub002/internal/admission/metrics"
	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	"github.com/youssefloay/comebac-sub002/internal/admission/ports"
	checkinsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/checkin"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
)

type Service struct {
	tokens   ports.TokenStore
	requests ports.RequestStore
	checkin  *checkinsvc.Service
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(tokens ports.TokenStore, requests ports.RequestStore, checkin *checkinsvc.Service, opts ...Option) (*Service, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if requests == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if checkin == nil {
		return nil, fmt.Errorf("checkin service is required")
	}

	svc := &Service{tokens: tokens, requests: requests, checkin: checkin}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// PeekResult is what the operator sees before committing an admission.
type PeekResult struct {
	Request          *models.AttendanceRequest
	AlreadyCheckedIn bool
}

// resolve maps a raw token value to its bound request. Unresolvable tokens
// are reported uniformly so a scanner cannot distinguish "never existed" from
// "deleted".
func (s *Service) resolve(ctx context.Context, tokenValue string) (*models.AttendanceRequest, error) {
	if tokenValue == "" {
		return nil, dErrors.New(dErrors.CodeTokenInvalid, "token is required")
	}
	token, err := s.tokens.FindByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeTokenInvalid, "token does not resolve to a request")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve admission token")
	}

	req, err := s.requests.FindByID(ctx, token.RequestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Token without a request is a broken binding, not a user error.
			return nil, dErrors.New(dErrors.CodeTokenInvalid, "token does not resolve to a request")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request for token")
	}
	return req, nil
}

// Peek resolves the token without mutating anything. A pending or rejected
// request's token is never admittable.
func (s *Service) Peek(ctx context.Context, tokenValue string) (*PeekResult, error) {
	req, err := s.resolve(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusApproved {
		return nil, dErrors.Newf(dErrors.CodeNotApproved, "request is %s, not approved", req.Status)
	}
	return &PeekResult{Request: req, AlreadyCheckedIn: req.CheckedIn}, nil
}

// Confirm redeems the token: re-resolve, then run the shared admission path.
// Safe to call twice; the second call reports the original check-in instead
// of admitting again.
func (s *Service) Confirm(ctx context.Context, tokenValue string) (*checkinsvc.Admission, error) {
	req, err := s.resolve(ctx, tokenValue)
	if err != nil {
		s.metrics.IncrementTokenRedemption("invalid")
		return nil, err
	}

	admission, err := s.checkin.Admit(ctx, req, checkinsvc.PathToken)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicateIdentity) {
			s.metrics.IncrementTokenRedemption("blocked")
		} else {
			s.metrics.IncrementTokenRedemption("invalid")
		}
		return nil, err
	}

	if admission.AlreadyCheckedIn {
		s.metrics.IncrementTokenRedemption("replayed")
	} else {
		s.metrics.IncrementTokenRedemption("admitted")
	}
	return admission, nil
}
