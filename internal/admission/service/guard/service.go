// Package guard implements the duplicate identity check that runs at check-in
// time: one real person must not enter twice under two submitted names by
// reusing a contact identity.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/youssefloay/comebac-sub002/internal/admission/metrics"
	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	"github.com/youssefloay/comebac-sub002/internal/admission/ports"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/identity"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
)

type Service struct {
	requests       ports.RequestStore
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

func New(requests ports.RequestStore, opts ...Option) (*Service, error) {
	if requests == nil {
		return nil, fmt.Errorf("request store is required")
	}
	svc := &Service{requests: requests}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Resolve finds the admission candidate for an identity on a match.
//
// Rules, in order:
//  1. No request under the identity: not found.
//  2. The first-submitted match is itself checked in: return it (idempotent
//     re-lookup of the person who already entered).
//  3. Any other request under the identity is checked in: refuse, naming the
//     admitted person. Once somebody enters under an identity, every other
//     same-identity request stays blocked regardless of arrival order.
//  4. Otherwise the first-submitted request is the candidate.
//
// Matching is exact on the normalized key. A shared family phone number
// surfaces as a conflict for a human to resolve, never auto-resolved.
func (s *Service) Resolve(ctx context.Context, match id.MatchRef, rawIdentity string) (*models.AttendanceRequest, error) {
	ident, err := identity.Normalize(rawIdentity)
	if err != nil {
		return nil, err
	}
	return s.ResolveNormalized(ctx, match, ident)
}

// ResolveNormalized is Resolve for callers that already hold a canonical
// identity (the token gateway checks a request against its own contact key).
func (s *Service) ResolveNormalized(ctx context.Context, match id.MatchRef, ident identity.Identity) (*models.AttendanceRequest, error) {
	requests, err := s.requests.FindByIdentity(ctx, match, ident)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search requests by identity")
	}
	if len(requests) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no attendance request found for this identity")
	}

	candidate := requests[0]
	if candidate.CheckedIn {
		return candidate, nil
	}

	for _, other := range requests[1:] {
		if other.CheckedIn {
			return nil, s.blocked(ctx, match, ident, other, candidate)
		}
	}
	return candidate, nil
}

// CheckAdmissible refuses admission of req when a different request sharing
// either of its contact identities is already checked in. Called on the
// confirm paths right before the irreversible write; req itself being checked
// in is the caller's idempotence case, not a conflict.
func (s *Service) CheckAdmissible(ctx context.Context, req *models.AttendanceRequest) error {
	identities := []identity.Identity{
		{Kind: identity.KindEmail, Key: req.Email},
		{Kind: identity.KindPhone, Key: req.Phone},
	}

	for _, ident := range identities {
		if ident.Key == "" {
			continue
		}
		sharing, err := s.requests.FindByIdentity(ctx, req.Match, ident)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to search requests by identity")
		}
		for _, other := range sharing {
			if other.ID == req.ID || !other.CheckedIn {
				continue
			}
			return s.blocked(ctx, req.Match, ident, other, req)
		}
	}
	return nil
}

// blocked records a refused duplicate admission on the metric, the log and
// the audit trail, and builds the staff-facing error naming who entered.
func (s *Service) blocked(ctx context.Context, match id.MatchRef, ident identity.Identity, admitted, candidate *models.AttendanceRequest) error {
	s.metrics.IncrementDuplicateBlocked()
	if s.logger != nil {
		s.logger.WarnContext(ctx, "duplicate identity blocked",
			"match_id", match.ID,
			"identity_kind", ident.Kind,
			"admitted_request_id", admitted.ID,
			"candidate_request_id", candidate.ID,
		)
	}
	reason := fmt.Sprintf("%s already checked in under this %s", admitted.FullName(), ident.Kind)
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:    audit.ActionDuplicateBlocked,
		MatchID:   match.ID.String(),
		MatchKind: match.Kind.String(),
		RequestID: candidate.ID.String(),
		Subject:   candidate.FullName(),
		Reason:    reason,
		Fields:    map[string]string{"admitted_request_id": admitted.ID.String()},
	})
	return dErrors.New(dErrors.CodeDuplicateIdentity, reason)
}
