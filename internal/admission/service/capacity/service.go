// Package capacity implements the admission slot ledger: how many claims a
// match can still take. It is read-only; the capacity-bounded write itself
// lives in the request store's conditional insert.
package capacity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/youssefloay/comebac-sub002/internal/admission/metrics"
	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	"github.com/youssefloay/comebac-sub002/internal/admission/ports"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
)

// Type aliases for shared interfaces.
type (
	LimitStore   = ports.CapacityStore
	RequestStore = ports.RequestStore
	Cache        = ports.AvailabilityCache
)

type Service struct {
	limits         LimitStore
	requests       RequestStore
	cache          Cache
	defaultLimit   int
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(limits LimitStore, requests RequestStore, defaultLimit int, opts ...Option) (*Service, error) {
	if limits == nil {
		return nil, fmt.Errorf("capacity limit store is required")
	}
	if requests == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if defaultLimit < 0 {
		return nil, fmt.Errorf("default limit must not be negative")
	}

	svc := &Service{
		limits:       limits,
		requests:     requests,
		defaultLimit: defaultLimit,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Limit resolves the match's admission ceiling. A missing row falls back to
// the configured default; a failed lookup also falls back (fail-open) so a
// backend hiccup degrades to "assume capacity" instead of locking every
// spectator out. The fallback is audited because it changes behavior.
func (s *Service) Limit(ctx context.Context, match id.MatchRef) int {
	limit, err := s.limits.GetLimit(ctx, match)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "capacity limit lookup failed, using default",
				"match_id", match.ID,
				"match_kind", match.Kind,
				"default_limit", s.defaultLimit,
				"error", err,
			)
		}
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action:    audit.ActionLimitFallback,
			MatchID:   match.ID.String(),
			MatchKind: match.Kind.String(),
			Reason:    err.Error(),
		})
		return s.defaultLimit
	}
	if limit == nil {
		return s.defaultLimit
	}
	return limit.Limit
}

// Availability computes the point-in-time snapshot, consulting the cache
// first when one is wired. Cache failures are ignored; the store is the
// source of truth.
func (s *Service) Availability(ctx context.Context, match id.MatchRef) (models.Availability, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, match)
		switch {
		case err != nil:
			s.metrics.IncrementCacheResult("error")
		case cached != nil:
			s.metrics.IncrementCacheResult("hit")
			return *cached, nil
		default:
			s.metrics.IncrementCacheResult("miss")
		}
	}

	limit := s.Limit(ctx, match)
	used, err := s.requests.CountActive(ctx, match)
	if errors.Is(err, sentinel.ErrUnavailable) {
		// One retry on a transient backend hiccup; reads are safe to repeat.
		used, err = s.requests.CountActive(ctx, match)
	}
	if err != nil {
		return models.Availability{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count admission claims")
	}

	availability := models.NewAvailability(limit, used)
	if s.cache != nil {
		if err := s.cache.Set(ctx, match, availability); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "availability cache write failed", "error", err)
		}
	}
	return availability, nil
}

// HasCapacity reports whether the match can take another claim. Errors
// degrade to true: this gate is advisory, the store's conditional insert is
// the authority.
func (s *Service) HasCapacity(ctx context.Context, match id.MatchRef) bool {
	availability, err := s.Availability(ctx, match)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "availability check failed, assuming capacity",
				"match_id", match.ID,
				"error", err,
			)
		}
		return true
	}
	return availability.Available > 0
}

// Invalidate drops the cached snapshot after a write changed the count.
func (s *Service) Invalidate(ctx context.Context, match id.MatchRef) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, match); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "availability cache invalidation failed", "error", err)
	}
}
