// Package checkin holds the single authoritative path that converts an
// approved attendance request into a checked-in one. Both entry surfaces
// (token gateway and manual console) end here, so the duplicate guard and the
// exactly-once write cannot be bypassed by either.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/youssefloay/comebac-sub002/internal/admission/metrics"
	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	"github.com/youssefloay/comebac-sub002/internal/admission/ports"
	guardsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/guard"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// Paths label which surface performed an admission, for metrics and audit.
const (
	PathToken  = "token"
	PathManual = "manual"
)

type Service struct {
	requests       ports.RequestStore
	guard          *guardsvc.Service
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

func New(requests ports.RequestStore, guard *guardsvc.Service, opts ...Option) (*Service, error) {
	if requests == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("duplicate identity guard is required")
	}

	svc := &Service{requests: requests, guard: guard}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Admission is the outcome of a confirm. AlreadyCheckedIn marks an idempotent
// replay: the person was admitted earlier and CheckedInAt is the original
// instant, never a new admission event.
type Admission struct {
	Request          *models.AttendanceRequest
	CheckedInAt      time.Time
	AlreadyCheckedIn bool
}

// Admit runs the authoritative admission sequence against an already-loaded
// request:
//
//	replay?  → answer idempotently with the original timestamp
//	approved? → otherwise refuse, pending and rejected are never admittable
//	duplicate guard → refuse when someone else entered under this identity
//	conditional write → flip checked_in exactly once; the store re-checks
//	                    the identity exclusion atomically with the write,
//	                    so the guard read above is a fast path, not the
//	                    authority; a lost race re-reads and answers as a
//	                    replay or names the conflict
func (s *Service) Admit(ctx context.Context, req *models.AttendanceRequest, path string) (*Admission, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveConfirmLatency(time.Since(start).Seconds())
	}()

	if req.CheckedIn {
		return s.replay(ctx, req, path), nil
	}
	if req.Status != models.StatusApproved {
		return nil, dErrors.Newf(dErrors.CodeNotApproved, "request is %s, not approved", req.Status)
	}
	if err := s.guard.CheckAdmissible(ctx, req); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	applied, err := s.requests.MarkCheckedIn(ctx, req.ID, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "attendance request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark request checked in")
	}
	if !applied {
		// Another operator won a write between our guard read and ours.
		// Re-read: a concurrent check-in of this request is a replay, a lost
		// approval refuses, and a concurrent admission under a shared
		// identity surfaces through the guard with the admitted name.
		fresh, err := s.requests.FindByID(ctx, req.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload request after check-in race")
		}
		if fresh.CheckedIn {
			return s.replay(ctx, fresh, path), nil
		}
		if fresh.Status != models.StatusApproved {
			return nil, dErrors.Newf(dErrors.CodeNotApproved, "request is %s, not approved", fresh.Status)
		}
		if err := s.guard.CheckAdmissible(ctx, fresh); err != nil {
			return nil, err
		}
		return nil, dErrors.New(dErrors.CodeDuplicateIdentity, "someone already checked in under this identity")
	}

	req.CheckedIn = true
	req.CheckedInAt = &now

	s.metrics.IncrementCheckedIn(path)
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:    audit.ActionCheckedIn,
		MatchID:   req.Match.ID.String(),
		MatchKind: req.Match.Kind.String(),
		RequestID: req.ID.String(),
		Subject:   req.FullName(),
		Fields:    map[string]string{"path": path},
	})
	return &Admission{Request: req, CheckedInAt: now}, nil
}

func (s *Service) replay(ctx context.Context, req *models.AttendanceRequest, path string) *Admission {
	at := time.Time{}
	if req.CheckedInAt != nil {
		at = *req.CheckedInAt
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:    audit.ActionCheckInReplayed,
		MatchID:   req.Match.ID.String(),
		MatchKind: req.Match.Kind.String(),
		RequestID: req.ID.String(),
		Subject:   req.FullName(),
		Fields:    map[string]string{"path": path},
	})
	return &Admission{Request: req, CheckedInAt: at, AlreadyCheckedIn: true}
}
