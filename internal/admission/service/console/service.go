// Package console is the manual check-in surface used by on-site staff when
// a spectator arrives without a scannable token: search by contact identity,
// review the candidate, then explicitly confirm. Orchestration only; every
// decision is delegated to the guard, the ledger, and the shared check-in
// path.
package console

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	capacitysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/capacity"
	checkinsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/checkin"
	guardsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/guard"
	lifecyclesvc "github.com/youssefloay/comebac-sub002/internal/admission/service/lifecycle"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
)

type Service struct {
	guard     *guardsvc.Service
	capacity  *capacitysvc.Service
	lifecycle *lifecyclesvc.Service
	checkin   *checkinsvc.Service
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(guard *guardsvc.Service, capacity *capacitysvc.Service, lifecycle *lifecyclesvc.Service, checkin *checkinsvc.Service, opts ...Option) (*Service, error) {
	if guard == nil {
		return nil, fmt.Errorf("duplicate identity guard is required")
	}
	if capacity == nil {
		return nil, fmt.Errorf("capacity service is required")
	}
	if lifecycle == nil {
		return nil, fmt.Errorf("lifecycle service is required")
	}
	if checkin == nil {
		return nil, fmt.Errorf("checkin service is required")
	}

	svc := &Service{guard: guard, capacity: capacity, lifecycle: lifecycle, checkin: checkin}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// LookupResult is the operator's review screen: the candidate request, whether
// it can be admitted right now, and the match's capacity snapshot for context.
type LookupResult struct {
	Request      *models.AttendanceRequest
	Admittable   bool
	Availability models.Availability
}

// Lookup resolves a typed search string to the admission candidate for the
// match. Pending and rejected requests are returned for display but flagged
// not admittable.
func (s *Service) Lookup(ctx context.Context, match id.MatchRef, rawIdentity string) (*LookupResult, error) {
	candidate, err := s.guard.Resolve(ctx, match, rawIdentity)
	if err != nil {
		return nil, err
	}

	availability, err := s.capacity.Availability(ctx, match)
	if err != nil {
		// The candidate is the payload; a failed snapshot must not hide it.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "availability snapshot failed during lookup",
				"match_id", match.ID,
				"error", err,
			)
		}
		availability = models.Availability{}
	}

	return &LookupResult{
		Request:      candidate,
		Admittable:   candidate.Admittable(),
		Availability: availability,
	}, nil
}

// Confirm admits the request the operator selected during Lookup. Same
// guard, same conditional write, same idempotence as the token path.
func (s *Service) Confirm(ctx context.Context, requestID id.RequestID) (*checkinsvc.Admission, error) {
	req, err := s.lifecycle.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.checkin.Admit(ctx, req, checkinsvc.PathManual)
}
