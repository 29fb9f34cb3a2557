package request

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	"github.com/youssefloay/comebac-sub002/pkg/identity"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
)

// InMemoryStore keeps attendance requests under a single mutex, which makes
// every conditional write (counted insert, guarded check-in) naturally atomic.
// Backs unit tests and single-node deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.AttendanceRequest
	order    []id.RequestID // submission order per the whole store
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests: make(map[id.RequestID]*models.AttendanceRequest),
	}
}

func clone(r *models.AttendanceRequest) *models.AttendanceRequest {
	cp := *r
	if r.CheckedInAt != nil {
		at := *r.CheckedInAt
		cp.CheckedInAt = &at
	}
	return &cp
}

func (s *InMemoryStore) countActiveLocked(match id.MatchRef) int {
	count := 0
	for _, r := range s.requests {
		if r.Match == match && (r.Status == models.StatusPending || r.Status == models.StatusApproved) {
			count++
		}
	}
	return count
}

func (s *InMemoryStore) CreateWithinLimit(_ context.Context, req *models.AttendanceRequest, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return fmt.Errorf("request %s already exists: %w", req.ID, sentinel.ErrConflict)
	}
	if s.countActiveLocked(req.Match) >= limit {
		return fmt.Errorf("match %s is at capacity: %w", req.Match.ID, sentinel.ErrConflict)
	}

	s.requests[req.ID] = clone(req)
	s.order = append(s.order, req.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RequestID) (*models.AttendanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.requests[requestID]; ok {
		return clone(r), nil
	}
	return nil, fmt.Errorf("attendance request not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByIdentity(_ context.Context, match id.MatchRef, ident identity.Identity) ([]*models.AttendanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AttendanceRequest
	for _, requestID := range s.order {
		r := s.requests[requestID]
		if r.Match == match && r.MatchesIdentity(ident) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (s *InMemoryStore) CountActive(_ context.Context, match id.MatchRef) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countActiveLocked(match), nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, requestID id.RequestID, status models.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("attendance request not found: %w", sentinel.ErrNotFound)
	}
	if r.Status != models.StatusPending {
		return fmt.Errorf("request is already %s: %w", r.Status, sentinel.ErrInvalidState)
	}
	r.Status = status
	return nil
}

func (s *InMemoryStore) MarkCheckedIn(_ context.Context, requestID id.RequestID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return false, fmt.Errorf("attendance request not found: %w", sentinel.ErrNotFound)
	}
	if r.Status != models.StatusApproved || r.CheckedIn {
		return false, nil
	}
	// The identity exclusion must share the write's critical section: two
	// confirms for different requests under one contact key otherwise both
	// pass a separate guard read and both land.
	for _, other := range s.requests {
		if other.ID == r.ID || other.Match != r.Match || !other.CheckedIn {
			continue
		}
		if other.Email == r.Email || (r.Phone != "" && other.Phone == r.Phone) {
			return false, nil
		}
	}
	r.CheckedIn = true
	r.CheckedInAt = &at
	return true, nil
}
