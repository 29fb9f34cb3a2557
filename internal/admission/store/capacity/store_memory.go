package capacity

import (
	"context"
	"sync"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
)

// InMemoryStore keeps per-match limits for tests and single-node deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	limits map[id.MatchRef]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{limits: make(map[id.MatchRef]int)}
}

func (s *InMemoryStore) GetLimit(_ context.Context, match id.MatchRef) (*models.CapacityLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit, ok := s.limits[match]; ok {
		return &models.CapacityLimit{Match: match, Limit: limit}, nil
	}
	return nil, nil
}

func (s *InMemoryStore) SetLimit(_ context.Context, limit *models.CapacityLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[limit.Match] = limit.Limit
	return nil
}
