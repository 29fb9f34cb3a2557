package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
)

// InMemoryStore keeps token→request bindings for tests and single-node
// deployments.
type InMemoryStore struct {
	mu        sync.RWMutex
	byToken   map[string]*models.AdmissionToken
	byRequest map[id.RequestID]*models.AdmissionToken
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byToken:   make(map[string]*models.AdmissionToken),
		byRequest: make(map[id.RequestID]*models.AdmissionToken),
	}
}

func (s *InMemoryStore) Save(_ context.Context, token *models.AdmissionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byRequest[token.RequestID]; exists {
		return fmt.Errorf("request %s already has a token: %w", token.RequestID, sentinel.ErrConflict)
	}
	if _, exists := s.byToken[token.Token]; exists {
		return fmt.Errorf("token value collision: %w", sentinel.ErrConflict)
	}
	cp := *token
	s.byToken[token.Token] = &cp
	s.byRequest[token.RequestID] = &cp
	return nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, tokenValue string) (*models.AdmissionToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.byToken[tokenValue]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, fmt.Errorf("admission token not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByRequest(_ context.Context, requestID id.RequestID) (*models.AdmissionToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.byRequest[requestID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}
