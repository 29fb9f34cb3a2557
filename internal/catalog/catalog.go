// Package catalog is the match listing collaborator: which fixtures are
// coming up, so registration forms and check-in consoles can pick one. The
// admission core consumes it read-only.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	id "github.com/youssefloay/comebac-sub002/pkg/domain"
)

// Match is one upcoming fixture in either namespace.
type Match struct {
	ID        id.MatchID
	Kind      id.MatchKind
	TeamAID   id.TeamID
	TeamBID   id.TeamID
	TeamAName string
	TeamBName string
	StartsAt  time.Time
	Venue     string
}

// Ref names the match for the admission core.
func (m *Match) Ref() id.MatchRef {
	return id.MatchRef{ID: m.ID, Kind: m.Kind}
}

// Store lists fixtures. The production platform owns the full match CRUD;
// this service only needs the upcoming slice.
type Store interface {
	// ListUpcoming returns matches starting at or after now, soonest first.
	// A non-nil teamID narrows to that team's fixtures.
	ListUpcoming(ctx context.Context, now time.Time, teamID *id.TeamID) ([]*Match, error)
}

// InMemoryStore serves a seeded fixture list for tests and single-node
// deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches []*Match
}

func NewInMemoryStore(matches ...*Match) *InMemoryStore {
	s := &InMemoryStore{}
	s.matches = append(s.matches, matches...)
	return s
}

// Add seeds one fixture.
func (s *InMemoryStore) Add(match *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, match)
}

func (s *InMemoryStore) ListUpcoming(_ context.Context, now time.Time, teamID *id.TeamID) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Match
	for _, m := range s.matches {
		if m.StartsAt.Before(now) {
			continue
		}
		if teamID != nil && m.TeamAID != *teamID && m.TeamBID != *teamID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}
