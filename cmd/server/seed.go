package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/youssefloay/comebac-sub002/internal/catalog"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
)

// seedMatch is one fixture in the MATCH_SEED_FILE JSON array.
type seedMatch struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	TeamAID   string    `json:"team_a_id"`
	TeamBID   string    `json:"team_b_id"`
	TeamAName string    `json:"team_a_name"`
	TeamBName string    `json:"team_b_name"`
	StartsAt  time.Time `json:"starts_at"`
	Venue     string    `json:"venue"`
}

// loadCatalogStore builds the in-process match catalog, optionally seeded
// from a JSON fixture file. An empty path yields an empty catalog; the
// production platform pushes fixtures through its own match service.
func loadCatalogStore(path string) (*catalog.InMemoryStore, error) {
	store := catalog.NewInMemoryStore()
	if path == "" {
		return store, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedMatch
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, seed := range seeds {
		matchID, err := id.ParseMatchID(seed.ID)
		if err != nil {
			return nil, fmt.Errorf("seed match %d: %w", i, err)
		}
		kind, err := id.ParseMatchKind(seed.Kind)
		if err != nil {
			return nil, fmt.Errorf("seed match %d: %w", i, err)
		}
		teamA, err := id.ParseTeamID(seed.TeamAID)
		if err != nil {
			return nil, fmt.Errorf("seed match %d: %w", i, err)
		}
		teamB, err := id.ParseTeamID(seed.TeamBID)
		if err != nil {
			return nil, fmt.Errorf("seed match %d: %w", i, err)
		}
		store.Add(&catalog.Match{
			ID:        matchID,
			Kind:      kind,
			TeamAID:   teamA,
			TeamBID:   teamB,
			TeamAName: seed.TeamAName,
			TeamBName: seed.TeamBName,
			StartsAt:  seed.StartsAt,
			Venue:     seed.Venue,
		})
	}
	return store, nil
}
