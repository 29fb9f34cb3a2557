package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	capacitysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/capacity"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// MatchAvailability pairs a fixture with its admission snapshot for the
// match-selection screens.
type MatchAvailability struct {
	Match        *Match
	Availability models.Availability
}

type Service struct {
	store    Store
	capacity *capacitysvc.Service
}

func NewService(store Store, capacity *capacitysvc.Service) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if capacity == nil {
		return nil, fmt.Errorf("capacity service is required")
	}
	return &Service{store: store, capacity: capacity}, nil
}

// availabilityFanOut bounds the concurrent snapshot reads per listing.
const availabilityFanOut = 8

// ListUpcoming returns upcoming fixtures with their availability, fetched
// concurrently since each snapshot is an independent read.
func (s *Service) ListUpcoming(ctx context.Context, teamID *id.TeamID) ([]MatchAvailability, error) {
	matches, err := s.store.ListUpcoming(ctx, requestcontext.Now(ctx), teamID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list upcoming matches")
	}

	out := make([]MatchAvailability, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(availabilityFanOut)

	for i, match := range matches {
		g.Go(func() error {
			availability, err := s.capacity.Availability(gctx, match.Ref())
			if err != nil {
				return err
			}
			out[i] = MatchAvailability{Match: match, Availability: availability}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load match availability")
	}
	return out, nil
}
