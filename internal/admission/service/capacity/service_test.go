package capacity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	capacitystore "github.com/youssefloay/comebac-sub002/internal/admission/store/capacity"
	requeststore "github.com/youssefloay/comebac-sub002/internal/admission/store/request"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
)

// =============================================================================
// Capacity Ledger Test Suite
// =============================================================================
// Fail-open behavior (backend errors degrade to the default limit, never to a
// closed gate) is the part that needs precise coverage; the conditional insert
// itself is exercised in the request store tests.

const testDefaultLimit = 5

type CapacitySuite struct {
	suite.Suite
	limits   *capacitystore.InMemoryStore
	requests *requeststore.InMemoryStore
	audits   *audit.InMemoryStore
	service  *Service
	match    id.MatchRef
}

func TestCapacitySuite(t *testing.T) {
	suite.Run(t, new(CapacitySuite))
}

func (s *CapacitySuite) SetupTest() {
	s.limits = capacitystore.NewInMemoryStore()
	s.requests = requeststore.NewInMemoryStore()
	s.audits = audit.NewInMemoryStore()
	s.match = id.MatchRef{ID: id.MatchID(uuid.New()), Kind: id.MatchKindRegular}

	var err error
	s.service, err = New(s.limits, s.requests, testDefaultLimit,
		WithAuditPublisher(audit.NewStorePublisher(s.audits)),
	)
	s.Require().NoError(err)
}

func (s *CapacitySuite) addActiveRequest(status models.RequestStatus) {
	req := &models.AttendanceRequest{
		ID:          id.NewRequestID(),
		Match:       s.match,
		FirstName:   "Test",
		LastName:    "Spectator",
		Email:       uuid.NewString() + "@example.com",
		Phone:       "01000000001",
		PhotoRef:    "photos/x.jpg",
		TeamID:      id.TeamID(uuid.New()),
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	s.Require().NoError(s.requests.CreateWithinLimit(context.Background(), req, 1000))
	if status != models.StatusPending {
		s.Require().NoError(s.requests.UpdateStatus(context.Background(), req.ID, status))
	}
}

func (s *CapacitySuite) TestNew() {
	s.Run("nil limit store", func() {
		_, err := New(nil, s.requests, testDefaultLimit)
		s.Error(err)
	})
	s.Run("nil request store", func() {
		_, err := New(s.limits, nil, testDefaultLimit)
		s.Error(err)
	})
	s.Run("negative default", func() {
		_, err := New(s.limits, s.requests, -1)
		s.Error(err)
	})
}

func (s *CapacitySuite) TestLimit() {
	ctx := context.Background()

	s.Run("unset match uses the default", func() {
		s.Equal(testDefaultLimit, s.service.Limit(ctx, s.match))
	})

	s.Run("explicit limit wins", func() {
		s.Require().NoError(s.limits.SetLimit(ctx, &models.CapacityLimit{Match: s.match, Limit: 40}))
		s.Equal(40, s.service.Limit(ctx, s.match))
	})

	s.Run("lookup failure falls back to default and audits it", func() {
		failing, err := New(failingLimitStore{}, s.requests, testDefaultLimit,
			WithAuditPublisher(audit.NewStorePublisher(s.audits)),
		)
		s.Require().NoError(err)

		s.Equal(testDefaultLimit, failing.Limit(ctx, s.match))
		s.Equal(1, s.audits.CountByAction(audit.ActionLimitFallback))
	})
}

func (s *CapacitySuite) TestAvailability() {
	ctx := context.Background()

	s.Run("counts pending and approved as used", func() {
		s.addActiveRequest(models.StatusPending)
		s.addActiveRequest(models.StatusApproved)
		s.addActiveRequest(models.StatusRejected)

		availability, err := s.service.Availability(ctx, s.match)
		s.Require().NoError(err)
		s.Equal(models.Availability{Limit: testDefaultLimit, Used: 2, Available: 3}, availability)
	})

	s.Run("available clamps at zero", func() {
		s.Require().NoError(s.limits.SetLimit(ctx, &models.CapacityLimit{Match: s.match, Limit: 1}))
		availability, err := s.service.Availability(ctx, s.match)
		s.Require().NoError(err)
		s.Equal(0, availability.Available)
	})
}

func (s *CapacitySuite) TestHasCapacity() {
	ctx := context.Background()

	s.Run("open match has capacity", func() {
		s.True(s.service.HasCapacity(ctx, s.match))
	})

	s.Run("full match has none", func() {
		s.Require().NoError(s.limits.SetLimit(ctx, &models.CapacityLimit{Match: s.match, Limit: 1}))
		s.addActiveRequest(models.StatusApproved)
		s.False(s.service.HasCapacity(ctx, s.match))
	})
}

// failingLimitStore simulates an unreachable limit backend.
type failingLimitStore struct{}

func (failingLimitStore) GetLimit(context.Context, id.MatchRef) (*models.CapacityLimit, error) {
	return nil, errors.Join(sentinel.ErrUnavailable, errors.New("limit backend down"))
}

func (failingLimitStore) SetLimit(context.Context, *models.CapacityLimit) error {
	return sentinel.ErrUnavailable
}
