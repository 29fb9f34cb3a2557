package guard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	requeststore "github.com/youssefloay/comebac-sub002/internal/admission/store/request"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
)

// =============================================================================
// Duplicate Identity Guard Test Suite
// =============================================================================
// The guard's ordering rules (first-submitted wins the lookup, any admitted
// request blocks the rest) only show under multiple same-identity requests,
// which is awkward to stage through the HTTP surface.

type GuardSuite struct {
	suite.Suite
	store   *requeststore.InMemoryStore
	audits  *audit.InMemoryStore
	service *Service
	match   id.MatchRef
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	s.store = requeststore.NewInMemoryStore()
	s.audits = audit.NewInMemoryStore()
	s.match = id.MatchRef{ID: id.MatchID(uuid.New()), Kind: id.MatchKindRegular}

	var err error
	s.service, err = New(s.store, WithAuditPublisher(audit.NewStorePublisher(s.audits)))
	s.Require().NoError(err)
}

func (s *GuardSuite) addRequest(firstName, email, phone string, status models.RequestStatus) *models.AttendanceRequest {
	req := &models.AttendanceRequest{
		ID:          id.NewRequestID(),
		Match:       s.match,
		FirstName:   firstName,
		LastName:    "Tester",
		Email:       email,
		Phone:       phone,
		PhotoRef:    "photos/x.jpg",
		TeamID:      id.TeamID(uuid.New()),
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	s.Require().NoError(s.store.CreateWithinLimit(context.Background(), req, 100))
	if status != models.StatusPending {
		s.Require().NoError(s.store.UpdateStatus(context.Background(), req.ID, status))
		req.Status = status
	}
	return req
}

func (s *GuardSuite) checkIn(req *models.AttendanceRequest) {
	applied, err := s.store.MarkCheckedIn(context.Background(), req.ID, time.Now())
	s.Require().NoError(err)
	s.Require().True(applied)
}

func (s *GuardSuite) TestNew() {
	_, err := New(nil)
	s.Error(err)
	s.Contains(err.Error(), "request store is required")
}

// =============================================================================
// Resolve Tests
// =============================================================================

func (s *GuardSuite) TestResolve() {
	ctx := context.Background()

	s.Run("unknown identity is not found", func() {
		_, err := s.service.Resolve(ctx, s.match, "ghost@example.com")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("malformed identity refused before any lookup", func() {
		_, err := s.service.Resolve(ctx, s.match, "not-an-identity")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})

	s.Run("single request is the candidate", func() {
		req := s.addRequest("Nour", "nour@example.com", "01000000010", models.StatusApproved)
		found, err := s.service.Resolve(ctx, s.match, "Nour@Example.com")
		s.Require().NoError(err)
		s.Equal(req.ID, found.ID)
	})

	s.Run("first submitted wins among duplicates", func() {
		first := s.addRequest("Ali", "family@example.com", "01000000011", models.StatusApproved)
		s.addRequest("Sara", "family@example.com", "01000000012", models.StatusApproved)

		found, err := s.service.Resolve(ctx, s.match, "family@example.com")
		s.Require().NoError(err)
		s.Equal(first.ID, found.ID)
	})
}

func (s *GuardSuite) TestResolveAfterAdmission() {
	ctx := context.Background()

	s.Run("admitted candidate resolves to itself for replay", func() {
		req := s.addRequest("Nour", "nour2@example.com", "01000000020", models.StatusApproved)
		s.checkIn(req)

		found, err := s.service.Resolve(ctx, s.match, "nour2@example.com")
		s.Require().NoError(err)
		s.Equal(req.ID, found.ID)
		s.True(found.CheckedIn)
	})

	s.Run("later admitted request blocks the earlier candidate", func() {
		first := s.addRequest("Ali", "shared2@example.com", "01000000021", models.StatusApproved)
		second := s.addRequest("Sara", "shared2@example.com", "01000000022", models.StatusApproved)
		s.checkIn(second)

		_, err := s.service.Resolve(ctx, s.match, "shared2@example.com")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateIdentity))
		// Staff see who entered, so they can resolve it at the gate.
		s.Contains(err.Error(), "Sara")

		// Every refused duplicate lands on the audit trail with both sides.
		events, listErr := s.audits.List(ctx)
		s.Require().NoError(listErr)
		s.Require().Equal(1, s.audits.CountByAction(audit.ActionDuplicateBlocked))
		blocked := events[len(events)-1]
		s.Equal(audit.ActionDuplicateBlocked, blocked.Action)
		s.Equal(first.ID.String(), blocked.RequestID)
		s.Equal(second.ID.String(), blocked.Fields["admitted_request_id"])
		s.Contains(blocked.Reason, "Sara")
	})
}

// =============================================================================
// CheckAdmissible Tests
// =============================================================================

func (s *GuardSuite) TestCheckAdmissible() {
	ctx := context.Background()

	s.Run("clean identity passes", func() {
		req := s.addRequest("Nour", "clean@example.com", "01000000030", models.StatusApproved)
		s.NoError(s.service.CheckAdmissible(ctx, req))
	})

	s.Run("admitted email twin blocks", func() {
		admitted := s.addRequest("Ali", "twin@example.com", "01000000031", models.StatusApproved)
		s.checkIn(admitted)
		candidate := s.addRequest("Sara", "twin@example.com", "01000000032", models.StatusApproved)

		err := s.service.CheckAdmissible(ctx, candidate)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateIdentity))
	})

	s.Run("admitted phone twin blocks even with distinct emails", func() {
		admitted := s.addRequest("Ali", "a31@example.com", "01000000033", models.StatusApproved)
		s.checkIn(admitted)
		candidate := s.addRequest("Sara", "b31@example.com", "01000000033", models.StatusApproved)

		err := s.service.CheckAdmissible(ctx, candidate)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateIdentity))
	})

	s.Run("own admission is not a conflict", func() {
		req := s.addRequest("Nour", "self@example.com", "01000000034", models.StatusApproved)
		s.checkIn(req)
		req.CheckedIn = true
		s.NoError(s.service.CheckAdmissible(ctx, req))
	})
}
