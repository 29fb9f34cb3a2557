package lifecycle

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	capacitysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/capacity"
	capacitystore "github.com/youssefloay/comebac-sub002/internal/admission/store/capacity"
	requeststore "github.com/youssefloay/comebac-sub002/internal/admission/store/request"
	tokenstore "github.com/youssefloay/comebac-sub002/internal/admission/store/token"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/identity"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
)

func mustIdentity(t *testing.T, raw string) identity.Identity {
	t.Helper()
	ident, err := identity.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize %q: %v", raw, err)
	}
	return ident
}

// =============================================================================
// Request Lifecycle Test Suite
// =============================================================================

type LifecycleSuite struct {
	suite.Suite
	requests *requeststore.InMemoryStore
	tokens   *tokenstore.InMemoryStore
	limits   *capacitystore.InMemoryStore
	audits   *audit.InMemoryStore
	service  *Service
	match    id.MatchRef
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.requests = requeststore.NewInMemoryStore()
	s.tokens = tokenstore.NewInMemoryStore()
	s.limits = capacitystore.NewInMemoryStore()
	s.audits = audit.NewInMemoryStore()
	s.match = id.MatchRef{ID: id.MatchID(uuid.New()), Kind: id.MatchKindPreseason}

	capacity, err := capacitysvc.New(s.limits, s.requests, 100,
		capacitysvc.WithAuditPublisher(audit.NewStorePublisher(s.audits)),
	)
	s.Require().NoError(err)

	s.service, err = New(s.requests, s.tokens, capacity,
		WithAuditPublisher(audit.NewStorePublisher(s.audits)),
	)
	s.Require().NoError(err)
}

func (s *LifecycleSuite) input(email, phone string) models.NewRequestInput {
	return models.NewRequestInput{
		Match:     s.match,
		FirstName: "Laila",
		LastName:  "Mostafa",
		Email:     email,
		Phone:     phone,
		PhotoRef:  "photos/laila.jpg",
		TeamID:    id.TeamID(uuid.New()),
		TeamName:  "Heliopolis Youth",
	}
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *LifecycleSuite) TestCreate() {
	ctx := context.Background()

	s.Run("stores a pending request with normalized identities", func() {
		created, err := s.service.Create(ctx, s.input("Laila.M@Example.COM ", "+20 100 123 4567"))
		s.Require().NoError(err)

		s.Equal(models.StatusPending, created.Status)
		s.Equal("laila.m@example.com", created.Email)
		s.Equal("01001234567", created.Phone)
		s.False(created.SubmittedAt.IsZero())

		stored, err := s.requests.FindByID(ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.Email, stored.Email)
		s.Equal(1, s.audits.CountByAction(audit.ActionRequestSubmitted))
	})

	s.Run("missing fields refused before any write", func() {
		in := s.input("laila@example.com", "01001234567")
		in.PhotoRef = ""
		_, err := s.service.Create(ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unusable phone refused", func() {
		_, err := s.service.Create(ctx, s.input("laila@example.com", "+1 555 0100"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})
}

// TestCreateUntilExhaustion submits past the limit and expects precisely the
// limit to land, then a capacity refusal that is audited.
func (s *LifecycleSuite) TestCreateUntilExhaustion() {
	ctx := context.Background()
	const limit = 3
	s.Require().NoError(s.limits.SetLimit(ctx, &models.CapacityLimit{Match: s.match, Limit: limit}))

	for i := 0; i < limit; i++ {
		_, err := s.service.Create(ctx, s.input(
			fmt.Sprintf("fan%d@example.com", i),
			fmt.Sprintf("0100123456%d", i),
		))
		s.Require().NoError(err)
	}

	_, err := s.service.Create(ctx, s.input("late@example.com", "01009999999"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	s.Equal(1, s.audits.CountByAction(audit.ActionCapacityExceeded))

	// A rejection releases a slot and submission works again.
	all, err := s.requests.FindByIdentity(ctx, s.match, mustIdentity(s.T(), "fan0@example.com"))
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	_, err = s.service.SetStatus(ctx, all[0].ID, models.StatusRejected)
	s.Require().NoError(err)

	_, err = s.service.Create(ctx, s.input("late@example.com", "01009999999"))
	s.NoError(err)
}

// =============================================================================
// SetStatus Tests
// =============================================================================

func (s *LifecycleSuite) TestSetStatus() {
	ctx := context.Background()

	s.Run("approval issues the admission token", func() {
		created, err := s.service.Create(ctx, s.input("approve@example.com", "01002000001"))
		s.Require().NoError(err)

		result, err := s.service.SetStatus(ctx, created.ID, models.StatusApproved)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, result.Request.Status)
		s.NotEmpty(result.Token)

		bound, err := s.tokens.FindByToken(ctx, result.Token)
		s.Require().NoError(err)
		s.Equal(created.ID, bound.RequestID)
	})

	s.Run("rejection issues no token", func() {
		created, err := s.service.Create(ctx, s.input("reject@example.com", "01002000002"))
		s.Require().NoError(err)

		result, err := s.service.SetStatus(ctx, created.ID, models.StatusRejected)
		s.Require().NoError(err)
		s.Empty(result.Token)
	})

	s.Run("terminal states refuse further moderation", func() {
		created, err := s.service.Create(ctx, s.input("terminal@example.com", "01002000003"))
		s.Require().NoError(err)
		_, err = s.service.SetStatus(ctx, created.ID, models.StatusRejected)
		s.Require().NoError(err)

		_, err = s.service.SetStatus(ctx, created.ID, models.StatusApproved)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown request", func() {
		_, err := s.service.SetStatus(ctx, id.NewRequestID(), models.StatusApproved)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LifecycleSuite) TestTokenIssuanceIsIdempotent() {
	ctx := context.Background()
	created, err := s.service.Create(ctx, s.input("idem@example.com", "01002000004"))
	s.Require().NoError(err)

	result, err := s.service.SetStatus(ctx, created.ID, models.StatusApproved)
	s.Require().NoError(err)

	// Issue again directly; the bound token must come back, not a second one.
	again, err := s.service.issueToken(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(result.Token, again)
}
