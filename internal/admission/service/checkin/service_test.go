package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	guardsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/guard"
	requeststore "github.com/youssefloay/comebac-sub002/internal/admission/store/request"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
)

// =============================================================================
// Admission Sequence Test Suite
// =============================================================================
// The duplicate identity exclusion has to hold when two kiosks confirm two
// different requests sharing one contact key at the same moment, which no
// surface-level test can stage reliably.

type CheckinSuite struct {
	suite.Suite
	store   *requeststore.InMemoryStore
	audits  *audit.InMemoryStore
	service *Service
	match   id.MatchRef
}

func TestCheckinSuite(t *testing.T) {
	suite.Run(t, new(CheckinSuite))
}

func (s *CheckinSuite) SetupTest() {
	s.store = requeststore.NewInMemoryStore()
	s.audits = audit.NewInMemoryStore()
	s.match = id.MatchRef{ID: id.MatchID(uuid.New()), Kind: id.MatchKindRegular}
	publisher := audit.NewStorePublisher(s.audits)

	guard, err := guardsvc.New(s.store, guardsvc.WithAuditPublisher(publisher))
	s.Require().NoError(err)
	s.service, err = New(s.store, guard, WithAuditPublisher(publisher))
	s.Require().NoError(err)
}

func (s *CheckinSuite) addApproved(firstName, email, phone string) *models.AttendanceRequest {
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
	s.Require().NoError(s.store.UpdateStatus(context.Background(), req.ID, models.StatusApproved))
	req.Status = models.StatusApproved
	return req
}

func (s *CheckinSuite) countCheckedIn(ids ...id.RequestID) int {
	count := 0
	for _, requestID := range ids {
		got, err := s.store.FindByID(context.Background(), requestID)
		s.Require().NoError(err)
		if got.CheckedIn {
			count++
		}
	}
	return count
}

func (s *CheckinSuite) TestSecondRequestUnderSharedIdentityRefused() {
	ctx := context.Background()

	s.Run("shared email", func() {
		first := s.addApproved("Ali", "fam@example.com", "01000000001")
		second := s.addApproved("Sara", "fam@example.com", "01000000002")

		_, err := s.service.Admit(ctx, first, PathManual)
		s.Require().NoError(err)

		_, err = s.service.Admit(ctx, second, PathManual)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateIdentity))
		s.Contains(err.Error(), "Ali")
		s.Equal(1, s.countCheckedIn(first.ID, second.ID))
	})

	s.Run("shared phone", func() {
		first := s.addApproved("Ali", "a@example.com", "01000000003")
		second := s.addApproved("Sara", "b@example.com", "01000000003")

		_, err := s.service.Admit(ctx, first, PathToken)
		s.Require().NoError(err)

		_, err = s.service.Admit(ctx, second, PathToken)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateIdentity))
		s.Equal(1, s.countCheckedIn(first.ID, second.ID))
	})
}

func (s *CheckinSuite) TestRefusalLeavesAnAuditTrail() {
	ctx := context.Background()
	first := s.addApproved("Ali", "trail@example.com", "01000000004")
	second := s.addApproved("Sara", "trail@example.com", "01000000005")

	_, err := s.service.Admit(ctx, first, PathManual)
	s.Require().NoError(err)
	_, err = s.service.Admit(ctx, second, PathManual)
	s.Require().Error(err)

	events, err := s.audits.List(ctx)
	s.Require().NoError(err)

	var blocked *audit.Event
	for i := range events {
		if events[i].Action == audit.ActionDuplicateBlocked {
			blocked = &events[i]
		}
	}
	s.Require().NotNil(blocked, "expected a duplicate_blocked event")
	s.Equal(second.ID.String(), blocked.RequestID)
	s.Equal("Sara Tester", blocked.Subject)
	s.Equal(first.ID.String(), blocked.Fields["admitted_request_id"])
}

// Two approved requests share one email and a crowd of kiosks confirms both
// at once. The guard read and the check-in write are separate store calls,
// so the exclusion must hold at the write itself: exactly one of the two
// requests may end up checked in, and every refusal names the conflict.
func (s *CheckinSuite) TestSharedIdentityAdmitsExactlyOneUnderContention() {
	ctx := context.Background()
	first := s.addApproved("Ali", "gate@example.com", "01000000006")
	second := s.addApproved("Sara", "gate@example.com", "01000000007")

	const goroutines = 40
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		admitted  = map[id.RequestID]bool{}
		conflicts int
	)
	for i := 0; i < goroutines; i++ {
		target := first
		if i%2 == 1 {
			target = second
		}
		wg.Add(1)
		go func(requestID id.RequestID) {
			defer wg.Done()
			// Fresh read per kiosk, as the gateway and console do.
			req, err := s.store.FindByID(ctx, requestID)
			if err != nil {
				return
			}
			admission, err := s.service.Admit(ctx, req, PathToken)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted[admission.Request.ID] = true
			case dErrors.HasCode(err, dErrors.CodeDuplicateIdentity):
				conflicts++
			default:
				s.Failf("unexpected admit error", "%v", err)
			}
		}(target.ID)
	}
	wg.Wait()

	s.Len(admitted, 1, "all successful admissions must resolve to one request")
	s.Positive(conflicts)
	s.Equal(1, s.countCheckedIn(first.ID, second.ID))
}
