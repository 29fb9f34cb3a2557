package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	checkinsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/checkin"
	guardsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/guard"
	requeststore "github.com/youssefloay/comebac-sub002/internal/admission/store/request"
	tokenstore "github.com/youssefloay/comebac-sub002/internal/admission/store/token"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
	"github.com/youssefloay/comebac-sub002/pkg/testutil"
)

type gatewayFixture struct {
	requests *requeststore.InMemoryStore
	tokens   *tokenstore.InMemoryStore
	audits   *audit.InMemoryStore
	service  *Service
	match    id.MatchRef
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		requests: requeststore.NewInMemoryStore(),
		tokens:   tokenstore.NewInMemoryStore(),
		audits:   audit.NewInMemoryStore(),
		match:    id.MatchRef{ID: id.MatchID(uuid.New()), Kind: id.MatchKindRegular},
	}
	publisher := audit.NewStorePublisher(f.audits)

	guard, err := guardsvc.New(f.requests)
	require.NoError(t, err)
	checkin, err := checkinsvc.New(f.requests, guard, checkinsvc.WithAuditPublisher(publisher))
	require.NoError(t, err)
	f.service, err = New(f.tokens, f.requests, checkin)
	require.NoError(t, err)
	return f
}

// seedApproved stores an approved request and binds a token to it.
func (f *gatewayFixture) seedApproved(t *testing.T, email, phone, tokenValue string) *models.AttendanceRequest {
	t.Helper()
	ctx := context.Background()

	req := &models.AttendanceRequest{
		ID:          id.NewRequestID(),
		Match:       f.match,
		FirstName:   "Karim",
		LastName:    "Adel",
		Email:       email,
		Phone:       phone,
		PhotoRef:    "photos/karim.jpg",
		TeamID:      id.TeamID(uuid.New()),
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, f.requests.CreateWithinLimit(ctx, req, 100))
	require.NoError(t, f.requests.UpdateStatus(ctx, req.ID, models.StatusApproved))
	req.Status = models.StatusApproved
	require.NoError(t, f.tokens.Save(ctx, &models.AdmissionToken{Token: tokenValue, RequestID: req.ID}))
	return req
}

func TestPeek(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown token is invalid", func(t *testing.T) {
		f := newGatewayFixture(t)
		_, err := f.service.Peek(ctx, "no-such-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenInvalid))
	})

	t.Run("empty token is invalid", func(t *testing.T) {
		f := newGatewayFixture(t)
		_, err := f.service.Peek(ctx, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenInvalid))
	})

	t.Run("approved token shows the request without admitting", func(t *testing.T) {
		f := newGatewayFixture(t)
		req := f.seedApproved(t, "karim@example.com", "01003000001", "tok-peek")

		result, err := f.service.Peek(ctx, "tok-peek")
		require.NoError(t, err)
		assert.Equal(t, req.ID, result.Request.ID)
		assert.False(t, result.AlreadyCheckedIn)

		stored, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.False(t, stored.CheckedIn)
	})

	t.Run("pending request is not admittable through its token", func(t *testing.T) {
		f := newGatewayFixture(t)
		req := &models.AttendanceRequest{
			ID:          id.NewRequestID(),
			Match:       f.match,
			FirstName:   "Dina",
			LastName:    "Samir",
			Email:       "dina@example.com",
			Phone:       "01003000002",
			PhotoRef:    "photos/dina.jpg",
			TeamID:      id.TeamID(uuid.New()),
			Status:      models.StatusPending,
			SubmittedAt: time.Now(),
		}
		require.NoError(t, f.requests.CreateWithinLimit(ctx, req, 100))
		require.NoError(t, f.tokens.Save(ctx, &models.AdmissionToken{Token: "tok-pending", RequestID: req.ID}))

		_, err := f.service.Peek(ctx, "tok-pending")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotApproved))
	})
}

func TestConfirm(t *testing.T) {
	t.Run("admits an approved request once", func(t *testing.T) {
		f := newGatewayFixture(t)
		req := f.seedApproved(t, "karim@example.com", "01003000001", "tok-confirm")

		at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), at)

		admission, err := f.service.Confirm(ctx, "tok-confirm")
		require.NoError(t, err)
		assert.False(t, admission.AlreadyCheckedIn)
		assert.True(t, admission.CheckedInAt.Equal(at))
		assert.Equal(t, req.ID, admission.Request.ID)
		assert.Equal(t, 1, f.audits.CountByAction(audit.ActionCheckedIn))
	})

	t.Run("unknown token is invalid", func(t *testing.T) {
		f := newGatewayFixture(t)
		_, err := f.service.Confirm(context.Background(), "tok-unknown")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenInvalid))
	})

	t.Run("blocks when the identity already entered on another request", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.seedApproved(t, "family@example.com", "01003000010", "tok-first")
		f.seedApproved(t, "family@example.com", "01003000011", "tok-second")

		ctx := context.Background()
		_, err := f.service.Confirm(ctx, "tok-first")
		require.NoError(t, err)

		_, err = f.service.Confirm(ctx, "tok-second")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicateIdentity))
	})
}

// TestConfirmTwice walks the replay guarantee: a token scanned twice admits
// once and answers the second scan with the original admission.
func TestConfirmTwice(t *testing.T) {
	f := newGatewayFixture(t)
	var firstAt time.Time

	testutil.Given(t, "an approved request admitted through its token", func(t *testing.T) {
		f.seedApproved(t, "karim@example.com", "01003000001", "tok-twice")
		at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), at)

		admission, err := f.service.Confirm(ctx, "tok-twice")
		require.NoError(t, err)
		firstAt = admission.CheckedInAt
	})

	testutil.When(t, "the same token is confirmed again later", func(t *testing.T) {
		later := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))
		admission, err := f.service.Confirm(later, "tok-twice")
		require.NoError(t, err)

		assert.True(t, admission.AlreadyCheckedIn)
		assert.True(t, admission.CheckedInAt.Equal(firstAt), "replay reports the original instant")
	})

	testutil.Then(t, "exactly one admission event was recorded", func(t *testing.T) {
		assert.Equal(t, 1, f.audits.CountByAction(audit.ActionCheckedIn))
		assert.Equal(t, 1, f.audits.CountByAction(audit.ActionCheckInReplayed))
	})
}
