package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

func TestLogAuditEnrichesFromContext(t *testing.T) {
	store := audit.NewInMemoryStore()
	publisher := audit.NewStorePublisher(store)

	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithRequestID(ctx, "req-123")
	ctx = requestcontext.WithOperator(ctx, "gatekeeper-7")
	ctx = requestcontext.WithDevice(ctx, "Chrome on Android (mobile)")
	ctx = requestcontext.WithClientIP(ctx, "10.1.2.3")

	LogAudit(ctx, nil, publisher, audit.Event{Action: audit.ActionCheckedIn, Subject: "Hana Farid"})

	events, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, audit.ActionCheckedIn, got.Action)
	assert.True(t, got.Timestamp.Equal(at))
	assert.Equal(t, "req-123", got.TraceID)
	assert.Equal(t, "gatekeeper-7", got.Operator)
	assert.Equal(t, "Chrome on Android (mobile)", got.Device)
	assert.Equal(t, "10.1.2.3", got.IP)
}

func TestLogAuditKeepsExplicitFields(t *testing.T) {
	store := audit.NewInMemoryStore()
	publisher := audit.NewStorePublisher(store)

	ctx := requestcontext.WithOperator(context.Background(), "gatekeeper-7")
	ctx = requestcontext.WithClientIP(ctx, "10.1.2.3")

	LogAudit(ctx, nil, publisher, audit.Event{
		Action:   audit.ActionStatusChanged,
		Operator: "league-admin",
		IP:       "192.168.9.9",
	})

	events, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "league-admin", events[0].Operator)
	assert.Equal(t, "192.168.9.9", events[0].IP)
}
