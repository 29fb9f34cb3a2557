package kioskauth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefloay/comebac-sub002/pkg/platform/secrets"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// staffStub stands in for the staff JWT middleware: it refuses everything,
// so any request reaching the handler must have come through the kiosk path.
func staffStub(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func newGate(t *testing.T, keys ...string) func(http.Handler) http.Handler {
	t.Helper()
	hashes := make([]string, 0, len(keys))
	for _, key := range keys {
		hash, err := secrets.Hash(key)
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}
	return AllowKiosk(NewVerifier(hashes), staffStub, slog.New(slog.DiscardHandler))
}

func serve(gate func(http.Handler) http.Handler, key string) (*httptest.ResponseRecorder, string) {
	var operator string
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator = requestcontext.Operator(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/attendance/tokens/x/confirm", nil)
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, operator
}

func TestAllowKiosk(t *testing.T) {
	t.Run("valid key admits and records the kiosk operator", func(t *testing.T) {
		rr, operator := serve(newGate(t, "key-one", "key-two"), "key-two")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, Operator, operator)
	})

	t.Run("wrong key is refused without falling through to staff", func(t *testing.T) {
		rr, _ := serve(newGate(t, "key-one"), "wrong")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Invalid kiosk API key"}`, rr.Body.String())
	})

	t.Run("missing key delegates to the staff middleware", func(t *testing.T) {
		rr, _ := serve(newGate(t, "key-one"), "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("no configured keys ignores the header entirely", func(t *testing.T) {
		rr, _ := serve(newGate(t), "key-one")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestVerifier(t *testing.T) {
	hash, err := secrets.Hash("gate-key")
	require.NoError(t, err)

	v := NewVerifier([]string{hash})
	assert.True(t, v.Enabled())
	assert.NoError(t, v.Verify("gate-key"))
	assert.Error(t, v.Verify("other"))

	empty := NewVerifier(nil)
	assert.False(t, empty.Enabled())
	assert.Error(t, empty.Verify("gate-key"))
}
