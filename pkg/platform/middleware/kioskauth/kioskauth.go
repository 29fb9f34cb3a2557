// Package kioskauth authenticates gate kiosks on the token admission routes.
// Kiosks are headless scanners that cannot run the staff OAuth flow, so they
// present a pre-shared API key instead; only bcrypt hashes of the keys reach
// the service configuration. Requests without a key fall through to the
// regular staff check, so a staff member's handheld keeps working on the same
// routes.
package kioskauth

import (
	"log/slog"
	"net/http"

	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/secrets"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// HeaderKey carries the kiosk's plaintext API key.
const HeaderKey = "X-Kiosk-Key"

// Operator is recorded on audit events for kiosk-initiated admissions; the
// device label from the User-Agent distinguishes individual kiosks.
const Operator = "gate-kiosk"

// Verifier checks presented keys against the configured bcrypt hashes.
type Verifier struct {
	hashes []string
}

func NewVerifier(hashes []string) *Verifier {
	return &Verifier{hashes: hashes}
}

// Enabled reports whether any kiosk keys are configured at all.
func (v *Verifier) Enabled() bool {
	return len(v.hashes) > 0
}

// Verify returns nil when the key matches any configured hash. The fleet is
// a handful of kiosks, so a linear bcrypt scan is fine.
func (v *Verifier) Verify(key string) error {
	var err error = dErrors.New(dErrors.CodeUnauthorized, "no kiosk keys configured")
	for _, hash := range v.hashes {
		if err = secrets.Verify(key, hash); err == nil {
			return nil
		}
	}
	return err
}

// AllowKiosk admits requests carrying a valid kiosk key and delegates
// everything else to the staff middleware. A present-but-wrong key is
// refused outright rather than falling through, so a misprovisioned kiosk
// surfaces as unauthorized instead of a confusing staff-token error.
func AllowKiosk(verifier *Verifier, staff func(http.Handler) http.Handler, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		staffNext := staff(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" || !verifier.Enabled() {
				staffNext.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if err := verifier.Verify(key); err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid kiosk key",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid kiosk API key"}`))
				return
			}

			ctx = requestcontext.WithOperator(ctx, Operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
