package models

import id "github.com/youssefloay/comebac-sub002/pkg/domain"

// AdmissionToken is a single-use opaque credential bound 1:1 to an attendance
// request, issued at approval time and typically delivered inside a QR code.
// The token value is unguessable (32 random bytes, base64url) and resolves to
// exactly one request. Redemption state lives on the request's CheckedIn flag,
// not here: re-presenting a token after redemption is answered idempotently
// from the request record.
type AdmissionToken struct {
	Token     string
	RequestID id.RequestID
}
