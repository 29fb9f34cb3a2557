package testutil

import (
	"net/http"
	"time"

	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// WithOperator marks the request as authenticated staff.
// This simulates what the staffauth middleware would do after token validation.
func WithOperator(req *http.Request, operator string) *http.Request {
	ctx := requestcontext.WithOperator(req.Context(), operator)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock so tests can assert exact
// check-in timestamps.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}
