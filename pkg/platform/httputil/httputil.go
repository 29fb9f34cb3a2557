// Package httputil centralizes JSON encoding and domain error translation at
// the HTTP boundary so every handler speaks the same envelope.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
)

// ToHTTPStatus maps a domain error code onto a status line.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput,
		dErrors.CodeValidation, dErrors.CodeInvalidIdentity:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound, dErrors.CodeTokenInvalid:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeCapacityExceeded,
		dErrors.CodeInvalidTransition, dErrors.CodeDuplicateIdentity,
		dErrors.CodeNotApproved:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes a payload with the standard headers.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so backend details never reach
// spectators' browsers; everything else carries the caller-facing message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// Validatable lets request DTOs validate and parse themselves after decode.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes a JSON request body into T and validates it. On
// failure it writes the error envelope and returns ok=false so handlers can
// bail with a bare return.
func DecodeAndPrepare[T Validatable](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var payload T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request body decode failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON request body"))
		return payload, false
	}
	if err := payload.Validate(); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request body validation failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, err)
		return payload, false
	}
	return payload, true
}
