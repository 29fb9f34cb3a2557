// Package handler wires the admission HTTP surface: public submission and
// availability, plus the staff-only moderation, lookup and check-in routes.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	capacitysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/capacity"
	consolesvc "github.com/youssefloay/comebac-sub002/internal/admission/service/console"
	gatewaysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/gateway"
	lifecyclesvc "github.com/youssefloay/comebac-sub002/internal/admission/service/lifecycle"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
	"github.com/youssefloay/comebac-sub002/pkg/platform/httputil"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// Handler wires admission endpoints to the admission services.
type Handler struct {
	lifecycle *lifecyclesvc.Service
	capacity  *capacitysvc.Service
	gateway   *gatewaysvc.Service
	console   *consolesvc.Service
	logger    *slog.Logger
}

// New constructs an admission handler with its dependencies.
func New(lifecycle *lifecyclesvc.Service, capacity *capacitysvc.Service, gateway *gatewaysvc.Service, console *consolesvc.Service, logger *slog.Logger) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		capacity:  capacity,
		gateway:   gateway,
		console:   console,
		logger:    logger,
	}
}

// Register mounts admission endpoints on the router. The staff middleware
// guards every route that moderates, looks up or admits; the token routes
// take the gate middleware instead, which additionally admits provisioned
// kiosk scanners.
func (h *Handler) Register(r chi.Router, staff, gate func(http.Handler) http.Handler) {
	r.Post("/attendance/requests", h.HandleSubmit)
	r.Get("/attendance/availability", h.HandleAvailability)

	r.Group(func(r chi.Router) {
		r.Use(staff)
		r.Get("/attendance/lookup", h.HandleLookup)
		r.Post("/attendance/requests/{requestID}/status", h.HandleSetStatus)
		r.Post("/attendance/requests/{requestID}/check-in", h.HandleManualCheckIn)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate)
		r.Get("/attendance/tokens/{token}", h.HandlePeek)
		r.Post("/attendance/tokens/{token}/confirm", h.HandleTokenConfirm)
	})
}

// HandleSubmit handles POST /attendance/requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.lifecycle.Create(ctx, req.Input())
	if err != nil {
		h.logger.WarnContext(ctx, "attendance submission refused",
			"request_id", requestID,
			"match_id", req.MatchID,
			"match_kind", req.MatchKind,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "attendance request submitted",
		"request_id", requestID,
		"attendance_request_id", created.ID,
		"match_id", created.Match.ID,
		"match_kind", created.Match.Kind,
	)
	httputil.WriteJSON(w, http.StatusCreated, SubmitResponse{
		RequestID:   created.ID.String(),
		Status:      string(created.Status),
		SubmittedAt: created.SubmittedAt,
	})
}

// HandleAvailability handles GET /attendance/availability.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	match, err := matchFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	availability, err := h.capacity.Availability(ctx, match)
	if err != nil {
		h.logger.ErrorContext(ctx, "availability snapshot failed",
			"request_id", requestcontext.RequestID(ctx),
			"match_id", match.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, availability)
}

// HandleLookup handles GET /attendance/lookup.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	match, err := matchFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rawIdentity := r.URL.Query().Get("identity")

	result, err := h.console.Lookup(ctx, match, rawIdentity)
	if err != nil {
		h.logger.InfoContext(ctx, "check-in lookup found nothing admissible",
			"request_id", requestID,
			"match_id", match.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLookupResult(result))
}

// HandleSetStatus handles POST /attendance/requests/{requestID}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	attendanceID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*SetStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.lifecycle.SetStatus(ctx, attendanceID, req.ParsedStatus())
	if err != nil {
		h.logger.WarnContext(ctx, "moderation transition refused",
			"request_id", requestID,
			"attendance_request_id", attendanceID,
			"status", req.Status,
			"operator", requestcontext.Operator(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "attendance request moderated",
		"request_id", requestID,
		"attendance_request_id", attendanceID,
		"status", req.Status,
		"operator", requestcontext.Operator(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, FromStatusResult(result))
}

// HandleManualCheckIn handles POST /attendance/requests/{requestID}/check-in.
func (h *Handler) HandleManualCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	attendanceID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	admission, err := h.console.Confirm(ctx, attendanceID)
	if err != nil {
		h.logger.WarnContext(ctx, "manual check-in refused",
			"request_id", requestID,
			"attendance_request_id", attendanceID,
			"operator", requestcontext.Operator(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual check-in confirmed",
		"request_id", requestID,
		"attendance_request_id", attendanceID,
		"operator", requestcontext.Operator(ctx),
		"replayed", admission.AlreadyCheckedIn,
	)
	httputil.WriteJSON(w, http.StatusOK, FromAdmission(admission))
}

// HandlePeek handles GET /attendance/tokens/{token}.
func (h *Handler) HandlePeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.gateway.Peek(ctx, chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPeekResult(result))
}

// HandleTokenConfirm handles POST /attendance/tokens/{token}/confirm.
func (h *Handler) HandleTokenConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	admission, err := h.gateway.Confirm(ctx, chi.URLParam(r, "token"))
	if err != nil {
		h.logger.WarnContext(ctx, "token check-in refused",
			"request_id", requestID,
			"operator", requestcontext.Operator(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "token check-in confirmed",
		"request_id", requestID,
		"attendance_request_id", admission.Request.ID,
		"operator", requestcontext.Operator(ctx),
		"replayed", admission.AlreadyCheckedIn,
	)
	httputil.WriteJSON(w, http.StatusOK, FromAdmission(admission))
}

func matchFromQuery(r *http.Request) (id.MatchRef, error) {
	query := r.URL.Query()
	match, err := id.ParseMatchRef(query.Get("match_id"), query.Get("match_kind"))
	if err != nil {
		return id.MatchRef{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "match_id and match_kind query parameters are required")
	}
	return match, nil
}
