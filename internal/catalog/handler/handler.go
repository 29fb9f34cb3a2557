// Package handler exposes the match listing endpoint that registration forms
// and check-in consoles use to pick a fixture.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	"github.com/youssefloay/comebac-sub002/internal/catalog"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	"github.com/youssefloay/comebac-sub002/pkg/platform/httputil"
	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service *catalog.Service
	logger  *slog.Logger
}

func New(service *catalog.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/matches", h.HandleList)
}

// MatchResponse is one upcoming fixture with its admission snapshot.
type MatchResponse struct {
	ID           string              `json:"id"`
	Kind         string              `json:"kind"`
	TeamAID      string              `json:"team_a_id"`
	TeamBID      string              `json:"team_b_id"`
	TeamAName    string              `json:"team_a_name"`
	TeamBName    string              `json:"team_b_name"`
	StartsAt     time.Time           `json:"starts_at"`
	Venue        string              `json:"venue"`
	Availability models.Availability `json:"availability"`
}

// HandleList handles GET /matches. An optional team_id query narrows to one
// team's fixtures.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var teamID *id.TeamID
	if raw := r.URL.Query().Get("team_id"); raw != "" {
		parsed, err := id.ParseTeamID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		teamID = &parsed
	}

	listed, err := h.service.ListUpcoming(ctx, teamID)
	if err != nil {
		h.logger.ErrorContext(ctx, "match listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]MatchResponse, 0, len(listed))
	for _, entry := range listed {
		out = append(out, MatchResponse{
			ID:           entry.Match.ID.String(),
			Kind:         entry.Match.Kind.String(),
			TeamAID:      entry.Match.TeamAID.String(),
			TeamBID:      entry.Match.TeamBID.String(),
			TeamAName:    entry.Match.TeamAName,
			TeamBName:    entry.Match.TeamBName,
			StartsAt:     entry.Match.StartsAt,
			Venue:        entry.Match.Venue,
			Availability: entry.Availability,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"matches": out})
}
