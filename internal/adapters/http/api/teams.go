package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/notfound/ballog/pkg/logger"
)

// TeamsHandler serves team cards and aggregation triggers.
type TeamsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps Dependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps, log: logger.Named("api.teams")}
}

// HandleTeams dispatches GET /teams/{team_id}/card and
// POST /teams/{team_id}/card/refresh.
func (h *TeamsHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/teams/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 2 && parts[1] == "card":
		h.handleGetCard(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "card" && parts[2] == "refresh":
		h.handleRefresh(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "not_found", nil)
	}
}

func (h *TeamsHandler) handleGetCard(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	teamID, err := parseTeamID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	card, err := h.deps.TeamCard(r.Context(), teamID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		h.log.Error(r.Context(), "team card lookup failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *TeamsHandler) handleRefresh(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	teamID, err := parseTeamID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.deps.RefreshTeamCard(r.Context(), teamID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		h.log.Error(r.Context(), "team refresh failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleRefreshAll processes POST /teams/refresh.
func (h *TeamsHandler) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	if err := h.deps.RefreshAllTeamCards(r.Context()); err != nil {
		h.log.Error(r.Context(), "refresh all teams failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func parseTeamID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, Wrap(ErrInvalidRequest, "invalid team id")
	}
	return id, nil
}
