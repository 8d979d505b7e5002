package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/notfound/ballog/pkg/logger"
)

// PlayersHandler serves player ability cards.
type PlayersHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps Dependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps, log: logger.Named("api.players")}
}

// HandleGetPlayerCard processes GET /players/{user_id}/card.
func (h *PlayersHandler) HandleGetPlayerCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/players/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[1] != "card" {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	uid, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(ErrInvalidRequest, "invalid user id"))
		return
	}

	card, err := h.deps.PlayerCard(r.Context(), uid)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		h.log.Error(r.Context(), "player card lookup failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
