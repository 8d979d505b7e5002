package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	service "github.com/notfound/ballog/internal/app"
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/pkg/logger"
)

// ReportsHandler accepts per-quarter telemetry submissions.
type ReportsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps, log: logger.Named("api.reports")}
}

// HandlePostReports processes POST /reports.
func (h *ReportsHandler) HandlePostReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(ErrInvalidRequest, "malformed JSON body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	matchDate, _ := time.Parse("2006-01-02", req.MatchDate)
	sub := model.Submission{
		UserID:    uid,
		MatchDate: matchDate,
		Entries:   make([]model.QuarterEntry, 0, len(req.Entries)),
	}
	for _, e := range req.Entries {
		sub.Entries = append(sub.Entries, model.QuarterEntry{
			QuarterNumber: e.QuarterNumber,
			Side:          model.Side(e.Side).Normalized(),
			Telemetry:     e.Telemetry,
		})
	}

	result, err := h.deps.SubmitReports(r.Context(), sub, req.SubmissionID)
	if err != nil {
		switch {
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, service.ErrQuarterResolution):
			h.log.Error(r.Context(), "quarter resolution failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", nil)
		default:
			h.log.Error(r.Context(), "submission failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", nil)
		}
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}
