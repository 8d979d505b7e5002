// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notfound/ballog/internal/adapters/repository"
	service "github.com/notfound/ballog/internal/app"
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitReports runs one scoring submission end to end.
	SubmitReports(ctx context.Context, sub model.Submission, submissionID string) (types.SubmissionResult, error)

	// Read operations expose player and team cards.
	PlayerCard(ctx context.Context, userID uuid.UUID) (types.PlayerCard, error)
	TeamCard(ctx context.Context, teamID int64) (types.TeamCard, error)

	// Aggregation triggers.
	RefreshTeamCard(ctx context.Context, teamID int64) error
	RefreshAllTeamCards(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	reportsHandler *ReportsHandler
	playersHandler *PlayersHandler
	teamsHandler   *TeamsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		reportsHandler: NewReportsHandler(deps),
		playersHandler: NewPlayersHandler(deps),
		teamsHandler:   NewTeamsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/reports", MetricsMiddleware(s.reportsHandler.HandlePostReports, "reports"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playersHandler.HandleGetPlayerCard, "players"))
	mux.HandleFunc("/teams/refresh", MetricsMiddleware(s.teamsHandler.HandleRefreshAll, "teams_refresh"))
	mux.HandleFunc("/teams/", MetricsMiddleware(s.teamsHandler.HandleTeams, "teams"))
}

// submissionRequest mirrors the wire schema for POST /reports.
type submissionRequest struct {
	SubmissionID string         `json:"submission_id"`
	MatchDate    string         `json:"match_date"`
	Entries      []entryRequest `json:"entries"`
}

type entryRequest struct {
	QuarterNumber int                `json:"quarter_number"`
	Side          string             `json:"side"`
	Telemetry     model.RawTelemetry `json:"telemetry"`
}

func (r submissionRequest) validate() error {
	if strings.TrimSpace(r.MatchDate) == "" {
		return errors.New("missing match_date")
	}
	if _, err := time.Parse("2006-01-02", r.MatchDate); err != nil {
		return errors.New("invalid match_date; must be YYYY-MM-DD")
	}
	for _, e := range r.Entries {
		if e.QuarterNumber < 1 {
			return errors.New("quarter_number must be >= 1")
		}
		switch strings.ToUpper(strings.TrimSpace(e.Side)) {
		case string(model.SideLeft), string(model.SideRight):
		default:
			return errors.New("side must be LEFT or RIGHT")
		}
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, service.ErrMatchNotFound) ||
		errors.Is(err, service.ErrProfileNotFound)
}

// userID extracts the authenticated user from the request. Authentication
// itself is an external collaborator; this trusts the header it sets.
func userID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		return uuid.Nil, errors.New("missing X-User-ID header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid X-User-ID header")
	}
	return id, nil
}
