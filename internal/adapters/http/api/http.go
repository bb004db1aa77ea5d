// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/repository"
	service "github.com/Ruutuli/Tinglebot2.0-sub010/internal/app"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RaidDependencies
	CharacterDependencies
	ActivityProvider
}

// TurnResult mirrors the shape returned by turn resolution.
type TurnResult = service.TurnResult

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	raidsHandler      *RaidsHandler
	charactersHandler *CharactersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider, deps),
		raidsHandler:      NewRaidsHandler(deps, maxListLimit),
		charactersHandler: NewCharactersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/raids", MetricsMiddleware(s.raidsHandler.HandleRaids, "raids"))
	mux.HandleFunc("/raids/", MetricsMiddleware(s.raidsHandler.HandleRaidByID, "raid_actions"))
	mux.HandleFunc("/characters", MetricsMiddleware(s.charactersHandler.HandleCharacters, "characters"))
	mux.HandleFunc("/characters/", MetricsMiddleware(s.charactersHandler.HandleCharacterByID, "character_by_id"))
}

// actionRequest mirrors the OpenAPI schema for the join/turn/leave actions.
type actionRequest struct {
	CharacterID string `json:"character_id"`
}

func (a actionRequest) validate() error {
	if strings.TrimSpace(a.CharacterID) == "" {
		return errors.New("missing character_id")
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

// writeDomainError translates engine errors into HTTP responses. Validation
// rejections carry their reason as the response code; concurrency exhaustion
// maps to 503 so clients know a retry is safe.
func writeDomainError(w http.ResponseWriter, err error) {
	if ve, ok := model.AsValidation(err); ok {
		switch ve.Reason {
		case model.ReasonNotFound, model.ReasonUnknownCharacter:
			writeError(w, http.StatusNotFound, string(ve.Reason), err)
		case model.ReasonDuplicateJoin:
			writeError(w, http.StatusConflict, string(ve.Reason), err)
		default:
			writeError(w, http.StatusBadRequest, string(ve.Reason), err)
		}
		return
	}
	if errors.Is(err, repository.ErrConflictExhausted) {
		writeError(w, http.StatusServiceUnavailable, "conflict_exhausted",
			errors.New("raid is contended; retry the action"))
		return
	}
	if errors.Is(err, repository.ErrDuplicateID) {
		writeError(w, http.StatusConflict, "duplicate_id", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
