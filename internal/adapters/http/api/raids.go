// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/repository"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/loot"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
)

// RaidDependencies defines the interface for raid operations.
type RaidDependencies interface {
	StartRaid(ctx context.Context, monster model.Monster, village, expeditionID string) (*model.Raid, error)
	Join(ctx context.Context, raidID, characterID string) (*model.Raid, error)
	TakeTurn(ctx context.Context, raidID, characterID string) (*TurnResult, error)
	Leave(ctx context.Context, raidID, characterID string) (*model.Raid, error)
	GetRaid(ctx context.Context, raidID string) (*model.Raid, error)
	ListRaids(ctx context.Context, f repository.RaidFilter) ([]*model.Raid, error)
	ListLootFailures(ctx context.Context, raidID string) ([]loot.Failure, error)
}

// RaidsHandler handles raid requests.
type RaidsHandler struct {
	deps     RaidDependencies
	maxLimit int
}

// NewRaidsHandler creates a new raids handler.
func NewRaidsHandler(deps RaidDependencies, maxLimit int) *RaidsHandler {
	return &RaidsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// raidRequest mirrors the OpenAPI schema for POST /raids.
type raidRequest struct {
	Village      string        `json:"village"`
	Monster      model.Monster `json:"monster"`
	ExpeditionID string        `json:"expedition_id,omitempty"`
}

func (r raidRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Village) == "":
		return errors.New("missing village")
	case strings.TrimSpace(r.Monster.Name) == "":
		return errors.New("missing monster.name")
	case r.Monster.Tier < 1:
		return errors.New("monster.tier must be at least 1")
	case r.Monster.MaxHearts < 1 && r.Monster.CurrentHearts < 1:
		return errors.New("monster needs at least one heart")
	}
	return nil
}

// HandleRaids handles POST /raids and GET /raids requests.
func (h *RaidsHandler) HandleRaids(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleStartRaid(w, r)
	case http.MethodGet:
		h.handleListRaids(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *RaidsHandler) handleStartRaid(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_raid"
	var req raidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	raid, err := h.deps.StartRaid(r.Context(), req.Monster, req.Village, req.ExpeditionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, raid)
}

func (h *RaidsHandler) handleListRaids(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_raids"
	f := repository.RaidFilter{
		Village: r.URL.Query().Get("village"),
		Status:  model.Status(r.URL.Query().Get("status")),
		Limit:   h.maxLimit,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		f.Limit = n
	}
	raids, err := h.deps.ListRaids(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if raids == nil {
		raids = []*model.Raid{}
	}
	writeJSON(w, http.StatusOK, raids)
}

// HandleRaidByID handles GET /raids/{id}, GET /raids/{id}/loot_failures, and
// POST /raids/{id}/join|turn|leave requests.
func (h *RaidsHandler) HandleRaidByID(w http.ResponseWriter, r *http.Request) {
	// Extract path parameters after /raids/
	path := strings.TrimPrefix(r.URL.Path, "/raids/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	raidID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGetRaid(w, r, raidID)
	case len(parts) == 2 && r.Method == http.MethodGet && parts[1] == "loot_failures":
		h.handleLootFailures(w, r, raidID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		h.handleAction(w, r, raidID, parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (h *RaidsHandler) handleGetRaid(w http.ResponseWriter, r *http.Request, raidID string) {
	raid, err := h.deps.GetRaid(r.Context(), raidID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, raid)
}

func (h *RaidsHandler) handleLootFailures(w http.ResponseWriter, r *http.Request, raidID string) {
	const op = "api.loot_failures"
	failures, err := h.deps.ListLootFailures(r.Context(), raidID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if failures == nil {
		failures = []loot.Failure{}
	}
	writeJSON(w, http.StatusOK, failures)
}

func (h *RaidsHandler) handleAction(w http.ResponseWriter, r *http.Request, raidID, action string) {
	const op = "api.raid_action"
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	switch action {
	case "join":
		raid, err := h.deps.Join(r.Context(), raidID, req.CharacterID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, raid)
	case "turn":
		result, err := h.deps.TakeTurn(r.Context(), raidID, req.CharacterID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case "leave":
		raid, err := h.deps.Leave(r.Context(), raidID, req.CharacterID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, raid)
	default:
		http.NotFound(w, r)
	}
}
