// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
)

// CharacterDependencies defines the interface for character operations.
type CharacterDependencies interface {
	CreateCharacter(ctx context.Context, ch *model.Character) error
	GetCharacter(ctx context.Context, characterID string) (*model.Character, error)
}

// CharactersHandler handles character requests.
type CharactersHandler struct {
	deps CharacterDependencies
}

// NewCharactersHandler creates a new characters handler.
func NewCharactersHandler(deps CharacterDependencies) *CharactersHandler {
	return &CharactersHandler{deps: deps}
}

// characterRequest mirrors the OpenAPI schema for POST /characters.
type characterRequest struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Name        string `json:"name"`
	Village     string `json:"village"`
	Hearts      int    `json:"hearts"`
	MaxHearts   int    `json:"max_hearts,omitempty"`
	Attack      int    `json:"attack,omitempty"`
	Defense     int    `json:"defense,omitempty"`
	BlightStage int    `json:"blight_stage,omitempty"`
	Mod         bool   `json:"mod,omitempty"`
}

func (c characterRequest) validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(c.Village) == "":
		return errors.New("missing village")
	case c.Hearts < 1:
		return errors.New("hearts must be at least 1")
	}
	return nil
}

// HandleCharacters handles POST /characters requests.
func (h *CharactersHandler) HandleCharacters(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_character"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ch := &model.Character{
		ID:          req.ID,
		UserID:      req.UserID,
		Name:        req.Name,
		Village:     req.Village,
		Hearts:      req.Hearts,
		MaxHearts:   req.MaxHearts,
		Attack:      req.Attack,
		Defense:     req.Defense,
		BlightStage: req.BlightStage,
		Mod:         req.Mod,
	}
	if err := h.deps.CreateCharacter(r.Context(), ch); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// HandleCharacterByID handles GET /characters/{id} requests.
func (h *CharactersHandler) HandleCharacterByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /characters/
	path := strings.TrimPrefix(r.URL.Path, "/characters/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	ch, err := h.deps.GetCharacter(r.Context(), path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}
