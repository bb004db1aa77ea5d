// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// ActivityProvider reports per-character turn counts inside the rolling
// activity window.
type ActivityProvider interface {
	TurnActivity(ctx context.Context, characterID string) (int64, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	activity      ActivityProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider, activity ActivityProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, activity: activity}
}

// HandleStats handles GET /stats requests. With ?character_id=X the response
// also carries that character's turn count in the activity window.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.statsProvider.GetStats()
	if characterID := r.URL.Query().Get("character_id"); characterID != "" {
		n, err := h.activity.TurnActivity(r.Context(), characterID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		stats["characterID"] = characterID
		stats["turnActivity"] = n
	}
	writeJSON(w, http.StatusOK, stats)
}
