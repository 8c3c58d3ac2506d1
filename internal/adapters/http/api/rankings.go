package api

import (
	"errors"
	"net/http"
	"strconv"
)

// Rankings pagination limits.
const (
	defaultRankingsLimit = 50
	maxRankingsLimit     = 500
)

// RankingsHandler serves the rating leaderboard.
type RankingsHandler struct {
	deps Dependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleGetRankings handles GET /api/v1/rankings requests. The optional
// limit query parameter caps the number of entries returned.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	limit := defaultRankingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > maxRankingsLimit {
		limit = maxRankingsLimit
	}

	rankings := h.deps.Rankings(r.Context())
	if len(rankings) > limit {
		rankings = rankings[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(rankings),
		"rankings": rankings,
	})
}
