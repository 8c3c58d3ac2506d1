package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playsight/prophet/internal/domain/model"
	"github.com/playsight/prophet/pkg/logger"
)

// ResultsHandler handles match result submissions.
type ResultsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies, log logger.Logger) *ResultsHandler {
	return &ResultsHandler{deps: deps, log: log}
}

// HandlePostResult handles POST /api/v1/results requests. Results are
// acknowledged with 202 and applied asynchronously by the worker pool.
// Duplicate match ids are acknowledged without re-applying.
func (h *ResultsHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	var event model.ResultEvent
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := validateResult(event); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if event.MatchID == "" {
		event.MatchID = uuid.NewString()
	}
	if event.PlayedAt.IsZero() {
		event.PlayedAt = time.Now().UTC()
	}

	ctx := r.Context()
	if h.deps.SeenAndRecord(ctx, event.MatchID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "accepted", Duplicate: true})
		return
	}

	if !h.deps.Enqueue(ctx, event) {
		// Roll back the dedupe record so the client can retry.
		h.deps.Unrecord(ctx, event.MatchID)
		h.log.Warn(ctx, "result rejected on backpressure",
			logger.String("matchID", event.MatchID),
		)
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

func validateResult(e model.ResultEvent) error {
	switch {
	case strings.TrimSpace(e.TeamA) == "":
		return errors.New("missing team_a")
	case strings.TrimSpace(e.TeamB) == "":
		return errors.New("missing team_b")
	case e.TeamA == e.TeamB:
		return errors.New("team_a and team_b must differ")
	case e.ScoreA < 0 || e.ScoreB < 0:
		return errors.New("scores must not be negative")
	case e.Draw && e.ScoreA != e.ScoreB:
		return errors.New("draw requires equal scores")
	case e.PredictedProbA < 0 || e.PredictedProbA > 1:
		return errors.New("predicted_prob_a must be within [0,1]")
	}
	return nil
}
