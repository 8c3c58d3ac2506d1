package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/playsight/prophet/internal/domain/graph"
	"github.com/playsight/prophet/internal/domain/model"
	"github.com/playsight/prophet/pkg/logger"
	"github.com/playsight/prophet/pkg/metrics"
)

// PredictionsHandler handles prediction requests.
type PredictionsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps Dependencies, log logger.Logger) *PredictionsHandler {
	return &PredictionsHandler{deps: deps, log: log}
}

// HandlePostPrediction handles POST /api/v1/predictions requests.
func (h *PredictionsHandler) HandlePostPrediction(w http.ResponseWriter, r *http.Request) {
	var mc model.MatchContext
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := validateMatchContext(mc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	start := time.Now()
	result, err := h.deps.Analyze(r.Context(), mc)
	if err != nil {
		switch {
		case errors.Is(err, graph.ErrMissingData):
			writeError(w, http.StatusUnprocessableEntity, "missing_data", err)
		case errors.Is(err, graph.ErrModelFailure):
			writeError(w, http.StatusInternalServerError, "model_failure", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	metrics.RecordPredictionServed()
	metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))
	h.log.Info(r.Context(), "prediction served",
		logger.String("predictionID", result.PredictionID),
		logger.String("teamA", result.TeamA),
		logger.String("teamB", result.TeamB),
		logger.Float64("probabilityA", result.FinalProbabilityA),
	)

	writeJSON(w, http.StatusOK, result)
}

func validateMatchContext(mc model.MatchContext) error {
	switch {
	case teamIdentifier(mc.TeamA) == "":
		return errors.New("missing team_a identifier")
	case teamIdentifier(mc.TeamB) == "":
		return errors.New("missing team_b identifier")
	case teamIdentifier(mc.TeamA) == teamIdentifier(mc.TeamB):
		return errors.New("team_a and team_b must differ")
	case mc.BestOf < 0:
		return errors.New("best_of must not be negative")
	}
	return nil
}

func teamIdentifier(t model.TeamSnapshot) string {
	if id := strings.TrimSpace(t.ID); id != "" {
		return id
	}
	return strings.TrimSpace(t.Name)
}
