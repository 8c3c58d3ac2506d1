package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playsight/prophet/internal/domain/calibration"
)

// CalibrationHandler serves calibration accuracy reports.
type CalibrationHandler struct {
	deps Dependencies
}

// NewCalibrationHandler creates a new calibration handler.
func NewCalibrationHandler(deps Dependencies) *CalibrationHandler {
	return &CalibrationHandler{deps: deps}
}

// HandleGetReport handles GET /api/v1/calibration/{model} requests.
func (h *CalibrationHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	modelKey := chi.URLParam(r, "model")
	if modelKey == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing model key"))
		return
	}

	report, err := h.deps.CalibrationReport(r.Context(), modelKey)
	if err != nil {
		if errors.Is(err, calibration.ErrNoHistory) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
