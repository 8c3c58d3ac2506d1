// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playsight/prophet/internal/domain/calibration"
	"github.com/playsight/prophet/internal/domain/dedupe"
	"github.com/playsight/prophet/internal/domain/model"
	"github.com/playsight/prophet/internal/domain/rating"
	"github.com/playsight/prophet/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Analyze runs the full prediction pipeline for a match context.
	Analyze(ctx context.Context, mc model.MatchContext) (model.PredictionResult, error)

	// Enqueue pushes a result event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.ResultEvent) bool

	// Rankings exposes the rating store ordered by rating descending.
	Rankings(ctx context.Context) []rating.Rating

	// CalibrationReport summarizes recorded prediction accuracy for a model key.
	CalibrationReport(ctx context.Context, modelKey string) (calibration.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	predictionsHandler *PredictionsHandler
	resultsHandler     *ResultsHandler
	rankingsHandler    *RankingsHandler
	calibrationHandler *CalibrationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		predictionsHandler: NewPredictionsHandler(deps, log),
		resultsHandler:     NewResultsHandler(deps, log),
		rankingsHandler:    NewRankingsHandler(deps),
		calibrationHandler: NewCalibrationHandler(deps),
	}
}

// Register attaches all HTTP routes to the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predictions", MetricsMiddleware(s.predictionsHandler.HandlePostPrediction, "predictions"))
		r.Post("/results", MetricsMiddleware(s.resultsHandler.HandlePostResult, "results"))
		r.Get("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
		r.Get("/calibration/{model}", MetricsMiddleware(s.calibrationHandler.HandleGetReport, "calibration"))
	})
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
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
