// Package model contains domain models passed between layers.
package model

import "time"

// PlayerSnapshot is a point-in-time view of a single player, already fetched
// by the external data-access layer.
type PlayerSnapshot struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Role  string             `json:"role,omitempty"` // e.g. "duelist"; empty means unknown
	Stats map[string]float64 `json:"stats,omitempty"`
}

// MatchRecord is one historical match from a team's recent history.
type MatchRecord struct {
	Won          bool      `json:"won"`
	ScoreFor     int       `json:"score_for"`
	ScoreAgainst int       `json:"score_against"`
	PlayedAt     time.Time `json:"played_at"`
}

// TeamSnapshot is a point-in-time view of a contestant (team or solo player).
type TeamSnapshot struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	GameTitle     string             `json:"game_title,omitempty"`
	Roster        []PlayerSnapshot   `json:"roster,omitempty"`
	Stats         map[string]float64 `json:"stats,omitempty"`
	RecentMatches []MatchRecord      `json:"recent_matches,omitempty"`
}

// MetaState describes the current dominant strategy/trend for a game title,
// produced by an external meta-tracking collaborator.
type MetaState struct {
	GameTitle        string             `json:"game_title"`
	DominantStrategy string             `json:"dominant_strategy,omitempty"`
	PickRates        map[string]float64 `json:"pick_rates,omitempty"`
}

// MatchContext is the input to a prediction request.
type MatchContext struct {
	MatchID           string       `json:"match_id,omitempty"`
	GameTitle         string       `json:"game_title"`
	TeamA             TeamSnapshot `json:"team_a"`
	TeamB             TeamSnapshot `json:"team_b"`
	Meta              *MetaState   `json:"meta,omitempty"`
	BestOf            int          `json:"best_of,omitempty"`
	HistoricalContext string       `json:"historical_context,omitempty"` // passed through untouched
}

// ResultEvent is a recorded match outcome flowing through the result queue.
// PredictedProbA is optional: when a prediction was issued for the match it
// closes the calibration feedback loop.
type ResultEvent struct {
	MatchID        string    `json:"match_id"`
	TeamA          string    `json:"team_a"`
	TeamB          string    `json:"team_b"`
	ScoreA         int       `json:"score_a"`
	ScoreB         int       `json:"score_b"`
	Draw           bool      `json:"draw,omitempty"`
	PlayersA       []string  `json:"players_a,omitempty"`
	PlayersB       []string  `json:"players_b,omitempty"`
	ModelKey       string    `json:"model_key,omitempty"`
	PredictedProbA float64   `json:"predicted_prob_a,omitempty"`
	PlayedAt       time.Time `json:"played_at"`
}

// RatingSnapshot mirrors the rating store's view of both sides at prediction time.
type RatingSnapshot struct {
	RatingA    float64 `json:"rating_a"`
	RatingB    float64 `json:"rating_b"`
	DeviationA float64 `json:"deviation_a"`
	DeviationB float64 `json:"deviation_b"`
	GamesA     int     `json:"games_a"`
	GamesB     int     `json:"games_b"`
}

// ExpectedScore is the average simulated final score.
type ExpectedScore struct {
	TeamA float64 `json:"team_a"`
	TeamB float64 `json:"team_b"`
}

// Scenario is a named perturbation of the fused probability with a subjective likelihood.
type Scenario struct {
	Name           string  `json:"name"`
	WinProbability float64 `json:"win_probability"`
	Likelihood     float64 `json:"likelihood"`
	Description    string  `json:"description,omitempty"`
}

// PredictionResult is the unified output of the prediction pipeline.
type PredictionResult struct {
	PredictionID      string             `json:"prediction_id"`
	MatchID           string             `json:"match_id,omitempty"`
	TeamA             string             `json:"team_a"`
	TeamB             string             `json:"team_b"`
	FinalProbabilityA float64            `json:"final_probability_a"`
	FinalProbabilityB float64            `json:"final_probability_b"`
	Confidence        float64            `json:"confidence"`
	ExpectedScore     ExpectedScore      `json:"expected_score"`
	ScoreDistribution map[string]int     `json:"score_distribution,omitempty"`
	Scenarios         []Scenario         `json:"scenarios,omitempty"`
	KeyFactors        []string           `json:"key_factors,omitempty"`
	RiskFactors       []string           `json:"risk_factors,omitempty"`
	GraphMetrics      map[string]float64 `json:"graph_metrics,omitempty"`
	RatingSnapshot    RatingSnapshot     `json:"rating_snapshot"`
	ModelBreakdown    map[string]float64 `json:"model_breakdown,omitempty"`
	HistoricalContext string             `json:"historical_context,omitempty"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
