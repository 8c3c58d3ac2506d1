// Package backtest drives a running prediction service through a synthetic
// season: teams with planted strengths play each other, every match is
// predicted before its result is submitted, and the final rankings and
// calibration report are checked against the planted truth.
package backtest

import "time"

// Config holds configuration for a backtest run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Teams         int           // Number of synthetic teams
	RoundsPerPair int           // Matches per unordered team pair
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	Seed          int64         // Season generation seed; 0 means time-based
	LogFile       string        // Log file for run output
	Verbose       bool          // Enable verbose logging
}

// TeamSpec is one synthetic team with its planted true strength.
type TeamSpec struct {
	ID       string
	Strength float64 // [0,1]; drives simulated outcomes
}

// Match is one simulated season fixture with its known outcome.
type Match struct {
	MatchID string `json:"match_id"`
	TeamA   string `json:"team_a"`
	TeamB   string `json:"team_b"`
	ScoreA  int    `json:"score_a"`
	ScoreB  int    `json:"score_b"`
}

// Stats aggregates counters across a run.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	MatchesGenerated     int
	PredictionsRequested int
	PredictionsFailed    int
	ResultsSubmitted     int
	ResultsSuccessful    int
	ResultsDuplicate     int
	ResultsFailed        int
	RankingsRetrieved    int
	CalibrationSamples   int
}
