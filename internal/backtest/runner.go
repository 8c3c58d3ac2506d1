package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/playsight/prophet/pkg/logger"
)

// Run executes the complete backtest.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting prediction backtest",
		logger.String("baseURL", config.BaseURL),
		logger.Int("teams", config.Teams),
		logger.Int("roundsPerPair", config.RoundsPerPair),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Plant teams and simulate the season
	teams, matches, err := GenerateSeason(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("season generation failed: %w", err)
	}

	// Step 3: Predict and report every match
	if err := playSeason(ctx, config, matches, stats); err != nil {
		return fmt.Errorf("season playback failed: %w", err)
	}

	// Step 4: Wait for the worker pool to drain
	logger.Get().Info(ctx, "waiting for results to be applied")
	time.Sleep(ProcessingWait)

	client := newHTTPClient(config.Timeout)

	// Step 5: Retrieve rankings
	rankings, err := fetchRankings(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}

	// Step 6: Retrieve the calibration report
	report, err := fetchCalibration(ctx, client, config, stats)
	if err != nil {
		logger.Get().Warn(ctx, "calibration report unavailable", logger.Error(err))
	}

	// Step 7: Verify convergence against the planted truth
	if err := verifyResults(ctx, config, teams, rankings, report); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "backtest completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, matchesPerSecond float64

	if stats.ResultsSubmitted > 0 {
		successRate = float64(stats.ResultsSuccessful) / float64(stats.ResultsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.ResultsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("matchesGenerated", stats.MatchesGenerated),
		logger.Int("predictionsRequested", stats.PredictionsRequested),
		logger.Int("predictionsFailed", stats.PredictionsFailed),
		logger.Int("resultsSubmitted", stats.ResultsSubmitted),
		logger.Int("resultsSuccessful", stats.ResultsSuccessful),
		logger.Int("resultsDuplicate", stats.ResultsDuplicate),
		logger.Int("resultsFailed", stats.ResultsFailed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("calibrationSamples", stats.CalibrationSamples),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("matchesPerSecond", matchesPerSecond))
}
