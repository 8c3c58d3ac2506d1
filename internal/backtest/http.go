package backtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a shared timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// Wire shapes, mirrored from the API layer.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type predictionResponse struct {
	PredictionID      string  `json:"prediction_id"`
	FinalProbabilityA float64 `json:"final_probability_a"`
	Confidence        float64 `json:"confidence"`
}

type teamRef struct {
	ID string `json:"id"`
}

type predictionRequest struct {
	MatchID string  `json:"match_id"`
	TeamA   teamRef `json:"team_a"`
	TeamB   teamRef `json:"team_b"`
	BestOf  int     `json:"best_of"`
}

type resultRequest struct {
	MatchID        string  `json:"match_id"`
	TeamA          string  `json:"team_a"`
	TeamB          string  `json:"team_b"`
	ScoreA         int     `json:"score_a"`
	ScoreB         int     `json:"score_b"`
	ModelKey       string  `json:"model_key,omitempty"`
	PredictedProbA float64 `json:"predicted_prob_a,omitempty"`
}

// RankingEntry is one row of GET /api/v1/rankings.
type RankingEntry struct {
	EntityID    string  `json:"entity_id"`
	Rating      float64 `json:"rating"`
	GamesPlayed int     `json:"games_played"`
}

type rankingsResponse struct {
	Count    int            `json:"count"`
	Rankings []RankingEntry `json:"rankings"`
}

// CalibrationSummary is the subset of the calibration report the backtest
// verifies.
type CalibrationSummary struct {
	ModelKey    string  `json:"model_key"`
	SampleCount int     `json:"sample_count"`
	Bias        float64 `json:"bias"`
	MAE         float64 `json:"mae"`
}

// playSeason runs the full predict-then-report cycle for every match using a
// worker pool. Each worker first requests a prediction, then submits the
// known result tagged with the predicted probability so the calibration loop
// closes.
func playSeason(ctx context.Context, config *Config, matches []Match, stats *Stats) error {
	log.Printf("playing %d matches with %d workers...", len(matches), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		predicted  int64
		predFailed int64
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	matchChan := make(chan Match, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for match := range matchChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				probA, err := predictMatch(ctx, client, config.BaseURL, match)
				if err != nil {
					atomic.AddInt64(&predFailed, 1)
					if config.Verbose {
						log.Printf("prediction failed for %s: %v", match.MatchID, err)
					}
				} else {
					atomic.AddInt64(&predicted, 1)
				}

				atomic.AddInt64(&submitted, 1)
				switch submitResult(ctx, client, config.BaseURL, match, probA) {
				case "success":
					atomic.AddInt64(&successful, 1)
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(matchChan)
		for _, match := range matches {
			select {
			case <-ctx.Done():
				return
			case matchChan <- match:
			}
		}
	}()

	wg.Wait()

	stats.PredictionsRequested = int(atomic.LoadInt64(&predicted))
	stats.PredictionsFailed = int(atomic.LoadInt64(&predFailed))
	stats.ResultsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ResultsSuccessful = int(atomic.LoadInt64(&successful))
	stats.ResultsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ResultsFailed = int(atomic.LoadInt64(&failed))

	log.Printf("season played: %d predictions, %d results accepted, %d duplicate, %d failed",
		stats.PredictionsRequested, stats.ResultsSuccessful, stats.ResultsDuplicate, stats.ResultsFailed)
	return nil
}

// predictMatch requests a prediction and returns team A's win probability.
func predictMatch(ctx context.Context, client *HTTPClient, baseURL string, match Match) (float64, error) {
	resp, err := client.Post(ctx, baseURL+"/api/v1/predictions", predictionRequest{
		MatchID: match.MatchID,
		TeamA:   teamRef{ID: match.TeamA},
		TeamB:   teamRef{ID: match.TeamB},
		BestOf:  1,
	})
	if err != nil {
		return 0, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != StatusOK {
		return 0, fmt.Errorf("prediction returned status %d", resp.StatusCode)
	}

	var pred predictionResponse
	if err := json.Unmarshal(body, &pred); err != nil {
		return 0, fmt.Errorf("failed to decode prediction: %w", err)
	}
	return pred.FinalProbabilityA, nil
}

// submitResult reports the known outcome. A zero probability means the
// prediction failed; the result is still submitted, just untagged.
func submitResult(ctx context.Context, client *HTTPClient, baseURL string, match Match, probA float64) string {
	req := resultRequest{
		MatchID: match.MatchID,
		TeamA:   match.TeamA,
		TeamB:   match.TeamB,
		ScoreA:  match.ScoreA,
		ScoreB:  match.ScoreB,
	}
	if probA > 0 {
		req.ModelKey = "ensemble"
		req.PredictedProbA = probA
	}

	resp, err := client.Post(ctx, baseURL+"/api/v1/results", req)
	if err != nil {
		return "failed"
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return "success"
	case StatusOK:
		var ack ackResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}

// fetchRankings retrieves the rating leaderboard.
func fetchRankings(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) ([]RankingEntry, error) {
	url := fmt.Sprintf("%s/api/v1/rankings?limit=%d", config.BaseURL, config.Teams)
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rankings: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("rankings returned status %d", resp.StatusCode)
	}

	var parsed rankingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode rankings: %w", err)
	}
	stats.RankingsRetrieved = parsed.Count
	return parsed.Rankings, nil
}

// fetchCalibration retrieves the ensemble calibration report.
func fetchCalibration(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) (*CalibrationSummary, error) {
	resp, err := client.Get(ctx, config.BaseURL+"/api/v1/calibration/ensemble")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calibration report: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("calibration report returned status %d", resp.StatusCode)
	}

	var report CalibrationSummary
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode calibration report: %w", err)
	}
	stats.CalibrationSamples = report.SampleCount
	return &report, nil
}
