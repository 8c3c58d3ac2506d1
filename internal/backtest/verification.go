package backtest

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// Verification thresholds.
const (
	// maxDisagreement caps the fraction of team pairs whose ranking order
	// contradicts the planted strength order. Random outcomes leave some
	// noise even in a long season.
	maxDisagreement = 0.35
)

// verifyResults checks the service's learned state against the planted truth.
func verifyResults(ctx context.Context, config *Config, teams []TeamSpec, rankings []RankingEntry, report *CalibrationSummary) error {
	log.Println("verifying results...")

	if len(rankings) == 0 {
		return fmt.Errorf("no rankings to verify")
	}
	if len(rankings) != len(teams) {
		return fmt.Errorf("expected %d ranked teams, got %d", len(teams), len(rankings))
	}

	// Rankings must be sorted by rating descending.
	for i := 1; i < len(rankings); i++ {
		if rankings[i].Rating > rankings[i-1].Rating {
			return fmt.Errorf("rankings not sorted: entry %d outrates entry %d", i, i-1)
		}
	}

	disagreement := rankDisagreement(teams, rankings)
	if disagreement > maxDisagreement {
		return fmt.Errorf("rankings disagree with planted strengths on %.0f%% of pairs (max %.0f%%)",
			disagreement*PercentageMultiplier, maxDisagreement*PercentageMultiplier)
	}
	log.Printf("rankings agree with planted strengths (%.0f%% pair disagreement)", disagreement*PercentageMultiplier)

	if report != nil {
		if report.SampleCount == 0 {
			return fmt.Errorf("calibration report has no samples")
		}
		log.Printf("calibration: %d samples, bias %+.3f, mae %.3f", report.SampleCount, report.Bias, report.MAE)
	}

	displayStandings(teams, rankings, config.Verbose)

	log.Println("verification completed")
	return nil
}

// rankDisagreement is the fraction of team pairs whose learned rating order
// contradicts the planted strength order.
func rankDisagreement(teams []TeamSpec, rankings []RankingEntry) float64 {
	strength := make(map[string]float64, len(teams))
	for _, t := range teams {
		strength[t.ID] = t.Strength
	}

	pairs, inversions := 0, 0
	for i := 0; i < len(rankings); i++ {
		for j := i + 1; j < len(rankings); j++ {
			pairs++
			// rankings[i] outranks rankings[j]; the planted truth should agree.
			if strength[rankings[i].EntityID] < strength[rankings[j].EntityID] {
				inversions++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(inversions) / float64(pairs)
}

// displayStandings shows the learned table next to the planted strengths.
func displayStandings(teams []TeamSpec, rankings []RankingEntry, verbose bool) {
	strength := make(map[string]float64, len(teams))
	for _, t := range teams {
		strength[t.ID] = t.Strength
	}

	topN := 10
	if len(rankings) < topN {
		topN = len(rankings)
	}

	log.Printf("top %d of the learned table:", topN)
	for i := 0; i < topN; i++ {
		entry := rankings[i]
		log.Printf("   %d. %s - rating %.0f (%d games, planted strength %.2f)",
			i+1, entry.EntityID, entry.Rating, entry.GamesPlayed, strength[entry.EntityID])
	}

	if verbose {
		sorted := make([]TeamSpec, len(teams))
		copy(sorted, teams)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Strength > sorted[j].Strength
		})
		log.Println("planted strength order:")
		for i, t := range sorted {
			log.Printf("   %d. %s - strength %.2f", i+1, t.ID, t.Strength)
		}
	}
}
