// Package estimator holds the independent win-probability models. Each one
// looks at a single slice of the evidence (ratings, raw win rates, recent
// form, roster synergy, meta alignment) and produces a side-A probability
// with a self-reported confidence. Ties and missing evidence resolve to 0.5.
package estimator

import (
	"math"

	"github.com/playsight/prophet/internal/domain/feature"
	"github.com/playsight/prophet/internal/domain/rating"
)

// Estimator names, used as ensemble weight keys and calibration model keys.
const (
	NameRating = "elo"
	NameStats  = "stats"
	NameTrend  = "trend"
	NameGraph  = "graph"
	NameMeta   = "meta"
)

const (
	// No estimator may claim certainty. Signal-poor estimators (graph, meta)
	// get a tighter clamp than the rating and stats models.
	probFloor       = 0.05
	probCeiling     = 0.95
	softProbFloor   = 0.1
	softProbCeiling = 0.9

	// Sample size at which the stats model trusts raw win rates fully.
	statsFullTrustGames = 20
	statsSpread         = 0.5

	trendWeight        = 0.1
	streakStep         = 0.02
	maxStreakShift     = 0.08
	recentFormWeight   = 0.2
	synergySensitivity = 0.3
	metaSensitivity    = 0.3

	// Confidence heuristics. Evidence-backed models scale with sample size,
	// the rest report fixed priors.
	ratingBaseConfidence = 0.4
	ratingConfidenceSpan = 0.5
	statsBaseConfidence  = 0.3
	statsConfidenceSpan  = 0.5
	trendConfidence      = 0.5
	graphConfidence      = 0.45
	metaConfidence       = 0.4
)

// Estimate is one model's opinion on the match.
type Estimate struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

// FromRating passes the rating store's prediction through, with confidence
// growing as both sides accumulate observed games.
func FromRating(pred rating.Prediction, gamesA, gamesB int) Estimate {
	observed := gamesA
	if gamesB < observed {
		observed = gamesB
	}
	trust := float64(observed) / statsFullTrustGames
	if trust > 1 {
		trust = 1
	}
	return Estimate{
		Name:        NameRating,
		Probability: clamp(probFloor, probCeiling, pred.ProbA),
		Confidence:  ratingBaseConfidence + ratingConfidenceSpan*trust,
	}
}

// FromStats compares season win rates, dampened logarithmically so a 3-0
// start does not read as dominance.
func FromStats(winRateA, winRateB float64, gamesA, gamesB int) Estimate {
	observed := gamesA
	if gamesB < observed {
		observed = gamesB
	}
	damp := math.Log(1+float64(observed)) / math.Log(1+statsFullTrustGames)
	if damp > 1 {
		damp = 1
	}
	p := 0.5 + (winRateA-winRateB)*statsSpread*damp
	return Estimate{
		Name:        NameStats,
		Probability: clamp(probFloor, probCeiling, p),
		Confidence:  statsBaseConfidence + statsConfidenceSpan*damp,
	}
}

// FromTrend reads recent form: trend direction, streaks, and the short-window
// win rate. Each component is bounded so no single hot week dominates.
func FromTrend(a, b feature.Signals) Estimate {
	p := 0.5
	p += (a.WinRateTrend - b.WinRateTrend) * trendWeight

	streakShift := float64(a.Streak-b.Streak) * streakStep
	if streakShift > maxStreakShift {
		streakShift = maxStreakShift
	}
	if streakShift < -maxStreakShift {
		streakShift = -maxStreakShift
	}
	p += streakShift

	p += (a.RecentWinRate - b.RecentWinRate) * recentFormWeight

	return Estimate{
		Name:        NameTrend,
		Probability: clamp(probFloor, probCeiling, p),
		Confidence:  trendConfidence,
	}
}

// FromGraph turns the roster synergy differential into a probability.
func FromGraph(synergyA, synergyB float64) Estimate {
	p := 0.5 + (synergyA-synergyB)*synergySensitivity
	return Estimate{
		Name:        NameGraph,
		Probability: clamp(softProbFloor, softProbCeiling, p),
		Confidence:  graphConfidence,
	}
}

// FromMeta turns the meta-alignment differential into a probability.
func FromMeta(alignmentA, alignmentB float64) Estimate {
	p := 0.5 + (alignmentA-alignmentB)*metaSensitivity
	return Estimate{
		Name:        NameMeta,
		Probability: clamp(softProbFloor, softProbCeiling, p),
		Confidence:  metaConfidence,
	}
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
