package simulation

import (
	"fmt"
	"math"

	"github.com/playsight/prophet/internal/domain/model"
)

const (
	baseCaseLikelihood       = 0.40
	momentumSwingLikelihood  = 0.25
	adaptationLikelihood     = 0.20
	highVolatilityLikelihood = 0.15

	momentumSwingShift = 0.05
	adaptationShift    = -0.03

	// Risk thresholds.
	coinFlipBand      = 0.08
	volatileMarginDev = 6.0
)

// Scenarios derives the named outcome cases as fixed perturbations of the
// fused probability. Likelihoods are subjective weights, not probabilities
// of the scenarios themselves.
func Scenarios(baseProbA float64) []model.Scenario {
	clamped := func(p float64) float64 {
		if p < roundProbFloor {
			return roundProbFloor
		}
		if p > roundProbCeiling {
			return roundProbCeiling
		}
		return p
	}
	return []model.Scenario{
		{
			Name:           "base_case",
			WinProbability: clamped(baseProbA),
			Likelihood:     baseCaseLikelihood,
			Description:    "both teams perform at current form",
		},
		{
			Name:           "momentum_swing",
			WinProbability: clamped(baseProbA + momentumSwingShift),
			Likelihood:     momentumSwingLikelihood,
			Description:    "early rounds fall to the favorite and snowball",
		},
		{
			Name:           "adaptation",
			WinProbability: clamped(baseProbA + adaptationShift),
			Likelihood:     adaptationLikelihood,
			Description:    "the underdog adapts mid-match and claws back rounds",
		},
		{
			Name:           "high_volatility",
			WinProbability: 0.5,
			Likelihood:     highVolatilityLikelihood,
			Description:    "eco wins and hero plays randomize the outcome",
		},
	}
}

// RiskFactors flags conditions under which the point prediction should be
// read with caution.
func RiskFactors(result Result, bestOf int) []string {
	var risks []string
	if diff := abs(result.WinProbabilityA - 0.5); diff <= coinFlipBand {
		risks = append(risks, "near coin flip: teams are closely matched")
	}
	if dev := marginDeviation(result); dev >= volatileMarginDev {
		risks = append(risks, "high variance: simulated scorelines spread widely")
	}
	if bestOf <= 1 {
		risks = append(risks, "single map: no room to recover from a bad start")
	}
	return risks
}

// marginDeviation is the standard deviation of the simulated round margin
// (scoreA - scoreB), reconstructed from the score distribution.
func marginDeviation(result Result) float64 {
	if result.Trials == 0 || len(result.ScoreDistribution) == 0 {
		return 0
	}
	var sum, sumSq float64
	var n int
	for score, count := range result.ScoreDistribution {
		var a, b int
		if _, err := fmt.Sscanf(score, "%d-%d", &a, &b); err != nil {
			continue
		}
		margin := float64(a - b)
		sum += margin * float64(count)
		sumSq += margin * margin * float64(count)
		n += count
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
