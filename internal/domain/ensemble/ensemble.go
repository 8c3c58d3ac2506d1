// Package ensemble fuses the individual estimator outputs into a single
// probability plus an agreement-based confidence score.
package ensemble

import (
	"math"

	"github.com/playsight/prophet/internal/domain/estimator"
)

const (
	minConfidence = 0.3
	maxConfidence = 0.95

	// Disagreement penalty: one unit of estimator standard deviation costs
	// two units of confidence.
	disagreementScale = 2

	fallbackWeight = 0.1
)

// DefaultWeights is the fixed policy split across estimators. The values are
// tuned by inspection, not derived; they must sum to 1.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		estimator.NameRating: 0.25,
		estimator.NameStats:  0.30,
		estimator.NameTrend:  0.20,
		estimator.NameGraph:  0.15,
		estimator.NameMeta:   0.10,
	}
}

// Fused is the combined opinion of all estimators.
type Fused struct {
	ProbabilityA float64              `json:"probability_a"`
	ProbabilityB float64              `json:"probability_b"`
	Confidence   float64              `json:"confidence"`
	Weights      map[string]float64   `json:"weights"`
	Inputs       []estimator.Estimate `json:"inputs"`
}

// Fuser combines estimates under a weight policy.
type Fuser struct {
	weights  map[string]float64
	adaptive bool
}

// Option configures a Fuser.
type Option func(*Fuser)

// WithWeights replaces the default weight split. Weights are normalized at
// fuse time, so they need not sum to 1.
func WithWeights(weights map[string]float64) Option {
	return func(f *Fuser) {
		if len(weights) > 0 {
			f.weights = weights
		}
	}
}

// WithAdaptiveWeighting scales each estimator's weight by its self-reported
// confidence before normalizing.
func WithAdaptiveWeighting(enabled bool) Option {
	return func(f *Fuser) { f.adaptive = enabled }
}

// New builds a Fuser with the default weight policy.
func New(opts ...Option) *Fuser {
	f := &Fuser{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fuse computes the weighted mean of the estimates for side A, derives side B
// as the complement, and scores confidence from model agreement. No estimates
// yields a neutral result.
func (f *Fuser) Fuse(estimates []estimator.Estimate) Fused {
	if len(estimates) == 0 {
		return Fused{
			ProbabilityA: 0.5,
			ProbabilityB: 0.5,
			Confidence:   minConfidence,
			Weights:      map[string]float64{},
		}
	}

	weights := f.effectiveWeights(estimates)

	var probA float64
	for _, est := range estimates {
		probA += est.Probability * weights[est.Name]
	}
	probB := 1 - probA

	return Fused{
		ProbabilityA: probA,
		ProbabilityB: probB,
		Confidence:   agreementConfidence(estimates),
		Weights:      weights,
		Inputs:       estimates,
	}
}

// effectiveWeights resolves the per-estimate weights and normalizes them to
// sum to 1. Estimators missing from the policy get a small fallback weight.
func (f *Fuser) effectiveWeights(estimates []estimator.Estimate) map[string]float64 {
	weights := make(map[string]float64, len(estimates))
	var total float64
	for _, est := range estimates {
		w, ok := f.weights[est.Name]
		if !ok {
			w = fallbackWeight
		}
		if f.adaptive {
			w *= est.Confidence
		}
		weights[est.Name] = w
		total += w
	}
	if total <= 0 {
		equal := 1.0 / float64(len(estimates))
		for name := range weights {
			weights[name] = equal
		}
		return weights
	}
	for name := range weights {
		weights[name] /= total
	}
	return weights
}

// agreementConfidence maps the spread of estimator probabilities to a
// confidence score: tight agreement reads as high confidence.
func agreementConfidence(estimates []estimator.Estimate) float64 {
	var mean float64
	for _, est := range estimates {
		mean += est.Probability
	}
	mean /= float64(len(estimates))

	var variance float64
	for _, est := range estimates {
		d := est.Probability - mean
		variance += d * d
	}
	variance /= float64(len(estimates))

	conf := 1 - math.Sqrt(variance)*disagreementScale
	if conf < minConfidence {
		return minConfidence
	}
	if conf > maxConfidence {
		return maxConfidence
	}
	return conf
}
