// Package simulation runs round-level Monte Carlo trials of a match from a
// fused win probability. Each trial plays rounds to the target score with a
// momentum adjustment; trials are independent and sharded across goroutines.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTrials = 10000

	targetScore        = 13
	overtimeTrigger    = 12
	maxSimulatedRounds = 60

	initialMomentum     = 0.5
	defaultMomentumGain = 0.05
	defaultMomentumLoss = 0.03

	momentumFactor     = 0.1
	lateMomentumFactor = 0.15
	lateRoundScore     = 10

	// Every sixth round is a low-stakes economy round: the per-round
	// probability is pulled partway back toward a coin flip.
	economyInterval = 6
	economyPull     = 0.2

	roundProbFloor   = 0.1
	roundProbCeiling = 0.9
)

// Result aggregates all trials of one simulated match.
type Result struct {
	Trials            int            `json:"trials"`
	WinProbabilityA   float64        `json:"win_probability_a"`
	WinProbabilityB   float64        `json:"win_probability_b"`
	ExpectedScoreA    float64        `json:"expected_score_a"`
	ExpectedScoreB    float64        `json:"expected_score_b"`
	ScoreDistribution map[string]int `json:"score_distribution"`
	RoundCurve        []float64      `json:"round_curve"`
	Confidence        float64        `json:"confidence"`
}

// Engine is a configured simulator. Safe for concurrent use; each Run call
// derives its random streams from the configured seed.
type Engine struct {
	trials       int
	shards       int
	seed         int64
	momentumGain float64
	momentumLoss float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrials sets the number of independent full-game trials.
func WithTrials(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.trials = n
		}
	}
}

// WithShards sets the worker fan-out. Defaults to GOMAXPROCS.
func WithShards(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.shards = n
		}
	}
}

// WithSeed fixes the random seed, making runs reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithMomentumSteps sets the per-round momentum gain for the round winner
// and decay for the loser. Negative values are ignored; zero for both turns
// momentum off entirely.
func WithMomentumSteps(gain, loss float64) Option {
	return func(e *Engine) {
		if gain >= 0 {
			e.momentumGain = gain
		}
		if loss >= 0 {
			e.momentumLoss = loss
		}
	}
}

// New builds an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		trials:       defaultTrials,
		shards:       runtime.GOMAXPROCS(0),
		seed:         rand.Int63(),
		momentumGain: defaultMomentumGain,
		momentumLoss: defaultMomentumLoss,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.shards > e.trials {
		e.shards = e.trials
	}
	return e
}

// shardAgg is one worker's share of the tally. Workers never share state;
// aggregation happens after all of them return.
type shardAgg struct {
	winsA       int
	scoreSumA   int
	scoreSumB   int
	scoreCounts map[string]int
}

// Run simulates the match from the fused side-A win probability and reduces
// all trials into one Result. Cancelled contexts abandon remaining shards.
func (e *Engine) Run(ctx context.Context, baseProbA float64) (Result, error) {
	if baseProbA < 0 || baseProbA > 1 {
		return Result{}, fmt.Errorf("simulation: base probability %v out of range", baseProbA)
	}

	aggs := make([]shardAgg, e.shards)
	perShard := e.trials / e.shards
	remainder := e.trials % e.shards

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.shards; i++ {
		shard := i
		n := perShard
		if shard < remainder {
			n++
		}
		g.Go(func() error {
			rng := rand.New(rand.NewSource(e.seed + int64(shard)))
			agg := shardAgg{scoreCounts: make(map[string]int)}
			for t := 0; t < n; t++ {
				if t%1024 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}
				scoreA, scoreB := e.playGame(rng, baseProbA)
				if scoreA > scoreB {
					agg.winsA++
				}
				agg.scoreSumA += scoreA
				agg.scoreSumB += scoreB
				agg.scoreCounts[fmt.Sprintf("%d-%d", scoreA, scoreB)]++
			}
			aggs[shard] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result := Result{
		Trials:            e.trials,
		ScoreDistribution: make(map[string]int),
		RoundCurve:        e.roundCurve(baseProbA),
	}
	var winsA, sumA, sumB int
	for _, agg := range aggs {
		winsA += agg.winsA
		sumA += agg.scoreSumA
		sumB += agg.scoreSumB
		for score, count := range agg.scoreCounts {
			result.ScoreDistribution[score] += count
		}
	}
	trials := float64(e.trials)
	result.WinProbabilityA = float64(winsA) / trials
	result.WinProbabilityB = 1 - result.WinProbabilityA
	result.ExpectedScoreA = float64(sumA) / trials
	result.ExpectedScoreB = float64(sumB) / trials
	result.Confidence = sampleConfidence(result.WinProbabilityA, e.trials)
	return result, nil
}

// playGame runs one full trial: rounds to 13 with a 2-point lead, momentum
// nudging the per-round probability, and a base-probability overtime once
// tied at 12-12.
func (e *Engine) playGame(rng *rand.Rand, baseProbA float64) (scoreA, scoreB int) {
	momentumA, momentumB := initialMomentum, initialMomentum

	for round := 1; round <= maxSimulatedRounds; round++ {
		if scoreA == overtimeTrigger && scoreB == overtimeTrigger {
			return playOvertime(rng, baseProbA, scoreA, scoreB)
		}

		p := roundProbability(baseProbA, momentumA, momentumB, scoreA, scoreB, round)
		if rng.Float64() < p {
			scoreA++
			momentumA = min1(momentumA + e.momentumGain)
			momentumB = max0(momentumB - e.momentumLoss)
		} else {
			scoreB++
			momentumB = min1(momentumB + e.momentumGain)
			momentumA = max0(momentumA - e.momentumLoss)
		}

		if scoreA >= targetScore && scoreA-scoreB >= 2 {
			return scoreA, scoreB
		}
		if scoreB >= targetScore && scoreB-scoreA >= 2 {
			return scoreA, scoreB
		}
	}
	return scoreA, scoreB
}

// playOvertime decides the tied game on the unmodified base probability:
// from a tie, the first decided round produces a lead.
func playOvertime(rng *rand.Rand, baseProbA float64, scoreA, scoreB int) (int, int) {
	if rng.Float64() < baseProbA {
		return scoreA + 1, scoreB
	}
	return scoreA, scoreB + 1
}

// roundProbability applies the momentum differential, with a larger swing in
// late rounds, then dampens economy rounds toward 0.5.
func roundProbability(base, momentumA, momentumB float64, scoreA, scoreB, round int) float64 {
	factor := momentumFactor
	if scoreA >= lateRoundScore || scoreB >= lateRoundScore {
		factor = lateMomentumFactor
	}
	p := base + (momentumA-momentumB)*factor
	if round%economyInterval == 0 {
		p += (0.5 - p) * economyPull
	}
	if p < roundProbFloor {
		return roundProbFloor
	}
	if p > roundProbCeiling {
		return roundProbCeiling
	}
	return p
}

// roundCurve is the analytic per-round expected probability for side A,
// assuming expected momentum drift, computed alongside the sampled trials
// for diagnostic display.
func (e *Engine) roundCurve(baseProbA float64) []float64 {
	curve := make([]float64, 0, targetScore*2)
	momentumA, momentumB := initialMomentum, initialMomentum
	for round := 1; round <= targetScore*2; round++ {
		p := baseProbA + (momentumA-momentumB)*momentumFactor
		if round%economyInterval == 0 {
			p += (0.5 - p) * economyPull
		}
		if p < roundProbFloor {
			p = roundProbFloor
		}
		if p > roundProbCeiling {
			p = roundProbCeiling
		}
		curve = append(curve, p)

		// Expected momentum drift: the winner's gain and loser's decay,
		// weighted by the round probability.
		momentumA = min1(max0(momentumA + p*e.momentumGain - (1-p)*e.momentumLoss))
		momentumB = min1(max0(momentumB + (1-p)*e.momentumGain - p*e.momentumLoss))
	}
	return curve
}

// sampleConfidence reflects how decisive the simulated outcome is and how
// large the sample was.
func sampleConfidence(winRateA float64, trials int) float64 {
	decisiveness := 2 * abs(winRateA-0.5)
	sampleTrust := float64(trials) / defaultTrials
	if sampleTrust > 1 {
		sampleTrust = 1
	}
	conf := 0.5 + 0.4*decisiveness*sampleTrust
	if conf > 0.95 {
		return 0.95
	}
	return conf
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
