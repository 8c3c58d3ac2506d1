package backtest

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/playsight/prophet/pkg/logger"
)

// GenerateSeason builds the synthetic teams and the full round-robin
// schedule with simulated outcomes. Outcomes are drawn from the planted
// strengths, so a long enough season separates the field and the service's
// rankings can be checked against the truth.
func GenerateSeason(ctx context.Context, config *Config, stats *Stats) ([]TeamSpec, []Match, error) {
	if config.Teams < 2 {
		return nil, nil, fmt.Errorf("need at least 2 teams, got %d", config.Teams)
	}
	if config.RoundsPerPair < 1 {
		return nil, nil, fmt.Errorf("need at least 1 round per pair, got %d", config.RoundsPerPair)
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	teams := plantTeams(config.Teams, rng)
	matches := playSchedule(teams, config.RoundsPerPair, rng)

	stats.MatchesGenerated = len(matches)
	logger.Get().Info(ctx, "season generated",
		logger.Int("teams", len(teams)),
		logger.Int("matches", len(matches)),
		logger.Int("roundsPerPair", config.RoundsPerPair),
		logger.Any("seed", seed),
	)
	return teams, matches, nil
}

// plantTeams spreads true strengths evenly across the field and shuffles the
// assignment so team ids carry no ordering hint.
func plantTeams(count int, rng *rand.Rand) []TeamSpec {
	strengths := make([]float64, count)
	for i := range strengths {
		frac := float64(i) / float64(count-1)
		strengths[i] = minStrength + strengthSpread*frac
	}
	rng.Shuffle(count, func(i, j int) {
		strengths[i], strengths[j] = strengths[j], strengths[i]
	})

	teams := make([]TeamSpec, count)
	for i := range teams {
		teams[i] = TeamSpec{
			ID:       fmt.Sprintf("team-%02d", i+1),
			Strength: strengths[i],
		}
	}
	return teams
}

// playSchedule simulates every fixture of the round-robin season.
func playSchedule(teams []TeamSpec, roundsPerPair int, rng *rand.Rand) []Match {
	var matches []Match
	seq := 0
	for round := 0; round < roundsPerPair; round++ {
		for i := 0; i < len(teams); i++ {
			for j := i + 1; j < len(teams); j++ {
				seq++
				matches = append(matches, playMatch(seq, teams[i], teams[j], rng))
			}
		}
	}
	rng.Shuffle(len(matches), func(i, j int) {
		matches[i], matches[j] = matches[j], matches[i]
	})
	return matches
}

// playMatch decides a single fixture: the win probability is the Bradley-Terry
// ratio of the planted strengths, the loser score is uniform below the cap.
func playMatch(seq int, a, b TeamSpec, rng *rand.Rand) Match {
	probA := a.Strength / (a.Strength + b.Strength)
	m := Match{
		MatchID: fmt.Sprintf("backtest-%06d", seq),
		TeamA:   a.ID,
		TeamB:   b.ID,
	}
	if rng.Float64() < probA {
		m.ScoreA = winningScore
		m.ScoreB = rng.Intn(maxLoserScore + 1)
	} else {
		m.ScoreB = winningScore
		m.ScoreA = rng.Intn(maxLoserScore + 1)
	}
	return m
}
