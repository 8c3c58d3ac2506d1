package feature

import (
	"math"

	"github.com/playsight/prophet/internal/domain/model"
)

// Signal computation constants.
const (
	trendWindow       = 3    // recent matches in the rolling win-rate window
	recentWindow      = 5    // recent matches for the recent win rate
	maxRoundsPerMatch = 30.0 // tempo normalization ceiling
	blowoutMargin     = 4    // score margin that counts as a dominant win
	closeMargin       = 2    // score margin that counts as a close loss
)

// Signals are derived match-history indicators feeding the trend estimator.
type Signals struct {
	WinRate             float64 `json:"win_rate"`
	RecentWinRate       float64 `json:"recent_win_rate"`
	WinRateTrend        float64 `json:"win_rate_trend"` // [-1,1]; >0 improving
	TempoScore          float64 `json:"tempo_score"`
	ComebackProbability float64 `json:"comeback_probability"`
	Streak              int     `json:"streak"` // consecutive wins (+) or losses (-)
}

// NeutralSignals is what an empty history yields.
func NeutralSignals() Signals {
	return Signals{
		WinRate:             neutral,
		RecentWinRate:       neutral,
		TempoScore:          neutral,
		ComebackProbability: neutral,
	}
}

// HistorySignals derives form indicators from a team's recent matches.
// Matches are expected newest-first; an empty history is neutral.
func HistorySignals(matches []model.MatchRecord) Signals {
	if len(matches) == 0 {
		return NeutralSignals()
	}

	s := Signals{}
	wins := 0
	for _, m := range matches {
		if m.Won {
			wins++
		}
	}
	s.WinRate = float64(wins) / float64(len(matches))

	s.RecentWinRate = windowWinRate(matches, recentWindow)
	s.WinRateTrend = clampRange(windowWinRate(matches, trendWindow)-s.WinRate, -1, 1)
	s.TempoScore = tempoScore(matches)
	s.ComebackProbability = comebackProbability(matches)
	s.Streak = streak(matches)
	return s
}

func windowWinRate(matches []model.MatchRecord, window int) float64 {
	if window > len(matches) {
		window = len(matches)
	}
	wins := 0
	for _, m := range matches[:window] {
		if m.Won {
			wins++
		}
	}
	return float64(wins) / float64(window)
}

// tempoScore maps short, stomp-heavy matches toward 1 and long grinds toward 0.
func tempoScore(matches []model.MatchRecord) float64 {
	var sum float64
	count := 0
	for _, m := range matches {
		total := m.ScoreFor + m.ScoreAgainst
		if total <= 0 {
			continue
		}
		sum += 1 - float64(total)/maxRoundsPerMatch
		count++
	}
	if count == 0 {
		return neutral
	}
	return clamp01(sum / float64(count))
}

// comebackProbability is the share of dominant wins among dominant wins and
// close losses. Neither occurring is neutral.
func comebackProbability(matches []model.MatchRecord) float64 {
	dominant, total := 0, 0
	for _, m := range matches {
		margin := m.ScoreFor - m.ScoreAgainst
		if m.Won && margin >= blowoutMargin {
			dominant++
			total++
		}
		if !m.Won && -margin <= closeMargin {
			total++
		}
	}
	if total == 0 {
		return neutral
	}
	return float64(dominant) / float64(total)
}

func streak(matches []model.MatchRecord) int {
	if len(matches) == 0 {
		return 0
	}
	dir := 1
	if !matches[0].Won {
		dir = -1
	}
	n := 0
	for _, m := range matches {
		if m.Won != matches[0].Won {
			break
		}
		n++
	}
	return dir * n
}

func clampRange(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
