package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playsight/prophet/internal/domain/ensemble"
	"github.com/playsight/prophet/internal/domain/estimator"
	"github.com/playsight/prophet/internal/domain/feature"
	"github.com/playsight/prophet/internal/domain/graph"
	"github.com/playsight/prophet/internal/domain/model"
	"github.com/playsight/prophet/internal/domain/rating"
	"github.com/playsight/prophet/internal/domain/simulation"
	"github.com/playsight/prophet/pkg/logger"
	"github.com/playsight/prophet/pkg/metrics"
)

// Served probabilities stay inside the calibrated band no matter how
// extreme the estimator inputs are.
const (
	finalProbFloor   = 0.1
	finalProbCeiling = 0.9
)

// teamView is everything the pipeline derives for one side of the match.
type teamView struct {
	id        string
	rating    rating.Rating
	vector    feature.Vector
	signals   feature.Signals
	synergy   float64
	metaAlign float64
}

// Analyze runs the full prediction pipeline for one match context:
// ratings, features, graph metrics, the five estimators, fusion,
// calibration and simulation. Missing data degrades to neutral values
// rather than failing; only an invalid team pair or a cancelled context
// produce an error.
func (s *Service) Analyze(ctx context.Context, mc model.MatchContext) (model.PredictionResult, error) {
	idA := teamIdentity(mc.TeamA)
	idB := teamIdentity(mc.TeamB)
	if idA == "" || idB == "" || idA == idB {
		return model.PredictionResult{}, fmt.Errorf("analyze: invalid team pair %q vs %q", idA, idB)
	}

	viewA := s.teamView(ctx, idA, mc.TeamA, mc.GameTitle, mc.Meta)
	viewB := s.teamView(ctx, idB, mc.TeamB, mc.GameTitle, mc.Meta)

	pred := s.ratings.Predict(ctx, idA, idB)

	estimates := []estimator.Estimate{
		estimator.FromRating(pred, viewA.rating.GamesPlayed, viewB.rating.GamesPlayed),
		estimator.FromStats(viewA.signals.WinRate, viewB.signals.WinRate,
			len(mc.TeamA.RecentMatches), len(mc.TeamB.RecentMatches)),
		estimator.FromTrend(viewA.signals, viewB.signals),
		estimator.FromGraph(viewA.synergy, viewB.synergy),
		estimator.FromMeta(viewA.metaAlign, viewB.metaAlign),
	}

	fused := s.fuser.Fuse(estimates)
	calibrated := clampFinal(s.calibrator.Calibrate(ctx, ensembleModelKey, fused.ProbabilityA))

	simResult, err := s.simulator.Run(ctx, calibrated)
	if err != nil {
		if ctx.Err() != nil {
			return model.PredictionResult{}, fmt.Errorf("analyze %s vs %s: %w", idA, idB, err)
		}
		// Out-of-range base probability cannot happen after calibration
		// clamping; fall back to an analytic-only result.
		s.logger.Warn(ctx, "simulation failed, serving fused probability only",
			logger.String("teamA", idA),
			logger.String("teamB", idB),
			logger.Any("error", err),
		)
		simResult = simulation.Result{
			WinProbabilityA: calibrated,
			WinProbabilityB: 1 - calibrated,
			Confidence:      fused.Confidence,
		}
	}
	metrics.RecordSimulationTrials(simResult.Trials)

	result := model.PredictionResult{
		PredictionID:      uuid.NewString(),
		MatchID:           mc.MatchID,
		TeamA:             idA,
		TeamB:             idB,
		FinalProbabilityA: calibrated,
		FinalProbabilityB: 1 - calibrated,
		Confidence:        fused.Confidence,
		ExpectedScore: model.ExpectedScore{
			TeamA: simResult.ExpectedScoreA,
			TeamB: simResult.ExpectedScoreB,
		},
		ScoreDistribution: simResult.ScoreDistribution,
		Scenarios:         simulation.Scenarios(calibrated),
		KeyFactors:        keyFactors(viewA, viewB, fused),
		RiskFactors:       simulation.RiskFactors(simResult, mc.BestOf),
		GraphMetrics:      s.graphMetrics(ctx, viewA, viewB),
		RatingSnapshot: model.RatingSnapshot{
			RatingA:    viewA.rating.Rating,
			RatingB:    viewB.rating.Rating,
			DeviationA: viewA.rating.Deviation,
			DeviationB: viewB.rating.Deviation,
			GamesA:     viewA.rating.GamesPlayed,
			GamesB:     viewB.rating.GamesPlayed,
		},
		ModelBreakdown:    modelBreakdown(estimates),
		HistoricalContext: mc.HistoricalContext,
		GeneratedAt:       time.Now().UTC(),
	}

	return result, nil
}

// teamView derives the per-side inputs: lazily created rating, merged
// feature vector, history signals, roster synergy and meta alignment.
// Every step has a neutral fallback so a bare team id still produces a
// usable view.
func (s *Service) teamView(ctx context.Context, id string, snap model.TeamSnapshot, gameTitle string, meta *model.MetaState) teamView {
	view := teamView{
		id:      id,
		rating:  s.ratings.Get(ctx, id),
		vector:  feature.Neutral(),
		signals: feature.NeutralSignals(),
	}

	if len(snap.Roster) > 0 {
		vectors := make([]feature.Vector, 0, len(snap.Roster))
		for _, player := range snap.Roster {
			vectors = append(vectors, s.normalizer.Normalize(player.Stats, gameTitle, player.Role))
		}
		view.vector = feature.MergeProfiles(vectors...)
		s.registerRoster(ctx, id, snap.Roster, gameTitle)
	} else if len(snap.Stats) > 0 {
		view.vector = s.normalizer.Normalize(snap.Stats, gameTitle, "")
	}

	if len(snap.RecentMatches) > 0 {
		view.signals = feature.HistorySignals(snap.RecentMatches)
	}

	view.synergy = s.relGraph.SynergyStrength(ctx, id)

	view.metaAlign = view.vector.MetaAlignment
	if meta != nil {
		view.metaAlign = feature.MetaAlignment(view.vector,
			meta.DominantStrategy, rosterRoles(snap.Roster), meta.PickRates)
	}
	return view
}

// rosterRoles collects the non-empty roles declared on a roster.
func rosterRoles(roster []model.PlayerSnapshot) []string {
	roles := make([]string, 0, len(roster))
	for _, player := range roster {
		if role := strings.TrimSpace(player.Role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

// registerRoster mirrors the snapshot roster into the graph so synergy and
// centrality metrics see current membership and embeddings.
func (s *Service) registerRoster(ctx context.Context, teamID string, roster []model.PlayerSnapshot, gameTitle string) {
	s.relGraph.AddNode(ctx, graph.Node{ID: teamID, Type: graph.NodeTeam, Name: teamID})
	playerIDs := make([]string, 0, len(roster))
	for _, player := range roster {
		id := player.ID
		if id == "" {
			id = player.Name
		}
		if id == "" {
			continue
		}
		playerIDs = append(playerIDs, id)
		vec := s.normalizer.Normalize(player.Stats, gameTitle, player.Role)
		s.relGraph.AddNode(ctx, graph.Node{
			ID:   id,
			Type: graph.NodePlayer,
			Name: player.Name,
			Embedding: []float64{
				vec.Skill, vec.Aggression, vec.Macro,
				vec.Adaptability, vec.MetaAlignment, vec.Synergy,
			},
		})
	}
	s.ensureRosterMembership(ctx, teamID, playerIDs)
}

// graphMetrics collects the relationship metrics surfaced on the result.
func (s *Service) graphMetrics(ctx context.Context, viewA, viewB teamView) map[string]float64 {
	return map[string]float64{
		"synergy_a":   viewA.synergy,
		"synergy_b":   viewB.synergy,
		"rivalry":     s.relGraph.RivalryIntensity(ctx, viewA.id, viewB.id),
		"influence_a": s.relGraph.InfluenceScore(ctx, viewA.id),
		"influence_b": s.relGraph.InfluenceScore(ctx, viewB.id),
	}
}

// modelBreakdown exposes each estimator's raw probability by name.
func modelBreakdown(estimates []estimator.Estimate) map[string]float64 {
	breakdown := make(map[string]float64, len(estimates))
	for _, est := range estimates {
		breakdown[est.Name] = est.Probability
	}
	return breakdown
}

// keyFactors turns the strongest pipeline signals into reader-facing notes.
func keyFactors(viewA, viewB teamView, fused ensemble.Fused) []string {
	factors := make([]string, 0, 4)

	gap := viewA.rating.Rating - viewB.rating.Rating
	if math.Abs(gap) >= 50 {
		leader, trailer := viewA.id, viewB.id
		if gap < 0 {
			leader, trailer = viewB.id, viewA.id
		}
		factors = append(factors, fmt.Sprintf("%s holds a %.0f point rating edge over %s",
			leader, math.Abs(gap), trailer))
	}

	for _, view := range []teamView{viewA, viewB} {
		switch {
		case view.signals.Streak >= 3:
			factors = append(factors, fmt.Sprintf("%s rides a %d game win streak", view.id, view.signals.Streak))
		case view.signals.Streak <= -3:
			factors = append(factors, fmt.Sprintf("%s is on a %d game losing skid", view.id, -view.signals.Streak))
		}
	}

	synergyGap := viewA.synergy - viewB.synergy
	if math.Abs(synergyGap) >= 0.15 {
		stronger := viewA.id
		if synergyGap < 0 {
			stronger = viewB.id
		}
		factors = append(factors, fmt.Sprintf("%s shows the stronger roster synergy", stronger))
	}

	if fused.Confidence < 0.5 {
		factors = append(factors, "estimators disagree; treat this prediction with caution")
	}

	return factors
}

// clampFinal bounds the served probability to the calibrated band. Below the
// calibrator's minimum sample count Calibrate is an identity, and the fused
// weighted mean of per-estimator maxima can slightly exceed 0.9.
func clampFinal(p float64) float64 {
	if p < finalProbFloor {
		return finalProbFloor
	}
	if p > finalProbCeiling {
		return finalProbCeiling
	}
	return p
}

func teamIdentity(t model.TeamSnapshot) string {
	if id := strings.TrimSpace(t.ID); id != "" {
		return id
	}
	return strings.TrimSpace(t.Name)
}
