package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/playsight/prophet/internal/app"
	"github.com/playsight/prophet/internal/domain/calibration"
	"github.com/playsight/prophet/internal/domain/ensemble"
	"github.com/playsight/prophet/internal/domain/estimator"
	"github.com/playsight/prophet/internal/domain/model"
	"github.com/playsight/prophet/internal/domain/simulation"
	"github.com/playsight/prophet/pkg/logger"
)

func newStartedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	_ = logger.Init()

	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(128),
		service.WithSimulationOptions(
			simulation.WithTrials(2000),
			simulation.WithSeed(42),
		),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestServiceLifecycle(t *testing.T) {
	convey.Convey("Given a new service", t, func() {
		svc := newStartedService(t)

		convey.Convey("When started, stats report the running state", func() {
			stats := svc.GetStats()

			convey.So(stats["started"], convey.ShouldBeTrue)
			convey.So(stats["workerCount"], convey.ShouldEqual, 2)
			convey.So(stats["queueLength"], convey.ShouldEqual, 0)
		})

		convey.Convey("When started twice, the second start is a no-op", func() {
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestApplyResult(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		event := model.ResultEvent{
			MatchID:  "match-1",
			TeamA:    "alpha",
			TeamB:    "bravo",
			ScoreA:   13,
			ScoreB:   7,
			PlayersA: []string{"p1", "p2", "p3"},
			PlayersB: []string{"q1", "q2", "q3"},
			PlayedAt: time.Now(),
		}

		convey.Convey("When a result is applied", func() {
			applied, err := svc.ApplyResult(ctx, event)

			convey.So(err, convey.ShouldBeNil)
			convey.So(applied, convey.ShouldBeTrue)

			convey.Convey("Then the winner leads the rankings", func() {
				rankings := svc.Rankings(ctx)

				convey.So(len(rankings), convey.ShouldEqual, 2)
				convey.So(rankings[0].EntityID, convey.ShouldEqual, "alpha")
				convey.So(rankings[0].Rating, convey.ShouldBeGreaterThan, rankings[1].Rating)
				convey.So(rankings[0].GamesPlayed, convey.ShouldEqual, 1)
			})

			convey.Convey("And the stats expose the graph growth", func() {
				stats := svc.GetStats()

				convey.So(stats["ratedEntities"], convey.ShouldEqual, 2)
				convey.So(stats["graphNodes"].(int), convey.ShouldBeGreaterThanOrEqualTo, 8)
				convey.So(stats["graphEdges"].(int), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When the result carries a prediction, the calibrator records it", func() {
			tracked := event
			tracked.ModelKey = "ensemble"
			tracked.PredictedProbA = 0.7

			_, err := svc.ApplyResult(ctx, tracked)

			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["calibrationSamples"], convey.ShouldEqual, 1)
		})

		convey.Convey("When the team pair is invalid, apply fails", func() {
			bad := event
			bad.TeamB = bad.TeamA

			applied, err := svc.ApplyResult(ctx, bad)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(applied, convey.ShouldBeFalse)
		})
	})
}

func TestRecordResult(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		event := model.ResultEvent{
			MatchID: "match-42",
			TeamA:   "alpha",
			TeamB:   "bravo",
			ScoreA:  13,
			ScoreB:  11,
		}

		convey.Convey("When a result is recorded", func() {
			convey.So(svc.RecordResult(ctx, event), convey.ShouldBeTrue)

			convey.Convey("Then workers apply it to the rating store", func() {
				applied := waitFor(t, 2*time.Second, func() bool {
					return len(svc.Rankings(ctx)) == 2
				})

				convey.So(applied, convey.ShouldBeTrue)
				convey.So(svc.Rankings(ctx)[0].EntityID, convey.ShouldEqual, "alpha")
			})

			convey.Convey("And recording the same match id again is deduplicated", func() {
				convey.So(svc.RecordResult(ctx, event), convey.ShouldBeTrue)

				waitFor(t, 2*time.Second, func() bool {
					return len(svc.Rankings(ctx)) == 2
				})
				applied := waitFor(t, 250*time.Millisecond, func() bool {
					rankings := svc.Rankings(ctx)
					return len(rankings) == 2 && rankings[0].GamesPlayed > 1
				})

				convey.So(applied, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a result has no match id, one is generated", func() {
			anon := event
			anon.MatchID = ""

			convey.So(svc.RecordResult(ctx, anon), convey.ShouldBeTrue)
			convey.So(svc.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}

func TestAnalyze(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		convey.Convey("When analyzing two unknown teams", func() {
			result, err := svc.Analyze(ctx, model.MatchContext{
				GameTitle: "valorant",
				TeamA:     model.TeamSnapshot{ID: "alpha"},
				TeamB:     model.TeamSnapshot{ID: "bravo"},
				BestOf:    3,
			})

			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the prediction is neutral and well formed", func() {
				convey.So(result.PredictionID, convey.ShouldNotBeEmpty)
				convey.So(result.FinalProbabilityA, convey.ShouldAlmostEqual, 0.5, 0.05)
				convey.So(result.FinalProbabilityA+result.FinalProbabilityB, convey.ShouldAlmostEqual, 1.0)
				convey.So(result.Confidence, convey.ShouldBeBetweenOrEqual, 0.3, 0.95)
				convey.So(len(result.ModelBreakdown), convey.ShouldEqual, 5)
				convey.So(len(result.Scenarios), convey.ShouldEqual, 4)
				convey.So(result.RatingSnapshot.RatingA, convey.ShouldAlmostEqual, 1200)
			})
		})

		convey.Convey("When one side is demonstrably stronger", func() {
			for i, score := range []int{7, 9, 5, 8} {
				_, err := svc.ApplyResult(ctx, model.ResultEvent{
					MatchID: "warmup-" + string(rune('a'+i)),
					TeamA:   "alpha",
					TeamB:   "bravo",
					ScoreA:  13,
					ScoreB:  score,
				})
				convey.So(err, convey.ShouldBeNil)
			}

			history := []model.MatchRecord{
				{Won: true, ScoreFor: 13, ScoreAgainst: 7},
				{Won: true, ScoreFor: 13, ScoreAgainst: 9},
				{Won: true, ScoreFor: 13, ScoreAgainst: 5},
			}
			losses := []model.MatchRecord{
				{Won: false, ScoreFor: 7, ScoreAgainst: 13},
				{Won: false, ScoreFor: 9, ScoreAgainst: 13},
				{Won: false, ScoreFor: 5, ScoreAgainst: 13},
			}

			result, err := svc.Analyze(ctx, model.MatchContext{
				GameTitle:         "valorant",
				MatchID:           "grand-final",
				TeamA:             model.TeamSnapshot{ID: "alpha", RecentMatches: history},
				TeamB:             model.TeamSnapshot{ID: "bravo", RecentMatches: losses},
				BestOf:            3,
				HistoricalContext: "third meeting this season",
			})

			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the favorite is preferred across the result", func() {
				convey.So(result.FinalProbabilityA, convey.ShouldBeGreaterThan, 0.5)
				convey.So(result.ExpectedScore.TeamA, convey.ShouldBeGreaterThan, result.ExpectedScore.TeamB)
				convey.So(result.RatingSnapshot.RatingA, convey.ShouldBeGreaterThan, result.RatingSnapshot.RatingB)
				convey.So(result.MatchID, convey.ShouldEqual, "grand-final")
				convey.So(result.HistoricalContext, convey.ShouldEqual, "third meeting this season")
				convey.So(len(result.KeyFactors), convey.ShouldBeGreaterThan, 0)
				convey.So(len(result.ScoreDistribution), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When a roster is provided, synergy metrics are surfaced", func() {
			roster := []model.PlayerSnapshot{
				{ID: "p1", Role: "duelist", Stats: map[string]float64{"kd_ratio": 1.3}},
				{ID: "p2", Role: "controller", Stats: map[string]float64{"kd_ratio": 1.1}},
			}

			result, err := svc.Analyze(ctx, model.MatchContext{
				GameTitle: "valorant",
				TeamA:     model.TeamSnapshot{ID: "alpha", Roster: roster},
				TeamB:     model.TeamSnapshot{ID: "bravo"},
			})

			convey.So(err, convey.ShouldBeNil)
			convey.So(result.GraphMetrics, convey.ShouldContainKey, "synergy_a")
			convey.So(result.GraphMetrics, convey.ShouldContainKey, "rivalry")
		})

		convey.Convey("When both sides resolve to the same identity, analyze fails", func() {
			_, err := svc.Analyze(ctx, model.MatchContext{
				TeamA: model.TeamSnapshot{ID: "alpha"},
				TeamB: model.TeamSnapshot{Name: "alpha"},
			})

			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCalibrationReportErrors(t *testing.T) {
	convey.Convey("Given a started service with no recorded outcomes", t, func() {
		svc := newStartedService(t)

		convey.Convey("When requesting a report for an unknown model", func() {
			_, err := svc.CalibrationReport(context.Background(), "ghost")

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err, convey.ShouldWrap, calibration.ErrNoHistory)
		})
	})
}

func TestAnalyzeProbabilityBounds(t *testing.T) {
	convey.Convey("Given a service fused entirely from the stats model", t, func() {
		svc := newStartedService(t,
			service.WithEnsembleOptions(
				ensemble.WithWeights(map[string]float64{
					estimator.NameRating: 0,
					estimator.NameStats:  1,
					estimator.NameTrend:  0,
					estimator.NameGraph:  0,
					estimator.NameMeta:   0,
				}),
				ensemble.WithAdaptiveWeighting(false),
			),
		)
		ctx := context.Background()

		wins := make([]model.MatchRecord, 20)
		losses := make([]model.MatchRecord, 20)
		for i := range wins {
			wins[i] = model.MatchRecord{Won: true, ScoreFor: 13, ScoreAgainst: 5}
			losses[i] = model.MatchRecord{Won: false, ScoreFor: 5, ScoreAgainst: 13}
		}

		convey.Convey("When the histories are as one-sided as they can get", func() {
			result, err := svc.Analyze(ctx, model.MatchContext{
				GameTitle: "valorant",
				TeamA:     model.TeamSnapshot{ID: "alpha", RecentMatches: wins},
				TeamB:     model.TeamSnapshot{ID: "bravo", RecentMatches: losses},
				BestOf:    3,
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the served probability stays inside the calibrated band", func() {
				convey.So(result.ModelBreakdown[estimator.NameStats], convey.ShouldAlmostEqual, 0.95, 1e-9)
				convey.So(result.FinalProbabilityA, convey.ShouldAlmostEqual, 0.9, 1e-9)
				convey.So(result.FinalProbabilityB, convey.ShouldAlmostEqual, 0.1, 1e-9)
				convey.So(result.FinalProbabilityA+result.FinalProbabilityB, convey.ShouldAlmostEqual, 1.0)
			})
		})
	})
}

func TestAnalyzeMetaState(t *testing.T) {
	convey.Convey("Given an aggressive roster against a macro-heavy one", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		mc := model.MatchContext{
			GameTitle: "valorant",
			TeamA: model.TeamSnapshot{
				ID: "alpha",
				Roster: []model.PlayerSnapshot{{
					Name: "ace",
					Role: "duelist",
					Stats: map[string]float64{
						"first_kill_rate": 0.25,
						"kills_per_round": 1.2,
						"multi_kill_rate": 0.3,
					},
				}},
			},
			TeamB: model.TeamSnapshot{
				ID: "bravo",
				Roster: []model.PlayerSnapshot{{
					Name: "anchor",
					Role: "sentinel",
					Stats: map[string]float64{
						"objective_rate": 0.8,
						"utility_damage": 60,
						"trade_rate":     0.4,
					},
				}},
			},
			BestOf: 3,
		}

		convey.Convey("When no meta state accompanies the request", func() {
			result, err := svc.Analyze(ctx, mc)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the meta model sees only stat-derived alignment", func() {
				convey.So(result.ModelBreakdown[estimator.NameMeta], convey.ShouldAlmostEqual, 0.5, 0.02)
			})
		})

		convey.Convey("When the meta favors aggression", func() {
			withMeta := mc
			withMeta.Meta = &model.MetaState{
				GameTitle:        "valorant",
				DominantStrategy: "aggressive entry",
			}
			result, err := svc.Analyze(ctx, withMeta)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the aggressive roster gains in the meta model", func() {
				convey.So(result.ModelBreakdown[estimator.NameMeta], convey.ShouldBeGreaterThan, 0.6)
			})
		})
	})
}
