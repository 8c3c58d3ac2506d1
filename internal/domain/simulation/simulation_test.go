package simulation_test

import (
	"context"
	"testing"

	"github.com/playsight/prophet/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded engine", t, func() {
		engine := simulation.New(
			simulation.WithTrials(10000),
			simulation.WithShards(4),
			simulation.WithSeed(42),
		)

		Convey("When simulating an even match", func() {
			result, err := engine.Run(ctx, 0.5)
			So(err, ShouldBeNil)

			Convey("Then the win rate hovers around a coin flip", func() {
				So(result.WinProbabilityA, ShouldBeBetween, 0.45, 0.55)
				So(result.WinProbabilityA+result.WinProbabilityB, ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("Then scores are plausible round totals", func() {
				So(result.ExpectedScoreA, ShouldBeBetween, 8, 13)
				So(result.ExpectedScoreB, ShouldBeBetween, 8, 13)
				So(result.Trials, ShouldEqual, 10000)
			})

			Convey("Then the distribution accounts for every trial", func() {
				total := 0
				for _, count := range result.ScoreDistribution {
					total += count
				}
				So(total, ShouldEqual, 10000)
			})

			Convey("Then the analytic round curve stays in bounds", func() {
				So(len(result.RoundCurve), ShouldEqual, 26)
				for _, p := range result.RoundCurve {
					So(p, ShouldBeBetweenOrEqual, 0.1, 0.9)
				}
			})
		})

		Convey("When simulating a heavy favorite", func() {
			result, err := engine.Run(ctx, 0.8)
			So(err, ShouldBeNil)

			Convey("Then side A wins the large majority of trials", func() {
				So(result.WinProbabilityA, ShouldBeGreaterThan, 0.9)
				So(result.ExpectedScoreA, ShouldBeGreaterThan, result.ExpectedScoreB)
			})

			Convey("Then confidence exceeds the even-match case", func() {
				even, err := engine.Run(ctx, 0.5)
				So(err, ShouldBeNil)
				So(result.Confidence, ShouldBeGreaterThan, even.Confidence)
			})
		})

		Convey("When running twice with the same seed", func() {
			first, err := engine.Run(ctx, 0.63)
			So(err, ShouldBeNil)
			second, err := engine.Run(ctx, 0.63)
			So(err, ShouldBeNil)

			Convey("Then results are identical", func() {
				So(second.WinProbabilityA, ShouldEqual, first.WinProbabilityA)
				So(second.ExpectedScoreA, ShouldEqual, first.ExpectedScoreA)
				So(second.ScoreDistribution, ShouldResemble, first.ScoreDistribution)
			})
		})

		Convey("When the base probability is out of range", func() {
			_, err := engine.Run(ctx, 1.2)
			So(err, ShouldNotBeNil)
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := engine.Run(cancelled, 0.5)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given differently sharded engines with one seed", t, func() {
		Convey("When trial counts differ by an order of magnitude", func() {
			small := simulation.New(simulation.WithTrials(10000), simulation.WithShards(4), simulation.WithSeed(7))
			large := simulation.New(simulation.WithTrials(100000), simulation.WithShards(4), simulation.WithSeed(7))

			resultSmall, err := small.Run(context.Background(), 0.5)
			So(err, ShouldBeNil)
			resultLarge, err := large.Run(context.Background(), 0.5)
			So(err, ShouldBeNil)

			Convey("Then the win rates converge within a percent", func() {
				So(resultSmall.WinProbabilityA, ShouldAlmostEqual, resultLarge.WinProbabilityA, 0.015)
			})
		})
	})
}

func TestScenarios(t *testing.T) {
	Convey("Given a fused probability", t, func() {
		Convey("When scenarios are derived", func() {
			scenarios := simulation.Scenarios(0.65)

			Convey("Then four named cases cover the likelihood budget", func() {
				So(len(scenarios), ShouldEqual, 4)
				var likelihood float64
				for _, s := range scenarios {
					likelihood += s.Likelihood
					So(s.WinProbability, ShouldBeBetweenOrEqual, 0.1, 0.9)
				}
				So(likelihood, ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("Then the perturbations move in the documented directions", func() {
				So(scenarios[0].WinProbability, ShouldAlmostEqual, 0.65, 1e-9)
				So(scenarios[1].WinProbability, ShouldAlmostEqual, 0.70, 1e-9)
				So(scenarios[2].WinProbability, ShouldAlmostEqual, 0.62, 1e-9)
				So(scenarios[3].WinProbability, ShouldEqual, 0.5)
			})
		})

		Convey("When the base probability sits at an extreme", func() {
			scenarios := simulation.Scenarios(0.88)

			Convey("Then perturbed cases clamp instead of overflowing", func() {
				So(scenarios[1].WinProbability, ShouldEqual, 0.9)
			})
		})
	})
}

func TestRiskFactors(t *testing.T) {
	Convey("Given simulation results", t, func() {
		Convey("When the match is a near coin flip in a best-of-one", func() {
			result := simulation.Result{
				Trials:            100,
				WinProbabilityA:   0.52,
				ScoreDistribution: map[string]int{"13-11": 60, "11-13": 40},
			}
			risks := simulation.RiskFactors(result, 1)

			Convey("Then closeness and format risks are flagged", func() {
				So(len(risks), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When one side dominates a long series", func() {
			result := simulation.Result{
				Trials:            100,
				WinProbabilityA:   0.93,
				ScoreDistribution: map[string]int{"13-4": 70, "13-5": 30},
			}
			risks := simulation.RiskFactors(result, 5)

			Convey("Then no risk is flagged", func() {
				So(risks, ShouldBeEmpty)
			})
		})

		Convey("When scorelines swing between blowouts both ways", func() {
			result := simulation.Result{
				Trials:            100,
				WinProbabilityA:   0.65,
				ScoreDistribution: map[string]int{"13-2": 50, "5-13": 50},
			}
			risks := simulation.RiskFactors(result, 3)

			Convey("Then the variance flag fires", func() {
				So(risks, ShouldContain, "high variance: simulated scorelines spread widely")
			})
		})
	})
}

func TestMomentumSteps(t *testing.T) {
	ctx := context.Background()

	Convey("Given engines differing only in momentum steps", t, func() {
		base := simulation.New(
			simulation.WithTrials(5000),
			simulation.WithShards(2),
			simulation.WithSeed(7),
		)
		flat := simulation.New(
			simulation.WithTrials(5000),
			simulation.WithShards(2),
			simulation.WithSeed(7),
			simulation.WithMomentumSteps(0, 0),
		)

		Convey("When simulating a favorite with both", func() {
			withMomentum, err := base.Run(ctx, 0.65)
			So(err, ShouldBeNil)
			without, err := flat.Run(ctx, 0.65)
			So(err, ShouldBeNil)

			Convey("Then the steps change the sampled outcome", func() {
				So(withMomentum.WinProbabilityA, ShouldNotEqual, without.WinProbabilityA)
			})
		})

		Convey("When momentum is disabled on an even match", func() {
			result, err := flat.Run(ctx, 0.5)
			So(err, ShouldBeNil)

			Convey("Then rounds stay a pure coin flip", func() {
				So(result.WinProbabilityA, ShouldBeBetween, 0.45, 0.55)
				for _, p := range result.RoundCurve {
					So(p, ShouldAlmostEqual, 0.5, 1e-9)
				}
			})
		})
	})
}
