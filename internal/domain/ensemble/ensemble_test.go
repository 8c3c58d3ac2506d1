package ensemble_test

import (
	"testing"

	"github.com/playsight/prophet/internal/domain/ensemble"
	"github.com/playsight/prophet/internal/domain/estimator"
	. "github.com/smartystreets/goconvey/convey"
)

func allAt(p float64) []estimator.Estimate {
	return []estimator.Estimate{
		{Name: estimator.NameRating, Probability: p, Confidence: 0.8},
		{Name: estimator.NameStats, Probability: p, Confidence: 0.7},
		{Name: estimator.NameTrend, Probability: p, Confidence: 0.5},
		{Name: estimator.NameGraph, Probability: p, Confidence: 0.45},
		{Name: estimator.NameMeta, Probability: p, Confidence: 0.4},
	}
}

func TestFuse(t *testing.T) {
	Convey("Given the default fuser", t, func() {
		f := ensemble.New()

		Convey("When every estimator agrees", func() {
			fused := f.Fuse(allAt(0.7))

			Convey("Then the fused probability matches and confidence is maximal", func() {
				So(fused.ProbabilityA, ShouldAlmostEqual, 0.7, 1e-9)
				So(fused.ProbabilityB, ShouldAlmostEqual, 0.3, 1e-9)
				So(fused.ProbabilityA+fused.ProbabilityB, ShouldAlmostEqual, 1.0, 1e-9)
				So(fused.Confidence, ShouldEqual, 0.95)
			})

			Convey("And the resolved weights sum to 1", func() {
				var total float64
				for _, w := range fused.Weights {
					total += w
				}
				So(total, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When estimators disagree wildly", func() {
			estimates := []estimator.Estimate{
				{Name: estimator.NameRating, Probability: 0.9, Confidence: 0.8},
				{Name: estimator.NameStats, Probability: 0.1, Confidence: 0.7},
				{Name: estimator.NameTrend, Probability: 0.9, Confidence: 0.5},
				{Name: estimator.NameGraph, Probability: 0.1, Confidence: 0.45},
				{Name: estimator.NameMeta, Probability: 0.9, Confidence: 0.4},
			}
			fused := f.Fuse(estimates)

			Convey("Then confidence falls to the floor", func() {
				So(fused.Confidence, ShouldEqual, 0.3)
			})
		})

		Convey("When there are no estimates", func() {
			fused := f.Fuse(nil)

			Convey("Then the result is neutral", func() {
				So(fused.ProbabilityA, ShouldEqual, 0.5)
				So(fused.ProbabilityB, ShouldEqual, 0.5)
				So(fused.Confidence, ShouldEqual, 0.3)
			})
		})

		Convey("When a single strong elo signal arrives with neutral company", func() {
			estimates := allAt(0.5)
			estimates[0].Probability = 0.74
			fused := f.Fuse(estimates)

			Convey("Then the fused result moves but stays moderate", func() {
				// 0.74*0.25 + 0.5*0.75
				So(fused.ProbabilityA, ShouldAlmostEqual, 0.56, 1e-9)
				So(fused.ProbabilityA, ShouldBeBetween, 0.1, 0.9)
			})
		})
	})

	Convey("Given custom weights", t, func() {
		f := ensemble.New(ensemble.WithWeights(map[string]float64{
			estimator.NameRating: 3,
			estimator.NameStats:  1,
		}))

		Convey("When fusing two estimates", func() {
			fused := f.Fuse([]estimator.Estimate{
				{Name: estimator.NameRating, Probability: 0.8, Confidence: 0.8},
				{Name: estimator.NameStats, Probability: 0.4, Confidence: 0.8},
			})

			Convey("Then weights are normalized before the mean", func() {
				// 0.8*0.75 + 0.4*0.25
				So(fused.ProbabilityA, ShouldAlmostEqual, 0.7, 1e-9)
			})
		})
	})

	Convey("Given adaptive weighting", t, func() {
		f := ensemble.New(
			ensemble.WithWeights(map[string]float64{
				estimator.NameRating: 0.5,
				estimator.NameStats:  0.5,
			}),
			ensemble.WithAdaptiveWeighting(true),
		)

		Convey("When one estimator reports much higher confidence", func() {
			fused := f.Fuse([]estimator.Estimate{
				{Name: estimator.NameRating, Probability: 0.8, Confidence: 0.9},
				{Name: estimator.NameStats, Probability: 0.4, Confidence: 0.3},
			})

			Convey("Then the confident estimator dominates the mean", func() {
				// weights 0.45/0.15 -> 0.75/0.25
				So(fused.ProbabilityA, ShouldAlmostEqual, 0.7, 1e-9)
				So(fused.Weights[estimator.NameRating], ShouldAlmostEqual, 0.75, 1e-9)
			})
		})
	})

	Convey("Given an estimate outside the weight policy", t, func() {
		f := ensemble.New(ensemble.WithWeights(map[string]float64{
			estimator.NameRating: 0.9,
		}))

		Convey("When fusing with an unknown estimator name", func() {
			fused := f.Fuse([]estimator.Estimate{
				{Name: estimator.NameRating, Probability: 0.6, Confidence: 0.8},
				{Name: "experimental", Probability: 0.5, Confidence: 0.5},
			})

			Convey("Then the unknown model gets the fallback weight", func() {
				So(fused.Weights["experimental"], ShouldAlmostEqual, 0.1/1.0, 1e-9)
				So(fused.ProbabilityA+fused.ProbabilityB, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})
}
