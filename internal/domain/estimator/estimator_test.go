package estimator_test

import (
	"testing"

	"github.com/playsight/prophet/internal/domain/estimator"
	"github.com/playsight/prophet/internal/domain/feature"
	"github.com/playsight/prophet/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromRating(t *testing.T) {
	Convey("Given a rating prediction", t, func() {
		Convey("When both sides are well observed", func() {
			est := estimator.FromRating(rating.Prediction{ProbA: 0.7, ProbB: 0.3}, 30, 25)

			Convey("Then the probability passes through with full trust", func() {
				So(est.Name, ShouldEqual, estimator.NameRating)
				So(est.Probability, ShouldAlmostEqual, 0.7, 1e-9)
				So(est.Confidence, ShouldAlmostEqual, 0.9, 1e-9)
			})
		})

		Convey("When one side is unobserved", func() {
			est := estimator.FromRating(rating.Prediction{ProbA: 0.7, ProbB: 0.3}, 30, 0)

			Convey("Then confidence drops to its base", func() {
				So(est.Confidence, ShouldAlmostEqual, 0.4, 1e-9)
			})
		})

		Convey("When the prediction is extreme", func() {
			est := estimator.FromRating(rating.Prediction{ProbA: 0.99, ProbB: 0.01}, 50, 50)

			Convey("Then the output is clamped below certainty", func() {
				So(est.Probability, ShouldEqual, 0.95)
			})
		})
	})
}

func TestFromStats(t *testing.T) {
	Convey("Given season win rates", t, func() {
		Convey("When both teams have large identical samples", func() {
			est := estimator.FromStats(0.8, 0.4, 40, 40)

			Convey("Then the full spread applies", func() {
				So(est.Probability, ShouldAlmostEqual, 0.7, 1e-9)
			})
		})

		Convey("When the sample is tiny", func() {
			est := estimator.FromStats(1.0, 0.0, 2, 3)

			Convey("Then log damping keeps the output modest", func() {
				So(est.Probability, ShouldBeLessThan, 0.7)
				So(est.Probability, ShouldBeGreaterThan, 0.5)
			})
		})

		Convey("When win rates are equal", func() {
			est := estimator.FromStats(0.6, 0.6, 20, 20)
			So(est.Probability, ShouldEqual, 0.5)
		})

		Convey("When neither side has games", func() {
			est := estimator.FromStats(0, 0, 0, 0)

			Convey("Then the estimate is neutral with base confidence", func() {
				So(est.Probability, ShouldEqual, 0.5)
				So(est.Confidence, ShouldAlmostEqual, 0.3, 1e-9)
			})
		})
	})
}

func TestFromTrend(t *testing.T) {
	Convey("Given form signals for both sides", t, func() {
		Convey("When signals are identical", func() {
			est := estimator.FromTrend(feature.NeutralSignals(), feature.NeutralSignals())
			So(est.Probability, ShouldEqual, 0.5)
		})

		Convey("When side A is surging and B is slumping", func() {
			a := feature.Signals{WinRate: 0.6, RecentWinRate: 0.9, WinRateTrend: 1, Streak: 5}
			b := feature.Signals{WinRate: 0.5, RecentWinRate: 0.2, WinRateTrend: -1, Streak: -4}
			est := estimator.FromTrend(a, b)

			Convey("Then adjustments stack but each stays bounded", func() {
				// trend 0.2 + streak capped 0.08 + recent 0.14
				So(est.Probability, ShouldAlmostEqual, 0.92, 1e-9)
			})
		})

		Convey("When the streak gap is enormous", func() {
			a := feature.Signals{Streak: 20}
			b := feature.Signals{Streak: -20}
			est := estimator.FromTrend(a, b)

			Convey("Then the streak shift is capped", func() {
				So(est.Probability, ShouldAlmostEqual, 0.58, 1e-9)
			})
		})
	})
}

func TestFromGraphAndMeta(t *testing.T) {
	Convey("Given synergy and meta differentials", t, func() {
		Convey("When differentials are zero", func() {
			So(estimator.FromGraph(0.5, 0.5).Probability, ShouldEqual, 0.5)
			So(estimator.FromMeta(0.5, 0.5).Probability, ShouldEqual, 0.5)
		})

		Convey("When side A holds the maximum edge", func() {
			g := estimator.FromGraph(1, 0)
			m := estimator.FromMeta(1, 0)

			Convey("Then sensitivity 0.3 applies and stays inside the soft clamp", func() {
				So(g.Probability, ShouldAlmostEqual, 0.8, 1e-9)
				So(m.Probability, ShouldAlmostEqual, 0.8, 1e-9)
			})
		})

		Convey("When inputs are out of range", func() {
			g := estimator.FromGraph(5, -5)

			Convey("Then the soft clamp holds", func() {
				So(g.Probability, ShouldEqual, 0.9)
			})
		})

		Convey("Then complements mirror around 0.5", func() {
			ab := estimator.FromGraph(0.8, 0.2)
			ba := estimator.FromGraph(0.2, 0.8)
			So(ab.Probability+ba.Probability, ShouldAlmostEqual, 1.0, 1e-9)
		})
	})
}
