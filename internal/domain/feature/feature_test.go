package feature_test

import (
	"testing"
	"time"

	"github.com/playsight/prophet/internal/domain/feature"
	"github.com/playsight/prophet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizer_Normalize(t *testing.T) {
	Convey("Given a normalizer with the built-in tables", t, func() {
		n := feature.NewNormalizer()

		Convey("When normalizing empty stats", func() {
			v := n.Normalize(nil, "valorant", "duelist")

			Convey("Then every dimension is neutral", func() {
				So(v, ShouldResemble, feature.Neutral())
			})
		})

		Convey("When normalizing strong raw stats", func() {
			stats := map[string]float64{
				"kills_per_round":  1.1,
				"damage_per_round": 180,
				"win_rate":         0.7,
				"headshot_rate":    0.4,
				"first_kill_rate":  0.2,
				"clutch_rate":      0.4,
			}
			v := n.Normalize(stats, "valorant", "")

			Convey("Then skill lands high but inside [0,1]", func() {
				So(v.Skill, ShouldBeGreaterThan, 0.6)
				So(v.Skill, ShouldBeLessThanOrEqualTo, 1)
			})

			Convey("And synergy stays neutral for the graph to fill in", func() {
				So(v.Synergy, ShouldEqual, 0.5)
			})
		})

		Convey("When values exceed the benchmark range", func() {
			v := n.Normalize(map[string]float64{"kills_per_round": 9.9}, "cs2", "")

			Convey("Then rescaling clamps into [0,1]", func() {
				So(v.Skill, ShouldBeLessThanOrEqualTo, 1)
				So(v.Skill, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})

		Convey("When the same stats carry different roles", func() {
			stats := map[string]float64{
				"first_kill_rate": 0.15,
				"kills_per_round": 0.8,
				"objective_rate":  0.4,
				"utility_damage":  30,
				"trade_rate":      0.2,
				"multi_kill_rate": 0.1,
			}
			duelist := n.Normalize(stats, "valorant", "duelist")
			controller := n.Normalize(stats, "valorant", "controller")

			Convey("Then the duelist is more aggressive and the controller more macro", func() {
				So(duelist.Aggression, ShouldBeGreaterThan, controller.Aggression)
				So(controller.Macro, ShouldBeGreaterThan, duelist.Macro)
			})
		})

		Convey("When the game title is unknown", func() {
			stats := map[string]float64{"kills_per_round": 0.8, "win_rate": 0.6}
			v := n.Normalize(stats, "some-new-title", "some-new-role")

			Convey("Then the GENERAL tables are used and nothing fails", func() {
				So(v.Skill, ShouldBeGreaterThan, 0)
				So(v.Skill, ShouldBeLessThanOrEqualTo, 1)
			})
		})

		Convey("When stats have no benchmark at all", func() {
			custom := feature.NewNormalizer(feature.WithSkillWeights(map[string]map[string]float64{
				feature.GeneralKey: {"exotic_stat": 1.0},
			}))
			v := custom.Normalize(map[string]float64{"exotic_stat": 42}, "x", "")

			Convey("Then the missing benchmark defaults to neutral", func() {
				So(v.Skill, ShouldEqual, 0.5)
			})
		})
	})
}

func TestMergeProfiles(t *testing.T) {
	Convey("Given per-title vectors for the same entity", t, func() {
		a := feature.Vector{Skill: 0.8, Aggression: 0.6, Macro: 0.4, Adaptability: 0.2, MetaAlignment: 0.9, Synergy: 0.5}
		b := feature.Vector{Skill: 0.4, Aggression: 0.2, Macro: 0.8, Adaptability: 0.6, MetaAlignment: 0.1, Synergy: 0.5}

		Convey("When merged", func() {
			m := feature.MergeProfiles(a, b)

			Convey("Then each dimension is the arithmetic mean", func() {
				So(m.Skill, ShouldAlmostEqual, 0.6, 1e-9)
				So(m.Aggression, ShouldAlmostEqual, 0.4, 1e-9)
				So(m.Macro, ShouldAlmostEqual, 0.6, 1e-9)
				So(m.Adaptability, ShouldAlmostEqual, 0.4, 1e-9)
				So(m.MetaAlignment, ShouldAlmostEqual, 0.5, 1e-9)
			})
		})

		Convey("When merging a single vector", func() {
			So(feature.MergeProfiles(a), ShouldResemble, a)
		})

		Convey("When merging nothing", func() {
			So(feature.MergeProfiles(), ShouldResemble, feature.Neutral())
		})
	})
}

func TestHistorySignals(t *testing.T) {
	now := time.Now()
	match := func(won bool, score, against int) model.MatchRecord {
		return model.MatchRecord{Won: won, ScoreFor: score, ScoreAgainst: against, PlayedAt: now}
	}

	Convey("Given no match history", t, func() {
		s := feature.HistorySignals(nil)

		Convey("Then all signals are neutral", func() {
			So(s.WinRate, ShouldEqual, 0.5)
			So(s.TempoScore, ShouldEqual, 0.5)
			So(s.ComebackProbability, ShouldEqual, 0.5)
			So(s.WinRateTrend, ShouldEqual, 0)
			So(s.Streak, ShouldEqual, 0)
		})
	})

	Convey("Given a team on an improving run", t, func() {
		// Newest first: three straight wins after a losing stretch.
		matches := []model.MatchRecord{
			match(true, 13, 5),
			match(true, 13, 9),
			match(true, 13, 11),
			match(false, 8, 13),
			match(false, 11, 13),
			match(false, 5, 13),
		}
		s := feature.HistorySignals(matches)

		Convey("Then the trend is positive and the streak counts wins", func() {
			So(s.WinRateTrend, ShouldBeGreaterThan, 0)
			So(s.Streak, ShouldEqual, 3)
			So(s.WinRate, ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("And the recent window outpaces the season rate", func() {
			So(s.RecentWinRate, ShouldBeGreaterThan, s.WinRate)
		})
	})

	Convey("Given a team that wins big and loses close", t, func() {
		matches := []model.MatchRecord{
			match(true, 13, 4),
			match(false, 11, 13),
			match(true, 13, 6),
			match(false, 12, 14),
		}
		s := feature.HistorySignals(matches)

		Convey("Then comeback probability reflects dominant wins over close losses", func() {
			So(s.ComebackProbability, ShouldAlmostEqual, 0.5, 1e-9)
		})
	})

	Convey("Given a losing streak", t, func() {
		matches := []model.MatchRecord{
			match(false, 2, 13),
			match(false, 6, 13),
			match(true, 13, 10),
		}
		s := feature.HistorySignals(matches)

		Convey("Then the streak is negative", func() {
			So(s.Streak, ShouldEqual, -2)
		})
	})
}

func TestMetaAlignment(t *testing.T) {
	Convey("Given a profile with a distinct style split", t, func() {
		v := feature.Vector{
			Skill:         0.6,
			Aggression:    0.9,
			Macro:         0.2,
			Adaptability:  0.7,
			MetaAlignment: 0.4,
			Synergy:       0.5,
		}

		Convey("When no meta signal is present", func() {
			So(feature.MetaAlignment(v, "", nil, nil), ShouldEqual, 0.4)
		})

		Convey("When the dominant strategy rewards aggression", func() {
			So(feature.MetaAlignment(v, "aggressive entry", nil, nil), ShouldEqual, 0.9)
		})

		Convey("When the dominant strategy rewards macro play", func() {
			So(feature.MetaAlignment(v, "map control", nil, nil), ShouldEqual, 0.2)
		})

		Convey("When an unknown strategy is named", func() {
			So(feature.MetaAlignment(v, "mystery", nil, nil), ShouldEqual, 0.4)
		})

		Convey("When roster roles overlap the pick rates", func() {
			score := feature.MetaAlignment(v, "aggressive",
				[]string{"Duelist", "controller"},
				map[string]float64{"duelist": 0.8, "initiator": 0.2})

			Convey("Then popularity blends into the style match", func() {
				So(score, ShouldAlmostEqual, 0.65*0.9+0.35*0.8, 1e-9)
			})
		})

		Convey("When no roles match the pick rates", func() {
			score := feature.MetaAlignment(v, "aggressive",
				[]string{"sentinel"}, map[string]float64{"duelist": 0.8})

			Convey("Then only the style match remains", func() {
				So(score, ShouldEqual, 0.9)
			})
		})
	})
}
