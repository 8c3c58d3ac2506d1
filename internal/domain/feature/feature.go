// Package feature maps raw, game-specific statistics onto a fixed
// six-dimensional universal vector so entities from different titles can be
// compared. Lookup tables (per-title stat weights, per-stat benchmarks,
// per-role multipliers) are loaded at construction time; unknown titles and
// roles fall back to the explicit GENERAL entries.
package feature

import "math"

// GeneralKey is the fallback entry for unknown game titles and roles.
const GeneralKey = "GENERAL"

const neutral = 0.5

// Vector is the universal feature vector. Every dimension is in [0,1].
// Synergy is always neutral here; the relationship graph owns that signal.
type Vector struct {
	Skill         float64 `json:"skill"`
	Aggression    float64 `json:"aggression"`
	Macro         float64 `json:"macro"`
	Adaptability  float64 `json:"adaptability"`
	MetaAlignment float64 `json:"meta_alignment"`
	Synergy       float64 `json:"synergy"`
}

// Neutral returns the all-0.5 vector used when no information is available.
func Neutral() Vector {
	return Vector{
		Skill:         neutral,
		Aggression:    neutral,
		Macro:         neutral,
		Adaptability:  neutral,
		MetaAlignment: neutral,
		Synergy:       neutral,
	}
}

// Benchmark is the observed min/max range of one raw statistic.
type Benchmark struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Multipliers amplify or dampen the style dimensions for a role, e.g. a
// duelist amplifies aggression and dampens macro.
type Multipliers struct {
	Aggression   float64 `json:"aggression"`
	Macro        float64 `json:"macro"`
	Adaptability float64 `json:"adaptability"`
}

// Normalizer holds the lookup tables and produces universal vectors.
type Normalizer struct {
	skillWeights    map[string]map[string]float64 // title -> stat -> weight
	styleWeights    map[string]styleTable         // title -> dimension stat blends
	metaWeights     map[string]map[string]float64 // title -> stat -> weight
	benchmarks      map[string]Benchmark          // stat -> range
	roleMultipliers map[string]map[string]Multipliers
}

// styleTable carries the per-dimension stat blends for one title.
type styleTable struct {
	aggression   map[string]float64
	macro        map[string]float64
	adaptability map[string]float64
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithSkillWeights replaces the per-title skill stat weights.
func WithSkillWeights(weights map[string]map[string]float64) Option {
	return func(n *Normalizer) {
		if len(weights) > 0 {
			n.skillWeights = weights
		}
	}
}

// WithBenchmarks replaces the per-stat min/max benchmarks.
func WithBenchmarks(benchmarks map[string]Benchmark) Option {
	return func(n *Normalizer) {
		if len(benchmarks) > 0 {
			n.benchmarks = benchmarks
		}
	}
}

// WithRoleMultipliers replaces the per-title, per-role multiplier table.
func WithRoleMultipliers(multipliers map[string]map[string]Multipliers) Option {
	return func(n *Normalizer) {
		if len(multipliers) > 0 {
			n.roleMultipliers = multipliers
		}
	}
}

// NewNormalizer creates a normalizer with the built-in tables, optionally
// overridden per concern.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		skillWeights:    defaultSkillWeights(),
		styleWeights:    defaultStyleWeights(),
		metaWeights:     defaultMetaWeights(),
		benchmarks:      defaultBenchmarks(),
		roleMultipliers: defaultRoleMultipliers(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts raw stats for one entity into a universal vector.
// Empty stats produce the neutral vector; Normalize never fails.
func (n *Normalizer) Normalize(stats map[string]float64, gameTitle, role string) Vector {
	if len(stats) == 0 {
		return Neutral()
	}

	v := Vector{Synergy: neutral}
	v.Skill = n.weightedBlend(stats, lookupTitle(n.skillWeights, gameTitle))

	style := n.styleFor(gameTitle)
	v.Aggression = n.weightedBlend(stats, style.aggression)
	v.Macro = n.weightedBlend(stats, style.macro)
	v.Adaptability = n.weightedBlend(stats, style.adaptability)

	mult := n.multipliersFor(gameTitle, role)
	v.Aggression = clamp01(v.Aggression * mult.Aggression)
	v.Macro = clamp01(v.Macro * mult.Macro)
	v.Adaptability = clamp01(v.Adaptability * mult.Adaptability)

	v.MetaAlignment = n.weightedBlend(stats, lookupTitle(n.metaWeights, gameTitle))
	return v
}

// MergeProfiles averages per-title vectors for the same entity with equal
// weight per title. Merging nothing yields the neutral vector.
func MergeProfiles(vectors ...Vector) Vector {
	if len(vectors) == 0 {
		return Neutral()
	}
	var sum Vector
	for _, v := range vectors {
		sum.Skill += v.Skill
		sum.Aggression += v.Aggression
		sum.Macro += v.Macro
		sum.Adaptability += v.Adaptability
		sum.MetaAlignment += v.MetaAlignment
		sum.Synergy += v.Synergy
	}
	count := float64(len(vectors))
	return Vector{
		Skill:         sum.Skill / count,
		Aggression:    sum.Aggression / count,
		Macro:         sum.Macro / count,
		Adaptability:  sum.Adaptability / count,
		MetaAlignment: sum.MetaAlignment / count,
		Synergy:       sum.Synergy / count,
	}
}

// weightedBlend rescales each weighted stat into [0,1] against its benchmark
// and returns the weighted mean. Stats without a benchmark count as neutral.
func (n *Normalizer) weightedBlend(stats, weights map[string]float64) float64 {
	var weighted, total float64
	for key, weight := range weights {
		raw, ok := stats[key]
		if !ok {
			continue
		}
		weighted += n.rescale(key, raw) * weight
		total += weight
	}
	if total == 0 {
		return neutral
	}
	return clamp01(weighted / total)
}

func (n *Normalizer) rescale(key string, raw float64) float64 {
	bench, ok := n.benchmarks[key]
	if !ok || bench.Max <= bench.Min {
		return neutral
	}
	return clamp01((raw - bench.Min) / (bench.Max - bench.Min))
}

func (n *Normalizer) styleFor(gameTitle string) styleTable {
	if t, ok := n.styleWeights[gameTitle]; ok {
		return t
	}
	return n.styleWeights[GeneralKey]
}

func (n *Normalizer) multipliersFor(gameTitle, role string) Multipliers {
	roles, ok := n.roleMultipliers[gameTitle]
	if !ok {
		roles = n.roleMultipliers[GeneralKey]
	}
	if m, ok := roles[role]; ok {
		return m
	}
	if m, ok := roles[GeneralKey]; ok {
		return m
	}
	return Multipliers{Aggression: 1, Macro: 1, Adaptability: 1}
}

func lookupTitle(table map[string]map[string]float64, gameTitle string) map[string]float64 {
	if w, ok := table[gameTitle]; ok {
		return w
	}
	return table[GeneralKey]
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
