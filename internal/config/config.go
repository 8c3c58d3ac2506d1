// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory result event queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of result-apply workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the rating repository.
	ShardCount int `koanf:"shard_count"`

	// Rating configures the Elo/Glicko rating store.
	Rating RatingConfig `koanf:"rating"`

	// Ensemble configures estimator fusion.
	Ensemble EnsembleConfig `koanf:"ensemble"`

	// Calibration configures the outcome feedback loop.
	Calibration CalibrationConfig `koanf:"calibration"`

	// Simulation configures the Monte Carlo engine.
	Simulation SimulationConfig `koanf:"simulation"`
}

// RatingConfig tunes the rating store.
type RatingConfig struct {
	// BaseRating is assigned to entities on first access.
	BaseRating float64 `koanf:"base_rating"`

	// KFactor scales per-match rating movement.
	KFactor float64 `koanf:"k_factor"`

	// HomeAdvantage is added to team A's effective rating in predictions.
	HomeAdvantage float64 `koanf:"home_advantage"`

	// MaxChange clamps the absolute rating delta per match.
	MaxChange float64 `koanf:"max_change"`
}

// EnsembleConfig tunes estimator fusion.
type EnsembleConfig struct {
	// Weights maps estimator names (elo, stats, trend, graph, meta) to
	// their fusion weights. Weights are normalized at fuse time.
	Weights map[string]float64 `koanf:"weights"`

	// AdaptiveWeighting scales weights by per-estimate confidence.
	AdaptiveWeighting bool `koanf:"adaptive_weighting"`
}

// CalibrationConfig tunes the calibrator.
type CalibrationConfig struct {
	// Capacity bounds the per-model sample ring.
	Capacity int `koanf:"capacity"`

	// MinSamples is the history size below which calibration is a no-op.
	MinSamples int `koanf:"min_samples"`

	// RecencyWeight favors the recent window when blending bias estimates.
	RecencyWeight float64 `koanf:"recency_weight"`

	// AdaptiveBias enables the recent/older bias blend.
	AdaptiveBias bool `koanf:"adaptive_bias"`
}

// SimulationConfig tunes the Monte Carlo engine.
type SimulationConfig struct {
	// Trials is the number of simulated games per prediction.
	Trials int `koanf:"trials"`

	// Shards is the number of parallel simulation workers. Zero means
	// GOMAXPROCS.
	Shards int `koanf:"shards"`

	// Seed fixes the random source for reproducible runs. Zero means a
	// random seed per engine.
	Seed int64 `koanf:"seed"`

	// MomentumGain is added to the round winner's momentum each round.
	MomentumGain float64 `koanf:"momentum_gain"`

	// MomentumLoss is subtracted from the round loser's momentum each round.
	MomentumLoss float64 `koanf:"momentum_loss"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":9080",
		QueueSize:   100_000,
		WorkerCount: runtime.NumCPU() * 4,
		DedupeSize:  50_000,
		ShardCount:  8,
		Rating: RatingConfig{
			BaseRating:    1200,
			KFactor:       32,
			HomeAdvantage: 0,
			MaxChange:     50,
		},
		Ensemble: EnsembleConfig{
			Weights: map[string]float64{
				"elo":   0.25,
				"stats": 0.30,
				"trend": 0.20,
				"graph": 0.15,
				"meta":  0.10,
			},
			AdaptiveWeighting: true,
		},
		Calibration: CalibrationConfig{
			Capacity:      1000,
			MinSamples:    10,
			RecencyWeight: 0.7,
			AdaptiveBias:  true,
		},
		Simulation: SimulationConfig{
			Trials:       10_000,
			MomentumGain: 0.05,
			MomentumLoss: 0.03,
		},
	}
}
