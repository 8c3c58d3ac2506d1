package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PROPHET_CONFIG is set
//  3. env (prefix PROPHET_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PROPHET_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PROPHET_ADDR, PROPHET_QUEUE_SIZE, ...
	// Flat keys keep their underscores (PROPHET_QUEUE_SIZE -> queue_size);
	// nested keys use a double underscore (PROPHET_RATING__K_FACTOR ->
	// rating.k_factor).
	envProvider := env.Provider("PROPHET_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "prophet_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.Simulation.Trials <= 0:
		return fmt.Errorf("%w: simulation.trials must be positive", ErrInvalidConfig)
	case c.Simulation.MomentumGain < 0 || c.Simulation.MomentumGain > 1:
		return fmt.Errorf("%w: simulation.momentum_gain must be within [0,1]", ErrInvalidConfig)
	case c.Simulation.MomentumLoss < 0 || c.Simulation.MomentumLoss > 1:
		return fmt.Errorf("%w: simulation.momentum_loss must be within [0,1]", ErrInvalidConfig)
	case c.Calibration.RecencyWeight < 0 || c.Calibration.RecencyWeight > 1:
		return fmt.Errorf("%w: calibration.recency_weight must be within [0,1]", ErrInvalidConfig)
	}
	for name, weight := range c.Ensemble.Weights {
		if weight < 0 {
			return fmt.Errorf("%w: ensemble weight %q must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
