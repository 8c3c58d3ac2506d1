package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/playsight/prophet/internal/config"
)

var configEnvVars = []string{
	"PROPHET_CONFIG",
	"PROPHET_ADDR",
	"PROPHET_LOG_LEVEL",
	"PROPHET_QUEUE_SIZE",
	"PROPHET_WORKER_COUNT",
	"PROPHET_DEDUPE_SIZE",
	"PROPHET_RATING__K_FACTOR",
	"PROPHET_RATING__HOME_ADVANTAGE",
	"PROPHET_CALIBRATION__MIN_SAMPLES",
	"PROPHET_SIMULATION__TRIALS",
	"PROPHET_SIMULATION__SEED",
	"PROPHET_SIMULATION__MOMENTUM_GAIN",
	"PROPHET_SIMULATION__MOMENTUM_LOSS",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
				convey.So(cfg.Rating.BaseRating, convey.ShouldEqual, 1200)
				convey.So(cfg.Simulation.Trials, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PROPHET_ADDR", ":8080")
			_ = os.Setenv("PROPHET_QUEUE_SIZE", "5000")
			_ = os.Setenv("PROPHET_WORKER_COUNT", "16")
			_ = os.Setenv("PROPHET_RATING__K_FACTOR", "24")
			_ = os.Setenv("PROPHET_CALIBRATION__MIN_SAMPLES", "25")
			_ = os.Setenv("PROPHET_SIMULATION__TRIALS", "2000")
			_ = os.Setenv("PROPHET_SIMULATION__MOMENTUM_GAIN", "0.08")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Rating.KFactor, convey.ShouldEqual, 24)
				convey.So(cfg.Calibration.MinSamples, convey.ShouldEqual, 25)
				convey.So(cfg.Simulation.Trials, convey.ShouldEqual, 2000)
				convey.So(cfg.Simulation.MomentumGain, convey.ShouldEqual, 0.08)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300000
worker_count: 24
rating:
  base_rating: 1500
  home_advantage: 35
simulation:
  trials: 50000
  seed: 7
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("PROPHET_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.Rating.BaseRating, convey.ShouldEqual, 1500)
				convey.So(cfg.Rating.HomeAdvantage, convey.ShouldEqual, 35)
				convey.So(cfg.Simulation.Trials, convey.ShouldEqual, 50000)
				convey.So(cfg.Simulation.Seed, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When env vars and file disagree, env wins", func() {
			yamlContent := `
addr: ":9090"
simulation:
  trials: 50000
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("PROPHET_CONFIG", tmpFile)
			_ = os.Setenv("PROPHET_ADDR", ":7070")
			_ = os.Setenv("PROPHET_SIMULATION__TRIALS", "1234")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.Simulation.Trials, convey.ShouldEqual, 1234)
		})

		convey.Convey("When a value fails validation", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PROPHET_QUEUE_SIZE", "-1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When a momentum step is out of range", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PROPHET_SIMULATION__MOMENTUM_LOSS", "1.5")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PROPHET_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
		})
	})
}
