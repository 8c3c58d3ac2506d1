package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/playsight/prophet/internal/backtest"
)

// Default configuration constants.
const (
	defaultTeams         = 12
	defaultRoundsPerPair = 6
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams   = flag.Int("teams", defaultTeams, "Number of synthetic teams")
		rounds  = flag.Int("rounds", defaultRoundsPerPair, "Matches per team pair")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed    = flag.Int64("seed", 0, "Season generation seed (default: time-based)")
		logFile = flag.String("log", "", "Log file for run output (default: backtest_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		backtest.ShowHelp()
		return
	}

	if err := backtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &backtest.Config{
		BaseURL:       *baseURL,
		Teams:         *teams,
		RoundsPerPair: *rounds,
		Workers:       *workers,
		Timeout:       *timeout,
		Seed:          *seed,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := backtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Backtest failed: " + err.Error() + "\n")
		return
	}
}
