package backtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/playsight/prophet/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "backtest_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the backtest tool.
func ShowHelp() {
	os.Stdout.WriteString(`Prophet Backtest Tool
=====================

Plays a synthetic season against a running prediction service and verifies
that ratings converge on the planted team strengths and that the calibration
loop fills up.

Usage:
  go run cmd/backtest/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -teams int
        Number of synthetic teams (default 12)
  -rounds int
        Matches per team pair (default 6)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Season generation seed (default: time-based)
  -log string
        Log file for run output (default: backtest_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Backtest with default settings
  go run cmd/backtest/main.go

  # A longer season against a local service
  go run cmd/backtest/main.go -teams 20 -rounds 10

  # Reproducible season
  go run cmd/backtest/main.go -seed 42 -verbose
`)
}
