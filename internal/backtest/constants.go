package backtest

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
)

// Season generation constants.
const (
	winningScore   = 13
	maxLoserScore  = 11
	minStrength    = 0.2
	strengthSpread = 0.6
)

// Runner configuration constants.
const (
	ProcessingWait       = 5 * time.Second
	PercentageMultiplier = 100
)
