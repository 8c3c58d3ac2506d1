package calibration

import "errors"

var (
	// ErrNoHistory is returned when a report is requested for a model key
	// that has no recorded samples.
	ErrNoHistory = errors.New("calibration: no recorded history for model")
)
