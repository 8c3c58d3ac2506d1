package graph

import "errors"

// Sentinel kinds for graph errors.
var (
	// ErrModelFailure marks programmer errors such as mismatched embedding
	// lengths; distinguishable from missing-data degradation.
	ErrModelFailure = errors.New("model failure")
	// ErrMissingData marks insufficient relationship history.
	ErrMissingData = errors.New("missing graph data")
)
