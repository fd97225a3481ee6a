package service

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrNotServing = errors.New("service not started")
	ErrNoFeatures = errors.New("no feature vectors produced")
)
