package train

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotFitted      = errors.New("model not fitted")
	ErrNoTrainingData = errors.New("no training data")
)
