package feature

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrLeakDetected means a feature vector would be built from information
	// not strictly earlier than the match it describes. This is a correctness
	// bug upstream and must halt the run.
	ErrLeakDetected = errors.New("date wall violated")
)
