package calibration

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrCalibrationFit means the fitted map is not monotonic beyond
	// tolerance, or could not be fitted at all. Fatal: it blocks model
	// promotion.
	ErrCalibrationFit = errors.New("calibration fit failed")

	// ErrUnknownMethod marks an unrecognized calibration method name.
	ErrUnknownMethod = errors.New("unknown calibration method")
)
