package clean

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMissingInput = errors.New("missing raw input file")
	ErrBadHeader    = errors.New("unexpected raw column layout")
)
