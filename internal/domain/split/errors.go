package split

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInsufficientFoldData marks a skipped fold whose validation year has
	// fewer matches than the configured minimum. Recoverable: the fold is
	// reported, not merged.
	ErrInsufficientFoldData = errors.New("insufficient fold data")

	// ErrFoldOrdering means a fold would contain a validation timestamp at or
	// before a training timestamp. This indicates an upstream ordering bug
	// and is fatal.
	ErrFoldOrdering = errors.New("fold ordering violated")
)
