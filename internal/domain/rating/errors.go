package rating

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrDateOrderViolation means a match arrived out of chronological order.
	// State would be corrupted by applying it, so processing must halt.
	ErrDateOrderViolation = errors.New("match out of chronological order")

	// ErrMissingPlayer means a match carries a malformed or absent player
	// identifier. An unseen-but-valid player is not an error; that is the
	// cold-start case and gets the baseline rating.
	ErrMissingPlayer = errors.New("missing or malformed player identifier")
)
