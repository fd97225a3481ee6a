package store

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotFound  = errors.New("stored file not found")
	ErrBadSchema = errors.New("stored file schema mismatch")
)
