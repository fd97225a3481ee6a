package repository

import "errors"

// Sentinel kinds for rankings errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrInvalidLimit = errors.New("invalid rankings limit")
)
