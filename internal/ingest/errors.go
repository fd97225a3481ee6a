package ingest

import "errors"

// Sentinel kinds for ingest errors.
var (
	ErrNoSources  = errors.New("no scrape sources configured")
	ErrEmptyTable = errors.New("scraped table is empty")
	ErrBadPairing = errors.New("source urls and files are not paired")
)
