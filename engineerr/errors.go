// Package engineerr defines the sentinel errors surfaced by the catalog,
// codec, and engine packages, following the same errors.New/errors.Is
// convention the rest of this module uses for its own domain errors.
package engineerr

import "errors"

var (
	// ErrMalformedQuery is returned when a predicate leaf is neither
	// LabelKey=LabelValue nor Variable CMP Metric.
	ErrMalformedQuery = errors.New("engineerr: malformed query")

	// ErrCorruptBlock is returned when a block file fails a structural or
	// checksum invariant during decode. Fatal for that file.
	ErrCorruptBlock = errors.New("engineerr: corrupt block")

	// ErrIOFailure wraps a read or write failure against the catalog or a
	// block file.
	ErrIOFailure = errors.New("engineerr: i/o failure")

	// ErrLockPoisoned names the error kind for an active-block or catalog
	// lock left in an inconsistent state by a panicking goroutine. No
	// package in this module returns it.
	ErrLockPoisoned = errors.New("engineerr: lock poisoned")
)
