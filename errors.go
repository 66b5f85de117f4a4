package urchindb

import "errors"

// Sentinel errors, checked with errors.Is, following the teacher's
// errors.New + fmt.Errorf("%w", ...) idiom rather than a custom error-code
// type (spec.md §7's IoError/AllocError/NotFound/EndOfIteration taxonomy).
var (
	// ErrNotFound is returned by Delete when the key is not present.
	// Fetch reports the same condition as (nil, false, nil) instead, the
	// more idiomatic Go rendering of a map-style lookup miss.
	ErrNotFound = errors.New("urchindb: not found")

	// ErrEndOfIteration corresponds to spec.md §7's EndOfIteration kind.
	// Next reports exhaustion as (nil, false, nil) rather than returning
	// this error; it is declared for taxonomy completeness and for callers
	// that want a named error to wrap in their own iteration helpers.
	ErrEndOfIteration = errors.New("urchindb: end of iteration")

	// ErrIO wraps failures to create, open, zero-fill, lock or close the
	// store's file. Read, write and seek failures inside Store, Fetch,
	// Delete and Next are returned wrapped in the internal pager's and
	// table's own io-failure errors and do not match ErrIO under
	// errors.Is. Either kind is fatal to the current operation; the store
	// is left in whatever partial state the pager reached.
	ErrIO = errors.New("urchindb: io failure")

	// ErrClosed is returned by any operation on a DB after Close.
	ErrClosed = errors.New("urchindb: closed")
)
