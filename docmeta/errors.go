package docmeta

import "errors"

var (
	// ErrLidSpaceExhausted is returned when no more lids can be assigned.
	ErrLidSpaceExhausted = errors.New("lid space exhausted")

	// ErrNotFound is returned when a gid or lid is not known to the store.
	ErrNotFound = errors.New("not found")
)
