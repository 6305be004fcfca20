package model

import (
	"fmt"
)

// DocType names a document collection. It is the handle used to look up a
// parent collection from a child's reference field.
type DocType string

// String returns the doc type name.
func (d DocType) String() string { return string(d) }

// LocalID is a dense, collection-local identifier for a document (a "lid").
// It is transient: a lid is reused after the document is removed and the
// collection is compacted.
type LocalID uint32

// InvalidLocalID is never assigned to a document. Reference attributes use it
// to mean "unset" or "not resolved".
const InvalidLocalID LocalID = 0

// Valid reports whether the lid can address a document.
func (l LocalID) Valid() bool { return l != InvalidLocalID }

// GlobalID is the stable, user-facing document identifier. The same document
// has the same GlobalID in every collection that refers to it.
type GlobalID uint64

// String returns a hex representation of the GlobalID.
func (g GlobalID) String() string {
	return fmt.Sprintf("gid(%016x)", uint64(g))
}
