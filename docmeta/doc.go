// Package docmeta implements the per-collection document identity store.
//
// A Store maps stable GlobalIDs to dense LocalIDs and tracks which lids are
// live. Lids of removed documents are held until Compact releases them; after
// that they are reused by later puts, lowest first.
//
// Reference attributes in other collections subscribe to a Store as
// GidChangeListeners so their cached target lids follow lid reassignment.
package docmeta
