// Package attribute implements in-memory attribute stores.
//
// An attribute is a named vector of typed values indexed by lid. A Manager
// holds the attribute set of one collection at one point in time; replacing
// the attribute set (schema change, attribute-manager swap) means deriving a
// new Manager that shares the unchanged attribute instances.
//
// A Reference is the attribute behind a reference field: for each child lid
// it stores the gid of the referenced parent document and caches the parent
// lid that gid currently maps to. The cache is kept current by subscribing
// the Reference to the parent's identity store.
package attribute
