// Package model defines core identity types shared by every package.
//
// # Identity Types
//
//   - DocType: name of a document collection (child or parent)
//   - LocalID: collection-local document identifier (uint32), reused after compaction
//   - GlobalID: stable document identifier (uint64), never reused
package model
