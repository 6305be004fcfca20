// Package metadata provides the typed values stored in attribute vectors.
//
// # Value Types
//
//   - String: metadata.String("Acme")
//   - Int: metadata.Int(2024)
//   - Float: metadata.Float(3.14)
//   - Bool: metadata.Bool(true)
//   - Array: metadata.Array([]metadata.Value{...})
//
// Every attribute declares a FieldType; FieldType.Accepts guards writes so a
// reader never observes a value of an unexpected kind.
package metadata
