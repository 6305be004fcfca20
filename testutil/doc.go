// Package testutil provides testing utilities for the document store.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random source for generating document
// identities and picking lids.
//
// # Random Identities
//
//	rng := testutil.NewRNG(seed)
//	gids := rng.GlobalIDs(1000)   // unique, never zero
//	lid := lids[rng.Intn(len(lids))]
package testutil
