// Package testutil provides testing utilities for dynamize.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source for workloads and a multiset
// reference model to check containers against.
//
//	rng := testutil.NewRNG(42)
//	model := testutil.NewModel(cmp.Compare[int])
//	for range 1000 {
//	    x := rng.Intn(100)
//	    model.Insert(x)
//	    _ = c.Insert(x)
//	}
//	assert.Equal(t, model.Sorted(), all)
package testutil
