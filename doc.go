// Package dynamize turns a static, build-once data structure into one that
// supports insertion, logical deletion and queries over a growing collection.
//
// The collection is split into immutable blocks, one static structure each.
// A numeral-system strategy (binary, simple-binary or skew-binary) decides which blocks get
// merged on every insertion; queries visit every block and fold the partial
// results with a caller-supplied combiner.
//
// # Quick Start
//
//	cap := sortedvec.New(cmp.Compare[int])
//	c, _ := dynamize.New(cap)
//
//	for i := range 100 {
//	    _ = c.Insert(i)
//	}
//
//	// Elements in [10, 20], merged across blocks.
//	got, _ := c.Query(sortedvec.Range(10, 20), sortedvec.MergeSorted(cmp.Compare[int]))
//
// # Strategies
//
//	c, _ := dynamize.New(cap, dynamize.WithStrategy(strategy.SkewBinary{}))
//
//   - Binary: fewest blocks, amortized O(log n) merge work, an occasional
//     insertion rebuilds everything.
//   - Skew-binary: at most one build per insertion consuming at most two
//     blocks, up to two blocks per level.
//
// # Deletion
//
// Delete marks an element dead in the block that holds it. Dead elements are
// skipped by queries and reclaimed by a global rebuild once they exceed the
// rebuild threshold (half of all rows by default).
//
// # Concurrency
//
// Every mutation builds a new immutable Snapshot off to the side and publishes
// it atomically. Readers may query any snapshot concurrently with a writer.
// Writers are not synchronized: callers must serialize Insert, InsertBatch,
// Delete, DeleteFunc and Rebuild themselves.
package dynamize
