// Package strategy implements the numeral systems that decide how a growing
// collection is split into immutable blocks.
//
// The element count n is represented as a digit vector indexed by level.
// A nonzero digit d at level i means d blocks live at level i, each holding
// Weight(i) elements. Inserting one element turns the vector for n into the
// vector for n+1; the Plan returned alongside lists which levels must be
// consumed and where the merged block lands.
//
// Strategies are pure functions of the digit vector. They never see elements
// and never call into a static structure.
//
//   - Binary: classical Bentley-Saxe. Weights 2^i, digits {0,1}. Amortized
//     O(log n) merge work per insertion, O(n) in the worst case.
//   - SimpleBinary: Binary's layout reached through a chain of pairwise
//     merges, one build per carried level.
//   - SkewBinary: weights 2^(i+1)-1, digits {0,1,2}, only the lowest nonzero
//     digit may be 2. Every insertion performs at most one build consuming at
//     most two blocks, though that build may still copy O(n) elements.
package strategy
