// Package static defines the capability a static (build-once, query-many)
// data structure must provide to be hosted by the dynamize engine.
//
// The engine never looks inside a structure. It builds structures from
// batches of elements, enumerates them when blocks are merged, asks them for
// their size and forwards queries to them together with the block's
// tombstones.
//
// # Row numbering
//
// A structure built from elems numbers its rows by input position: row i is
// elems[i], regardless of how the structure lays the elements out internally.
// Tombstones, Iterate and Locate all speak in these row numbers. This lets
// the engine carry logical deletions across merges without understanding the
// structure.
package static
