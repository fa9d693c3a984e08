// Package block implements the leveled block arena behind a container.
//
// A Store is an immutable value. Execute and Rebuild stage every new block
// off to the side and return a new Store; the receiver is never modified, so
// a failed build leaves the previous Store intact and blocks not touched by a
// plan are shared between the old and the new Store.
package block
