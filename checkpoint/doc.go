// Package checkpoint persists the live elements of a container to a
// blobstore and restores them.
//
// A checkpoint is two blobs plus a pointer:
//
//	checkpoints/<id>.data  length-prefixed codec records, optionally compressed
//	checkpoints/<id>.json  manifest (codec, compression, count, checksum, ...)
//	CURRENT                name of the latest manifest
//
// CURRENT is written last with BlobStore.Put, so a crash mid-save leaves the
// previous checkpoint in place. Only live elements are written; the block
// layout is not persisted because Restore rebuilds the canonical layout.
//
//	m, err := checkpoint.SaveContainer(ctx, store, c)
//	...
//	c, err := checkpoint.Restore(ctx, store, sortedvec.New(cmp.Compare[int]))
package checkpoint
