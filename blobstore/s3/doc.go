// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("dynamize/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	id, err := checkpoint.Save(ctx, store, container, codec.Default)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large checkpoints
//   - CRC32C checksums on small atomic writes
//   - DDBCommitStore: DynamoDB conditional writes for the CURRENT pointer,
//     so concurrent writers cannot silently overwrite each other
package s3
