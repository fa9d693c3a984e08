// Package minio provides a MinIO (and S3-compatible) implementation of
// blobstore.BlobStore.
//
//	store, err := minio.New("localhost:9000", "bucket",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("dynamize/"),
//	)
package minio
