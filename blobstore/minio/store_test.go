package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dynamize/blobstore"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(io.EOF))
}

func TestRangeEnd(t *testing.T) {
	assert.Equal(t, int64(9), rangeEnd(0, 10, 100))
	assert.Equal(t, int64(99), rangeEnd(90, 50, 100))
	assert.Equal(t, int64(0), rangeEnd(0, 1, 1))
}

// TestStoreIntegration needs a MinIO server; set DYNAMIZE_MINIO_ENDPOINT
// (e.g. localhost:9000) to run it.
func TestStoreIntegration(t *testing.T) {
	endpoint := os.Getenv("DYNAMIZE_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("DYNAMIZE_MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	store, err := New(endpoint, "dynamize-test",
		WithCredentials("minioadmin", "minioadmin"),
		WithPrefix("it/"),
	)
	require.NoError(t, err)

	exists, err := store.client.BucketExists(ctx, store.bucket)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, store.bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "a.txt", data))

	b, err := store.Open(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(buf[:n]))
	require.NoError(t, b.Close())

	w, err := store.Create(ctx, "b.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := blobstore.ReadAll(ctx, store, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(got))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "a.txt")
	assert.Contains(t, names, "b.txt")

	require.NoError(t, store.Delete(ctx, "a.txt"))
	require.NoError(t, store.Delete(ctx, "b.txt"))
	require.NoError(t, store.Delete(ctx, "missing"))

	_, err = store.Open(ctx, "a.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
