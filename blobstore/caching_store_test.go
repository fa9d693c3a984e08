package blobstore

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts backend reads.
type countingStore struct {
	*MemoryStore
	reads atomic.Int64
}

func (s *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.MemoryStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingBlob{Blob: b, reads: &s.reads}, nil
}

type countingBlob struct {
	Blob
	reads *atomic.Int64
}

func (b *countingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.reads.Add(1)
	return b.Blob.ReadAt(ctx, p, off)
}

func TestCachingStore(t *testing.T) {
	exerciseStore(t, mustCaching(t, NewMemoryStore(), 16, 4))
}

func TestCachingStoreServesRepeatedReadsFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.Put(ctx, "blob", []byte("0123456789abcdefghij")))

	store := mustCaching(t, inner, 16, 4)
	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	buf := make([]byte, 6)
	n, err := blob.ReadAt(ctx, buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "345678", string(buf))
	assert.EqualValues(t, 1, inner.reads.Load(), "one coalesced read for blocks 0-2")
	assert.Equal(t, 3, store.Len())

	n, err = blob.ReadAt(ctx, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "234567", string(buf))
	assert.EqualValues(t, 1, inner.reads.Load())

	tail := make([]byte, 8)
	n, err = blob.ReadAt(ctx, tail, 16)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ghij", string(tail[:n]))

	r, err := blob.ReadRange(ctx, 0, 100)
	require.NoError(t, err)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdefghij", string(all))
}

func TestCachingStoreInvalidatesOnPut(t *testing.T) {
	ctx := context.Background()
	store := mustCaching(t, NewMemoryStore(), 16, 4)

	require.NoError(t, store.Put(ctx, "CURRENT", []byte("old!")))
	got, err := ReadAll(ctx, store, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "old!", string(got))

	require.NoError(t, store.Put(ctx, "CURRENT", []byte("new!")))
	got, err = ReadAll(ctx, store, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "new!", string(got))
}

func mustCaching(t *testing.T, inner BlobStore, blocks int, blockSize int64) *CachingStore {
	t.Helper()
	s, err := NewCachingStore(inner, blocks, blockSize)
	require.NoError(t, err)
	return s
}
