package checkpoint

import (
	"context"
	"strconv"

	"github.com/hupe1980/dynamize"
	"github.com/hupe1980/dynamize/blobstore"
	"github.com/hupe1980/dynamize/static"
	"github.com/hupe1980/dynamize/strategy"
)

// SaveContainer checkpoints the live elements of c's current snapshot.
// Writers may keep mutating c while the save runs.
func SaveContainer[T, S, Q, R any](ctx context.Context, store blobstore.BlobStore, c *dynamize.Container[T, S, Q, R], optFns ...Option) (*Manifest, error) {
	snap := c.Snapshot()
	opts := append([]Option{
		WithStrategy(c.Strategy().Name()),
		WithMeta("snapshot_version", strconv.FormatUint(snap.Version(), 10)),
	}, optFns...)
	return Save(ctx, store, snap.All(), opts...)
}

// Restore builds a container from the latest checkpoint. The strategy
// recorded in the manifest is used unless opts select another one.
func Restore[T, S, Q, R any](ctx context.Context, store blobstore.BlobStore, capability static.Capability[T, S, Q, R], opts ...dynamize.Option) (*dynamize.Container[T, S, Q, R], error) {
	return RestoreWith(ctx, store, capability, nil, opts...)
}

// RestoreWith is Restore with checkpoint options, e.g. a resource
// controller for read throttling.
func RestoreWith[T, S, Q, R any](ctx context.Context, store blobstore.BlobStore, capability static.Capability[T, S, Q, R], ckptOpts []Option, opts ...dynamize.Option) (*dynamize.Container[T, S, Q, R], error) {
	elems, m, err := Load[T](ctx, store, ckptOpts...)
	if err != nil {
		return nil, err
	}

	if s, err := strategy.ByName(m.Strategy); err == nil {
		opts = append([]dynamize.Option{dynamize.WithStrategy(s)}, opts...)
	}
	return dynamize.Build(capability, elems, opts...)
}
