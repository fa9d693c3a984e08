package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/dynamize/blobstore"
	"github.com/hupe1980/dynamize/codec"
	"github.com/hupe1980/dynamize/resource"
)

// Save writes elems as a new checkpoint and points CURRENT at it. Nothing is
// committed if elems yields an error; partial blobs are removed.
func Save[T any](ctx context.Context, store blobstore.BlobStore, elems iter.Seq2[T, error], optFns ...Option) (*Manifest, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		FormatVersion: FormatVersion,
		ID:            uuid.NewString(),
		Strategy:      opts.Strategy,
		Codec:         opts.Codec.Name(),
		Compression:   opts.Compression,
		CreatedAt:     time.Now().UTC(),
		Meta:          opts.Meta,
	}
	m.DataFile = dataName(opts.Prefix, m.ID)

	w, err := store.Create(ctx, m.DataFile)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", m.DataFile, err)
	}

	counter := &countingWriter{w: resource.NewRateLimitedWriter(ctx, w, opts.ResourceController)}
	if err := writeData(counter, elems, opts, m); err != nil {
		_ = blobstore.Abort(w)
		_ = store.Delete(ctx, m.DataFile)
		return nil, err
	}
	if err := w.Close(); err != nil {
		_ = store.Delete(ctx, m.DataFile)
		return nil, fmt.Errorf("close %s: %w", m.DataFile, err)
	}
	m.DataSize = counter.n

	data, err := manifestCodec.Marshal(m)
	if err != nil {
		return nil, err
	}
	name := m.Name(opts.Prefix)
	if err := store.Put(ctx, name, data); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := store.Put(ctx, CurrentName, []byte(name)); err != nil {
		return nil, fmt.Errorf("commit %s: %w", CurrentName, err)
	}
	return m, nil
}

func writeData[T any](w io.Writer, elems iter.Seq2[T, error], opts Options, m *Manifest) error {
	zw, err := newCompressor(w, opts.Compression)
	if err != nil {
		return err
	}

	rw := newRecordWriter(zw)
	for elem, err := range elems {
		if err != nil {
			_ = zw.Close()
			return err
		}
		data, err := opts.Codec.Marshal(elem)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("encode element %d: %w", rw.count, err)
		}
		if err := rw.Write(data); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := rw.Flush(); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	m.Count = rw.count
	m.Checksum = rw.Sum()
	return nil
}

// Load reads the elements of the checkpoint CURRENT points to.
func Load[T any](ctx context.Context, store blobstore.BlobStore, optFns ...Option) ([]T, *Manifest, error) {
	m, err := Current(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	elems, err := LoadManifest[T](ctx, store, m, optFns...)
	if err != nil {
		return nil, nil, err
	}
	return elems, m, nil
}

// LoadManifest reads the elements of the checkpoint described by m.
func LoadManifest[T any](ctx context.Context, store blobstore.BlobStore, m *Manifest, optFns ...Option) ([]T, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	c, ok := codec.ByName(m.Codec)
	if !ok {
		if opts.Codec.Name() != m.Codec {
			return nil, fmt.Errorf("%w: codec %q", ErrUnsupported, m.Codec)
		}
		c = opts.Codec
	}

	blob, err := store.Open(ctx, m.DataFile)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &CorruptError{ID: m.ID, Reason: "data file missing"}
		}
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	if blob.Size() != m.DataSize {
		return nil, &CorruptError{ID: m.ID, Reason: fmt.Sprintf("data size %d, manifest says %d", blob.Size(), m.DataSize)}
	}

	body, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	zr, err := newDecompressor(resource.NewRateLimitedReader(ctx, body, opts.ResourceController), m.Compression)
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()

	elems := make([]T, 0, m.Count)
	rr := newRecordReader(zr)
	for {
		data, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &CorruptError{ID: m.ID, Reason: err.Error()}
		}

		var elem T
		if err := c.Unmarshal(data, &elem); err != nil {
			return nil, &CorruptError{ID: m.ID, Reason: fmt.Sprintf("decode element %d: %v", len(elems), err)}
		}
		elems = append(elems, elem)
	}

	if len(elems) != m.Count {
		return nil, &CorruptError{ID: m.ID, Reason: fmt.Sprintf("%d elements, manifest says %d", len(elems), m.Count)}
	}
	if sum := rr.Sum(); sum != m.Checksum {
		return nil, &CorruptError{ID: m.ID, Reason: fmt.Sprintf("checksum %08x, manifest says %08x", sum, m.Checksum)}
	}
	return elems, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
