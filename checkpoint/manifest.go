package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/dynamize/blobstore"
	"github.com/hupe1980/dynamize/codec"
)

// FormatVersion is the data blob layout written by this package.
const FormatVersion = 1

// Manifest describes one checkpoint.
type Manifest struct {
	FormatVersion int               `json:"format_version"`
	ID            string            `json:"id"`
	Strategy      string            `json:"strategy,omitempty"`
	Count         int               `json:"count"`
	Codec         string            `json:"codec"`
	Compression   Compression       `json:"compression"`
	DataFile      string            `json:"data_file"`
	DataSize      int64             `json:"data_size"`
	Checksum      uint32            `json:"checksum"` // CRC32C of the uncompressed records
	CreatedAt     time.Time         `json:"created_at"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// Name returns the manifest blob name for m under prefix.
func (m *Manifest) Name(prefix string) string {
	return manifestName(prefix, m.ID)
}

func manifestName(prefix, id string) string {
	return path.Join(prefix, id+".json")
}

func dataName(prefix, id string) string {
	return path.Join(prefix, id+".data")
}

var manifestCodec = codec.GoJSON{}

// ReadManifest reads the manifest blob stored under name.
func ReadManifest(ctx context.Context, store blobstore.BlobStore, name string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := manifestCodec.Unmarshal(data, &m); err != nil {
		return nil, &CorruptError{ID: name, Reason: fmt.Sprintf("manifest: %v", err)}
	}
	if m.ID == "" || m.DataFile == "" {
		return nil, &CorruptError{ID: name, Reason: "manifest: missing id or data file"}
	}
	if m.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrUnsupported, m.FormatVersion)
	}
	return &m, nil
}

// Current returns the manifest CURRENT points to.
func Current(ctx context.Context, store blobstore.BlobStore) (*Manifest, error) {
	name, err := blobstore.ReadAll(ctx, store, CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNoCheckpoint
		}
		return nil, err
	}
	return ReadManifest(ctx, store, strings.TrimSpace(string(name)))
}

// List returns all manifests under the configured prefix, oldest first.
func List(ctx context.Context, store blobstore.BlobStore, optFns ...Option) ([]*Manifest, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	names, err := store.List(ctx, opts.Prefix+"/")
	if err != nil {
		return nil, err
	}

	var manifests []*Manifest
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		m, err := ReadManifest(ctx, store, name)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}

	slices.SortStableFunc(manifests, func(a, b *Manifest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return manifests, nil
}

// Prune deletes all but the newest keep checkpoints. The checkpoint CURRENT
// points to is never deleted. It returns the number of checkpoints removed.
func Prune(ctx context.Context, store blobstore.BlobStore, keep int, optFns ...Option) (int, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return 0, err
	}

	manifests, err := List(ctx, store, optFns...)
	if err != nil {
		return 0, err
	}

	var currentID string
	if cur, err := Current(ctx, store); err == nil {
		currentID = cur.ID
	} else if !errors.Is(err, ErrNoCheckpoint) {
		return 0, err
	}

	removed := 0
	for i, m := range manifests {
		if i >= len(manifests)-keep || m.ID == currentID {
			continue
		}
		if err := store.Delete(ctx, m.DataFile); err != nil {
			return removed, err
		}
		if err := store.Delete(ctx, m.Name(opts.Prefix)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
