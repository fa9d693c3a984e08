package checkpoint

import (
	"fmt"

	"github.com/hupe1980/dynamize/codec"
	"github.com/hupe1980/dynamize/resource"
)

// Compression selects how the data blob is compressed.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// DefaultPrefix is the directory checkpoints are written under.
const DefaultPrefix = "checkpoints"

// CurrentName is the pointer to the latest manifest.
const CurrentName = "CURRENT"

// Options configures Save and Load.
type Options struct {
	// Codec encodes elements. Default: codec.Default.
	Codec codec.Codec

	// Compression of the data blob. Default: zstd.
	Compression Compression

	// Prefix is the directory for data and manifest blobs.
	Prefix string

	// ResourceController throttles checkpoint IO. Nil disables throttling.
	ResourceController *resource.Controller

	// Strategy and Meta are recorded in the manifest.
	Strategy string
	Meta     map[string]string
}

// Option configures checkpoint options.
type Option func(*Options)

// WithCodec sets the element codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithCompression sets the data blob compression.
func WithCompression(c Compression) Option {
	return func(o *Options) { o.Compression = c }
}

// WithPrefix sets the directory for checkpoint blobs.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithResourceController throttles reads and writes through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *Options) { o.ResourceController = rc }
}

// WithStrategy records the strategy name in the manifest.
func WithStrategy(name string) Option {
	return func(o *Options) { o.Strategy = name }
}

// WithMeta records a key/value pair in the manifest.
func WithMeta(key, value string) Option {
	return func(o *Options) {
		if o.Meta == nil {
			o.Meta = make(map[string]string)
		}
		o.Meta[key] = value
	}
}

func applyOptions(optFns []Option) (Options, error) {
	opts := Options{
		Codec:       codec.Default,
		Compression: CompressionZstd,
		Prefix:      DefaultPrefix,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	switch opts.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	case "":
		opts.Compression = CompressionNone
	default:
		return opts, fmt.Errorf("%w: compression %q", ErrUnsupported, opts.Compression)
	}
	return opts, nil
}
