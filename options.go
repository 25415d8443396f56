package datacube

import (
	"github.com/hupe1980/datacube/codec"
	"github.com/hupe1980/datacube/internal/compress"
	"github.com/hupe1980/datacube/internal/paged"
	"github.com/hupe1980/datacube/internal/resource"
)

type options struct {
	pageSize             int
	logger               *Logger
	metricsCollector     MetricsCollector
	missingMetricsAsZero bool
	resourceConfig       resource.Config
	resources            *resource.Controller
}

// Option configures cube construction and loading.
//
// Cubes derived from another cube (Select, Where, Clone ...) inherit its
// options, including the memory budget.
type Option func(*options)

// WithPageSize sets the number of elements per buffer page.
// Non-positive values select the default of 65536.
func WithPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithLogger enables structured logging. Cubes log nothing by default.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector installs a collector for operation metrics.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMissingMetricsAsZero makes AddRow treat an absent metric field as zero
// instead of failing with ErrMissingField. Missing dimensions always fail.
func WithMissingMetricsAsZero() Option {
	return func(o *options) {
		o.missingMetricsAsZero = true
	}
}

// WithMemoryLimit caps the bytes of buffer pages a cube and its derived cubes
// may allocate while growing. Growth beyond the limit fails with
// ErrMemoryLimitExceeded and leaves the cube unchanged.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resourceConfig.MemoryLimitBytes = bytes
	}
}

// WithIOLimit throttles blob reads during Load to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resourceConfig.IOLimitBytesPerSec = bytesPerSec
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		pageSize:         paged.DefaultPageSize,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pageSize <= 0 {
		o.pageSize = paged.DefaultPageSize
	}
	if o.resourceConfig != (resource.Config{}) {
		o.resources = resource.NewController(o.resourceConfig)
	}
	return o
}

// Compression selects the stream compression of saved artifacts.
type Compression = compress.Type

// Supported compressions.
const (
	CompressionNone = compress.None
	CompressionGzip = compress.Gzip
	CompressionZstd = compress.Zstd
	CompressionLZ4  = compress.LZ4
)

// ParseCompression returns the Compression named by s ("none", "gzip", "zstd"
// or "lz4").
func ParseCompression(s string) (Compression, error) {
	return compress.Parse(s)
}

type saveOptions struct {
	compression compress.Type
	codec       codec.Codec
}

// SaveOption configures Save and WriteFile.
type SaveOption func(*saveOptions)

// WithCompression compresses every artifact with t. The blob names carry the
// matching suffix (.gz, .zst, .lz4).
func WithCompression(t Compression) SaveOption {
	return func(o *saveOptions) {
		o.compression = t
	}
}

// WithCodec configures the codec used to encode the manifest.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) SaveOption {
	return func(o *saveOptions) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

func applySaveOptions(opts []SaveOption) saveOptions {
	o := saveOptions{compression: compress.None, codec: codec.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
