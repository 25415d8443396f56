package s3

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB (larger than SDK default of 5MB for better throughput)
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5 (matches SDK default)
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation.
	// Default: true
	EnableChecksum bool

	// LeavePartsOnError keeps uploaded parts when a multipart upload fails.
	// Default: false (abort on error)
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

type options struct {
	prefix    string
	upload    UploadConfig
	configFns []func(*config.LoadOptions) error
	clientFns []func(*s3.Options)
}

// Option configures a Store.
type Option func(*options)

// WithPrefix sets the key prefix prepended to every blob name.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithUploadConfig overrides the upload settings.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *options) {
		o.upload = cfg
	}
}

// WithRegion sets the AWS region used by New.
func WithRegion(region string) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, config.WithRegion(region))
	}
}

// WithEndpoint points New at an S3-compatible endpoint using path-style
// addressing, e.g. LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.clientFns = append(o.clientFns, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(endpoint)
			so.UsePathStyle = true
		})
	}
}

// WithConfigOptions passes additional options to config.LoadDefaultConfig.
func WithConfigOptions(fns ...func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, fns...)
	}
}

func applyOptions(opts []Option) options {
	o := options{upload: DefaultUploadConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
