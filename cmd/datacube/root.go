package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"runtime"
	"strings"

	"github.com/hupe1980/datacube"
	"github.com/hupe1980/datacube/blobstore"
	"github.com/hupe1980/datacube/blobstore/minio"
	"github.com/hupe1980/datacube/blobstore/s3"
	"github.com/hupe1980/datacube/codec"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the resolved configuration shared by all commands.
type app struct {
	v       *viper.Viper
	metrics *datacube.BasicMetricsCollector
}

func newRootCommand() *cobra.Command {
	a := &app{
		v:       viper.New(),
		metrics: &datacube.BasicMetricsCollector{},
	}

	root := &cobra.Command{
		Use:           "datacube",
		Short:         "Import, inspect and query columnar cubes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a config file (yaml, json or toml)")
	pf.String("store", ".", "Blob store: a directory, file://dir, s3://bucket/prefix or minio://host:port/bucket/prefix")
	pf.String("compression", "none", "Compression for saved artifacts (none, gzip, zstd, lz4)")
	pf.String("codec", "go-json", "Manifest codec for saved cubes (json, go-json)")
	pf.String("log-level", "error", "Log level (debug, info, warn, error)")
	pf.Int64("memory-limit", 0, "Maximum bytes of buffer pages; 0 disables the limit")
	pf.Int64("io-limit", 0, "Maximum read throughput in bytes per second; 0 disables the limit")
	pf.Int("page-size", 0, "Elements per buffer page; 0 selects the default")
	pf.String("s3-region", "", "AWS region for s3:// stores")
	pf.String("s3-endpoint", "", "S3-compatible endpoint for s3:// stores")
	pf.String("minio-access-key", "", "Access key for minio:// stores")
	pf.String("minio-secret-key", "", "Secret key for minio:// stores")
	pf.Bool("minio-tls", false, "Use HTTPS for minio:// stores")
	pf.Bool("stats", false, "Print operation statistics to stderr on exit")

	root.AddCommand(
		newVersionCommand(),
		newImportCommand(a),
		newInspectCommand(a),
		newQueryCommand(a),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "datacube v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
		},
	}
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix("DATACUBE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

func (a *app) logger() (*datacube.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return datacube.NewTextLogger(level), nil
}

// cubeOptions translates the configuration into cube options.
func (a *app) cubeOptions() ([]datacube.Option, error) {
	logger, err := a.logger()
	if err != nil {
		return nil, err
	}
	return []datacube.Option{
		datacube.WithLogger(logger),
		datacube.WithMetricsCollector(a.metrics),
		datacube.WithMemoryLimit(a.v.GetInt64("memory-limit")),
		datacube.WithIOLimit(a.v.GetInt64("io-limit")),
		datacube.WithPageSize(a.v.GetInt("page-size")),
	}, nil
}

func (a *app) saveOptions() ([]datacube.SaveOption, error) {
	c, err := datacube.ParseCompression(a.v.GetString("compression"))
	if err != nil {
		return nil, err
	}
	name := a.v.GetString("codec")
	mc, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", name)
	}
	return []datacube.SaveOption{datacube.WithCompression(c), datacube.WithCodec(mc)}, nil
}

// openStore resolves the --store location.
func (a *app) openStore(ctx context.Context) (blobstore.BlobStore, error) {
	location := a.v.GetString("store")
	if !strings.Contains(location, "://") {
		return blobstore.NewLocalStore(location), nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid store %q: %w", location, err)
	}
	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Host + u.Path), nil
	case "s3":
		opts := []s3.Option{s3.WithPrefix(strings.TrimPrefix(u.Path, "/"))}
		if region := a.v.GetString("s3-region"); region != "" {
			opts = append(opts, s3.WithRegion(region))
		}
		if endpoint := a.v.GetString("s3-endpoint"); endpoint != "" {
			opts = append(opts, s3.WithEndpoint(endpoint))
		}
		return s3.New(ctx, u.Host, opts...)
	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if bucket == "" {
			return nil, errors.New("minio store needs a bucket: minio://host:port/bucket/prefix")
		}
		opts := []minio.Option{
			minio.WithPrefix(prefix),
			minio.WithCredentials(a.v.GetString("minio-access-key"), a.v.GetString("minio-secret-key")),
		}
		if a.v.GetBool("minio-tls") {
			opts = append(opts, minio.WithTLS())
		}
		return minio.New(u.Host, bucket, opts...)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

func (a *app) printStats() {
	if !a.v.GetBool("stats") {
		return
	}
	s := a.metrics.GetStats()
	fmt.Fprintf(os.Stderr, "rows added: %d (%d errors), queries: %d, saved: %d bytes, loaded: %d bytes\n",
		s.AddRowCount, s.AddRowErrors, s.QueryCount, s.SaveBytes, s.LoadBytes)
}
