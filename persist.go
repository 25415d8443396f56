package datacube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/hupe1980/datacube/blobstore"
	"github.com/hupe1980/datacube/codec"
	"github.com/hupe1980/datacube/internal/compress"
	"github.com/hupe1980/datacube/internal/conv"
	"github.com/hupe1980/datacube/internal/manifest"
	"github.com/hupe1980/datacube/internal/paged"
	"github.com/hupe1980/datacube/internal/resource"
	"golang.org/x/sync/errgroup"
)

// Save writes the cube to store as three artifacts named after prefix: the
// manifest, the dimension blob and the metric blob, in that order.
//
// Artifacts left over from an earlier save with a different compression are
// removed. A failed write is aborted so no partial artifact is committed.
func (c *Cube) Save(ctx context.Context, store blobstore.BlobStore, prefix string, opts ...SaveOption) (err error) {
	o := applySaveOptions(opts)
	start := time.Now()
	var written int64
	defer func() {
		c.opts.metricsCollector.RecordSave(written, time.Since(start), err)
		c.opts.logger.WithCube(c.dimensions, c.metrics).LogSave(ctx, prefix, written, err)
	}()

	data, err := manifest.Encode(o.codec, &manifest.Manifest{
		Dimens:            c.dimensions,
		Metrics:           c.metrics,
		Count:             c.rows,
		DimenIndexToValue: c.dict.Values(),
	})
	if err != nil {
		return fmt.Errorf("datacube: encode manifest: %w", err)
	}

	manifestName, dimensName, metricsName := manifest.Names(prefix)
	artifacts := []struct {
		name string
		src  io.WriterTo
		size int64
	}{
		{manifestName, bytes.NewReader(data), int64(len(data))},
		{dimensName, c.dims, c.dims.ByteLen()},
		{metricsName, c.values, c.values.ByteLen()},
	}
	for _, a := range artifacts {
		n, err := writeArtifact(ctx, store, a.name, o.compression, a.src, a.size)
		written += n
		if err != nil {
			return fmt.Errorf("datacube: save %s: %w", a.name, err)
		}
	}
	return nil
}

// writeArtifact writes src to name plus the suffix of t. The uncompressed
// stream must be exactly size bytes long.
func writeArtifact(ctx context.Context, store blobstore.BlobStore, name string, t compress.Type, src io.WriterTo, size int64) (int64, error) {
	w, err := store.Create(ctx, name+t.Suffix())
	if err != nil {
		return 0, err
	}

	counter := &countingWriter{w: w}
	cw, err := compress.NewWriter(counter, t)
	if err != nil {
		_ = blobstore.Abort(w)
		return 0, err
	}
	n, err := src.WriteTo(cw)
	if err != nil {
		_ = blobstore.Abort(w)
		return 0, err
	}
	if n != size {
		_ = blobstore.Abort(w)
		return 0, fmt.Errorf("%w: wrote %d of %d bytes", io.ErrShortWrite, n, size)
	}
	if err := cw.Close(); err != nil {
		_ = blobstore.Abort(w)
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	for _, other := range compress.All {
		if other == t {
			continue
		}
		if err := store.Delete(ctx, name+other.Suffix()); err != nil {
			return counter.n, err
		}
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Load reads a cube saved under prefix.
//
// Each artifact may be stored raw or compressed. The blob sizes must match the
// manifest exactly, otherwise Load fails with ErrSchemaMismatch. Loaded
// buffers hold a single page sized to the blob.
func Load(ctx context.Context, store blobstore.BlobStore, prefix string, opts ...Option) (c *Cube, err error) {
	o := applyOptions(opts)
	start := time.Now()
	var read int64
	defer func() {
		rows := 0
		if c != nil {
			rows = c.rows
		}
		o.metricsCollector.RecordLoad(read, time.Since(start), err)
		o.logger.LogLoad(ctx, prefix, rows, err)
	}()

	manifestName, dimensName, metricsName := manifest.Names(prefix)
	data, err := readArtifact(ctx, store, manifestName, o.resources)
	if err != nil {
		return nil, fmt.Errorf("datacube: load %s: %w", manifestName, err)
	}
	read += int64(len(data))

	m, err := manifest.Decode(codec.Default, data)
	if err != nil {
		return nil, fmt.Errorf("datacube: load %s: %w", manifestName, err)
	}
	if _, err := conv.IntToUint32(m.Count); err != nil {
		return nil, fmt.Errorf("%w: %s: row count: %w", ErrSchemaMismatch, manifestName, err)
	}

	c, err = newCube(m.Dimens, m.Metrics, o)
	if err != nil {
		return nil, err
	}
	if err := c.dict.Replace(m.DimenIndexToValue); err != nil {
		return nil, fmt.Errorf("datacube: load %s: %w", manifestName, err)
	}

	var dimsData, metricsData []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := readArtifact(gctx, store, dimensName, o.resources)
		if err != nil {
			return fmt.Errorf("datacube: load %s: %w", dimensName, err)
		}
		dimsData = b
		return nil
	})
	g.Go(func() error {
		b, err := readArtifact(gctx, store, metricsName, o.resources)
		if err != nil {
			return fmt.Errorf("datacube: load %s: %w", metricsName, err)
		}
		metricsData = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	read += int64(len(dimsData) + len(metricsData))

	dims, err := decodeArtifact[uint32](dimensName, dimsData, m.DimensSize())
	if err != nil {
		return nil, err
	}
	values, err := decodeArtifact[float32](metricsName, metricsData, m.MetricsSize())
	if err != nil {
		return nil, err
	}

	size := c.dict.Len()
	for i := range dims.Len() {
		if idx := dims.At(i); int64(idx) >= int64(size) {
			return nil, fmt.Errorf("%w: %s: dictionary index %d out of range [0, %d)", ErrSchemaMismatch, dimensName, idx, size)
		}
	}

	if dims.Len() > 0 {
		c.dims = dims
	}
	if values.Len() > 0 {
		c.values = values
	}
	c.rows = m.Count
	c.keys = nil
	c.tracked = c.MemoryUsage()
	o.resources.TrackMemory(c.tracked)
	return c, nil
}

func decodeArtifact[T paged.Element](name string, data []byte, expected int64) (*paged.Buffer[T], error) {
	actual := int64(len(data))
	buf, err := paged.FromBytes[T](data)
	if err != nil {
		return nil, &SchemaMismatchError{Artifact: name, Expected: expected, Actual: actual, cause: err}
	}
	if actual != expected {
		return nil, &SchemaMismatchError{Artifact: name, Expected: expected, Actual: actual}
	}
	return buf, nil
}

// readArtifact reads name or its first compressed variant that exists.
func readArtifact(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) ([]byte, error) {
	for _, t := range compress.All {
		b, err := store.Open(ctx, name+t.Suffix())
		if errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return readBlob(ctx, b, t, rc)
	}
	return nil, &blobstore.NotFoundError{Name: name}
}

func readBlob(ctx context.Context, b blobstore.Blob, t compress.Type, rc *resource.Controller) ([]byte, error) {
	defer b.Close()

	r, err := blobstore.NewReader(ctx, b)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cr, err := compress.NewReader(resource.NewRateLimitedReader(ctx, r, rc), t)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	return io.ReadAll(cr)
}

// WriteFile saves c next to path, using the base name of path as prefix.
func WriteFile(ctx context.Context, c *Cube, path string, opts ...SaveOption) error {
	return c.Save(ctx, blobstore.NewLocalStore(filepath.Dir(path)), filepath.Base(path), opts...)
}

// ReadFile loads a cube written by WriteFile.
func ReadFile(ctx context.Context, path string, opts ...Option) (*Cube, error) {
	return Load(ctx, blobstore.NewLocalStore(filepath.Dir(path)), filepath.Base(path), opts...)
}
