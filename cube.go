package datacube

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hupe1980/datacube/internal/conv"
	"github.com/hupe1980/datacube/internal/dict"
	"github.com/hupe1980/datacube/internal/paged"
	"github.com/hupe1980/datacube/value"
)

// Cube is an in-memory columnar store of aggregated fact rows.
//
// Each row is identified by its tuple of dimension values and carries one
// running sum per metric. Dimension values are interned into a dictionary
// shared by all dimension columns; the dimension buffer stores the resulting
// indexes row-major, the metric buffer stores float32 sums row-major.
//
// A Cube is safe for concurrent reads. AddRow and the other mutating methods
// must not run concurrently with any other method on the same Cube.
type Cube struct {
	dimensions  []string
	metrics     []string
	dimIndex    map[string]int
	metricIndex map[string]int

	dict *dict.Dictionary
	// sharedDict marks a dictionary that is also referenced by another cube.
	// It is cloned before the first intern.
	sharedDict atomic.Bool

	dims   *paged.Buffer[uint32]
	values *paged.Buffer[float32]
	rows   int

	// keys maps the encoded dimension tuple to its row. nil means it must be
	// rebuilt before the next merge.
	keys   map[string]uint32
	keyBuf []byte
	tuple  []uint32
	dvals  []value.Value
	mvals  []float32

	opts     *options
	acquired int64
	tracked  int64
}

// New creates an empty cube with the given schema.
//
// Names must be non-empty and unique across dimensions and metrics, otherwise
// New fails with ErrInvalidSchema.
func New(dimensions, metrics []string, opts ...Option) (*Cube, error) {
	return newCube(dimensions, metrics, applyOptions(opts))
}

func newCube(dimensions, metrics []string, o *options) (*Cube, error) {
	c := &Cube{
		dimensions:  slices.Clone(dimensions),
		metrics:     slices.Clone(metrics),
		dimIndex:    make(map[string]int, len(dimensions)),
		metricIndex: make(map[string]int, len(metrics)),
		dict:        dict.New(),
		dims:        paged.New[uint32](o.pageSize),
		values:      paged.New[float32](o.pageSize),
		keys:        make(map[string]uint32),
		opts:        o,
	}
	for i, name := range c.dimensions {
		if err := c.checkName(name); err != nil {
			return nil, err
		}
		c.dimIndex[name] = i
	}
	for i, name := range c.metrics {
		if err := c.checkName(name); err != nil {
			return nil, err
		}
		c.metricIndex[name] = i
	}
	return c, nil
}

func (c *Cube) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}
	_, isDim := c.dimIndex[name]
	_, isMetric := c.metricIndex[name]
	if isDim || isMetric {
		return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, name)
	}
	return nil
}

// derive creates an empty cube that shares c's dictionary and options.
func (c *Cube) derive(dimensions, metrics []string) (*Cube, error) {
	out, err := newCube(dimensions, metrics, c.opts)
	if err != nil {
		return nil, err
	}
	out.dict = c.dict
	out.sharedDict.Store(true)
	c.sharedDict.Store(true)
	return out, nil
}

// Dimensions returns the dimension names in column order.
func (c *Cube) Dimensions() []string { return slices.Clone(c.dimensions) }

// Metrics returns the metric names in column order.
func (c *Cube) Metrics() []string { return slices.Clone(c.metrics) }

// Count returns the number of rows.
func (c *Cube) Count() int { return c.rows }

// MemoryUsage returns the bytes held by the cube's buffer pages.
func (c *Cube) MemoryUsage() int64 {
	return c.dims.MemoryUsage() + c.values.MemoryUsage()
}

// AddRow merges row into the cube.
//
// The row must carry every dimension and metric of the schema; extra fields
// are ignored. If a row with the same dimension values exists, the metrics
// are added to it; otherwise a new row is appended. On error the cube is
// unchanged.
func (c *Cube) AddRow(row Row) (err error) {
	start := time.Now()
	defer func() {
		c.opts.metricsCollector.RecordAddRow(time.Since(start), err)
	}()

	if err := c.extract(row); err != nil {
		return err
	}

	// Values that were never interned cannot belong to an existing row.
	tuple, known := c.tuple[:0], true
	for _, v := range c.dvals {
		i, ok := c.dict.Lookup(v)
		if !ok {
			known = false
			break
		}
		tuple = append(tuple, i)
	}
	if known {
		c.ensureIndex()
		if r, ok := c.keys[string(c.encodeKey(tuple))]; ok {
			c.accumulate(int(r), c.mvals)
			c.tuple = tuple
			return nil
		}
	}

	if err := c.reserveRows(1); err != nil {
		return err
	}
	c.ownDict()
	tuple = tuple[:0]
	for _, v := range c.dvals {
		tuple = append(tuple, c.dict.Intern(v))
	}
	c.appendRow(tuple, c.mvals)
	c.tuple = tuple
	return nil
}

// extract validates row and fills the dvals and mvals scratch slices.
func (c *Cube) extract(row Row) error {
	c.dvals = c.dvals[:0]
	for _, name := range c.dimensions {
		v, ok := row.Get(name)
		if !ok {
			return &MissingFieldError{Field: name}
		}
		if !v.IsValid() {
			return fmt.Errorf("%w: dimension %q", ErrInvalidValue, name)
		}
		c.dvals = append(c.dvals, v)
	}

	c.mvals = c.mvals[:0]
	for _, name := range c.metrics {
		v, ok := row.Get(name)
		if !ok {
			if !c.opts.missingMetricsAsZero {
				return &MissingFieldError{Field: name}
			}
			c.mvals = append(c.mvals, 0)
			continue
		}
		f, ok := v.AsFloat64()
		if !ok {
			return &InvalidMetricError{Field: name, Kind: v.Kind()}
		}
		c.mvals = append(c.mvals, float32(f))
	}
	return nil
}

// merge adds metrics to the row identified by tuple, appending it if new.
func (c *Cube) merge(tuple []uint32, metrics []float32) error {
	c.ensureIndex()
	if r, ok := c.keys[string(c.encodeKey(tuple))]; ok {
		c.accumulate(int(r), metrics)
		return nil
	}
	if err := c.reserveRows(1); err != nil {
		return err
	}
	c.appendRow(tuple, metrics)
	return nil
}

func (c *Cube) accumulate(r int, metrics []float32) {
	base := r * len(c.metrics)
	for j, v := range metrics {
		c.values.Add(base+j, v)
	}
}

// appendRow writes a new row. Capacity must have been reserved.
func (c *Cube) appendRow(tuple []uint32, metrics []float32) {
	c.ensureIndex()
	r := c.rows
	c.dims.Append(tuple...)
	base := r * len(c.metrics)
	for j, v := range metrics {
		c.values.Set(base+j, v)
	}
	c.keys[string(c.encodeKey(tuple))] = uint32(r) //nolint:gosec // bounded by reserveRows
	c.rows++
}

// reserveRows checks that n more rows fit the row index space and acquires
// memory for the pages they would allocate.
func (c *Cube) reserveRows(n int) error {
	total := c.rows + n
	if _, err := conv.IntToUint32(total); err != nil {
		return fmt.Errorf("datacube: row count %d: %w", total, err)
	}
	bytes := int64(c.dims.PagesNeeded(total*len(c.dimensions)))*c.dims.PageBytes() +
		int64(c.values.PagesNeeded(total*len(c.metrics)))*c.values.PageBytes()
	if bytes == 0 {
		return nil
	}
	if err := c.opts.resources.AcquireMemory(bytes); err != nil {
		return fmt.Errorf("datacube: grow by %d bytes (limit %d): %w", bytes, c.opts.resources.MemoryLimit(), err)
	}
	c.acquired += bytes
	return nil
}

// ownDict makes the dictionary private before it is mutated.
func (c *Cube) ownDict() {
	if c.sharedDict.Load() {
		c.dict = c.dict.Clone()
		c.sharedDict.Store(false)
	}
}

// encodeKey returns the little-endian bytes of tuple in the key scratch
// buffer. The result is only valid until the next call.
func (c *Cube) encodeKey(tuple []uint32) []byte {
	buf := c.keyBuf[:0]
	for _, i := range tuple {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	c.keyBuf = buf
	return buf
}

// ensureIndex rebuilds the key index after a load or a filter.
func (c *Cube) ensureIndex() {
	if c.keys != nil {
		return
	}
	d := len(c.dimensions)
	c.keys = make(map[string]uint32, c.rows)
	for r := range c.rows {
		tuple := c.dims.Slice(r*d, (r+1)*d)
		c.keys[string(c.encodeKey(tuple))] = uint32(r) //nolint:gosec // rows never exceed MaxUint32
	}
}

// Clone returns a deep copy that shares no mutable state with c.
func (c *Cube) Clone() *Cube {
	out, _ := newCube(c.dimensions, c.metrics, c.opts)
	out.dict = c.dict.Clone()
	out.dims = c.dims.Clone()
	out.values = c.values.Clone()
	out.rows = c.rows
	out.keys = nil
	out.tracked = out.MemoryUsage()
	c.opts.resources.TrackMemory(out.tracked)
	return out
}

// Close returns the memory accounted to c to the cube family's budget. The
// cube stays readable. Close is idempotent and a no-op without a memory limit.
func (c *Cube) Close() error {
	if c == nil {
		return nil
	}
	c.opts.resources.ReleaseMemory(c.acquired)
	c.opts.resources.UntrackMemory(c.tracked)
	c.acquired, c.tracked = 0, 0
	return nil
}
