package datacube

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/hupe1980/datacube/internal/bitmap"
	"github.com/hupe1980/datacube/value"
)

// Totals returns the sum of every metric across all rows.
func (c *Cube) Totals() map[string]float64 {
	m := len(c.metrics)
	sums := make([]float64, m)
	for r := range c.rows {
		base := r * m
		for j := range sums {
			sums[j] += float64(c.values.At(base + j))
		}
	}

	out := make(map[string]float64, m)
	for j, name := range c.metrics {
		out[name] = sums[j]
	}
	return out
}

// DimensionValues returns the distinct values of dim, ordered by first
// appearance in the dictionary.
func (c *Cube) DimensionValues(dim string) ([]value.Value, error) {
	col, ok := c.dimIndex[dim]
	if !ok {
		return nil, &UnknownDimensionError{Name: dim}
	}

	seen := bitmap.New()
	d := len(c.dimensions)
	for r := range c.rows {
		seen.Add(c.dims.At(r*d + col))
	}

	out := make([]value.Value, 0, seen.Cardinality())
	for _, i := range seen.ToSlice() {
		v, _ := c.dict.ValueAt(i)
		out = append(out, v)
	}
	return out, nil
}

// columns resolves dimension names to column positions.
func (c *Cube) columns(dims []string) ([]int, error) {
	cols := make([]int, len(dims))
	for k, name := range dims {
		col, ok := c.dimIndex[name]
		if !ok {
			return nil, &UnknownDimensionError{Name: name}
		}
		cols[k] = col
	}
	return cols, nil
}

// Select groups the cube by dims and sums the metrics of every group.
//
// The result has the given dimensions in the given order and the same
// metrics. With no dims, all rows collapse into a single total row (or none
// if the cube is empty).
func (c *Cube) Select(dims ...string) (out *Cube, err error) {
	start := time.Now()
	defer func() { c.recordQuery("select", out, start, err) }()

	cols, err := c.columns(dims)
	if err != nil {
		return nil, err
	}
	out, err = c.derive(dims, c.metrics)
	if err != nil {
		return nil, err
	}

	d, m := len(c.dimensions), len(c.metrics)
	tuple := make([]uint32, len(cols))
	metrics := make([]float32, m)
	for r := range c.rows {
		for k, col := range cols {
			tuple[k] = c.dims.At(r*d + col)
		}
		for j := range metrics {
			metrics[j] = c.values.At(r*m + j)
		}
		if err := out.merge(tuple, metrics); err != nil {
			_ = out.Close()
			return nil, err
		}
	}
	return out, nil
}

// Where returns the rows accepted by every filter, in their original order.
// Rows are copied without re-aggregation. An empty filter set returns c
// itself.
func (c *Cube) Where(filters Filters) (out *Cube, err error) {
	if len(filters) == 0 {
		return c, nil
	}

	start := time.Now()
	defer func() { c.recordQuery("where", out, start, err) }()

	cols := make(map[string]int, len(filters))
	for name := range filters {
		col, ok := c.dimIndex[name]
		if !ok {
			return nil, &UnknownDimensionError{Name: name}
		}
		cols[name] = col
	}

	// Each filter yields the set of rows it accepts; the result is their
	// intersection.
	d, m := len(c.dimensions), len(c.metrics)
	var matched *bitmap.Set
	for name, f := range filters {
		col := cols[name]
		memo := make(map[uint32]bool)
		accepted := bitmap.New()
		for r := range c.rows {
			idx := c.dims.At(r*d + col)
			ok, seen := memo[idx]
			if !seen {
				v, _ := c.dict.ValueAt(idx)
				ok = f.Match(v)
				memo[idx] = ok
			}
			if ok {
				accepted.Add(uint32(r)) //nolint:gosec // rows never exceed MaxUint32
			}
		}
		if matched == nil {
			matched = accepted
		} else {
			matched.And(accepted)
		}
		if matched.IsEmpty() {
			break
		}
	}

	out, err = c.derive(c.dimensions, c.metrics)
	if err != nil {
		return nil, err
	}
	if err := out.reserveRows(matched.Cardinality()); err != nil {
		_ = out.Close()
		return nil, err
	}
	for r := range matched.Values() {
		src := int(r)
		c.dims.CopyRange(src*d, out.dims, out.rows*d, d)
		c.values.CopyRange(src*m, out.values, out.rows*m, m)
		out.rows++
	}
	out.keys = nil
	return out, nil
}

// Row materializes row i.
func (c *Cube) Row(i int) (Row, bool) {
	if i < 0 || i >= c.rows {
		return nil, false
	}
	d, m := len(c.dimensions), len(c.metrics)
	row := make(Row, 0, d+m)
	for k, name := range c.dimensions {
		v, _ := c.dict.ValueAt(c.dims.At(i*d + k))
		row = append(row, Field{Name: name, Value: v})
	}
	for j, name := range c.metrics {
		row = append(row, Field{Name: name, Value: value.Float(float64(c.values.At(i*m + j)))})
	}
	return row, true
}

// All returns an iterator over the materialized rows in row order.
func (c *Cube) All() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := range c.rows {
			row, _ := c.Row(i)
			if !yield(row) {
				return
			}
		}
	}
}

// Rows materializes every row.
func (c *Cube) Rows() []Row {
	rows := make([]Row, 0, c.rows)
	for row := range c.All() {
		rows = append(rows, row)
	}
	return rows
}

// DefaultColumnName names exploded metrics "{value}-{metric}".
func DefaultColumnName(v value.Value, metric string) string {
	return v.String() + "-" + metric
}

// ExplodeDimension pivots dim into metric columns.
//
// Every metric m of a row whose dim value is v moves into the metric named
// naming(v, m). The result drops dim, keeps the remaining dimensions and has
// the derived metrics in first-encountered order; rows that collide on the
// remaining dimensions are summed. Derived metrics absent from a row are zero.
// A nil naming selects DefaultColumnName.
func (c *Cube) ExplodeDimension(dim string, naming func(v value.Value, metric string) string) (out *Cube, err error) {
	start := time.Now()
	defer func() { c.recordQuery("explode", out, start, err) }()

	col, ok := c.dimIndex[dim]
	if !ok {
		return nil, &UnknownDimensionError{Name: dim}
	}
	if naming == nil {
		naming = DefaultColumnName
	}

	d, m := len(c.dimensions), len(c.metrics)
	rest := slices.Delete(slices.Clone(c.dimensions), col, col+1)

	var names []string
	position := make(map[string]int)
	// targets[idx][j] is the derived column of metric j for dictionary index idx.
	targets := make(map[uint32][]int)
	for r := range c.rows {
		idx := c.dims.At(r*d + col)
		if _, ok := targets[idx]; ok {
			continue
		}
		v, _ := c.dict.ValueAt(idx)
		cols := make([]int, m)
		for j, metric := range c.metrics {
			name := naming(v, metric)
			p, ok := position[name]
			if !ok {
				p = len(names)
				position[name] = p
				names = append(names, name)
			}
			cols[j] = p
		}
		targets[idx] = cols
	}

	out, err = c.derive(rest, names)
	if err != nil {
		return nil, err
	}

	tuple := make([]uint32, 0, len(rest))
	metrics := make([]float32, len(names))
	for r := range c.rows {
		tuple = tuple[:0]
		for k := range d {
			if k != col {
				tuple = append(tuple, c.dims.At(r*d+k))
			}
		}
		clear(metrics)
		for j, p := range targets[c.dims.At(r*d+col)] {
			metrics[p] += c.values.At(r*m + j)
		}
		if err := out.merge(tuple, metrics); err != nil {
			_ = out.Close()
			return nil, err
		}
	}
	return out, nil
}

// AggregateTailValues keeps the n leading values of dim and folds every other
// value into placeholder.
//
// The values of dim are ranked by sorting Select(dim).Rows() with cmp, a
// stable sort so ties keep their first-seen order. A nil cmp ranks by the
// first metric, descending. Rows whose dim value is not kept are rewritten to
// placeholder and summed together.
func (c *Cube) AggregateTailValues(dim string, cmp func(a, b Row) int, n int, placeholder value.Value) (out *Cube, err error) {
	start := time.Now()
	defer func() { c.recordQuery("aggregate_tail", out, start, err) }()

	col, ok := c.dimIndex[dim]
	if !ok {
		return nil, &UnknownDimensionError{Name: dim}
	}
	if !placeholder.IsValid() {
		return nil, fmt.Errorf("%w: placeholder", ErrInvalidValue)
	}
	if cmp == nil {
		cmp = c.defaultRanking()
	}

	grouped, err := c.Select(dim)
	if err != nil {
		return nil, err
	}
	ranked := grouped.Rows()
	_ = grouped.Close()
	slices.SortStableFunc(ranked, cmp)

	kept := bitmap.New()
	for _, row := range ranked[:min(max(n, 0), len(ranked))] {
		if i, ok := c.dict.Lookup(row[0].Value); ok {
			kept.Add(i)
		}
	}

	out, err = c.derive(c.dimensions, c.metrics)
	if err != nil {
		return nil, err
	}

	d, m := len(c.dimensions), len(c.metrics)
	tuple := make([]uint32, d)
	metrics := make([]float32, m)
	var (
		tail     uint32
		haveTail bool
	)
	for r := range c.rows {
		for k := range tuple {
			tuple[k] = c.dims.At(r*d + k)
		}
		if !kept.Contains(tuple[col]) {
			if !haveTail {
				out.ownDict()
				tail, haveTail = out.dict.Intern(placeholder), true
			}
			tuple[col] = tail
		}
		for j := range metrics {
			metrics[j] = c.values.At(r*m + j)
		}
		if err := out.merge(tuple, metrics); err != nil {
			_ = out.Close()
			return nil, err
		}
	}
	return out, nil
}

func (c *Cube) defaultRanking() func(a, b Row) int {
	if len(c.metrics) == 0 {
		return func(Row, Row) int { return 0 }
	}
	return ByMetricDesc(c.metrics[0])
}

func (c *Cube) recordQuery(op string, out *Cube, start time.Time, err error) {
	rows := 0
	if out != nil {
		rows = out.rows
	}
	c.opts.metricsCollector.RecordQuery(op, rows, time.Since(start), err)
	c.opts.logger.LogQuery(context.Background(), op, rows, err)
}
