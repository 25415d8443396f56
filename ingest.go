package datacube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"

	"github.com/goccy/go-json"
	"github.com/hupe1980/datacube/value"
)

// FromRows builds a cube from rows by calling AddRow for each of them.
func FromRows(dimensions, metrics []string, rows []Row, opts ...Option) (*Cube, error) {
	c, err := New(dimensions, metrics, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.AddRows(rows...); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// AddRows adds rows in order and stops at the first failure. Rows added
// before the failure are kept.
func (c *Cube) AddRows(rows ...Row) error {
	for i, row := range rows {
		if err := c.AddRow(row); err != nil {
			return fmt.Errorf("datacube: row %d: %w", i, err)
		}
	}
	return nil
}

// Ingest pulls rows from seq one at a time and adds them to the cube. It stops
// at the first error from the source, from AddRow or from ctx, and returns the
// number of rows added.
func (c *Cube) Ingest(ctx context.Context, seq iter.Seq2[Row, error]) (n int, err error) {
	defer func() {
		c.opts.logger.LogIngest(ctx, n, err)
	}()

	for row, rerr := range seq {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if rerr != nil {
			return n, fmt.Errorf("datacube: source row %d: %w", n, rerr)
		}
		if err := c.AddRow(row); err != nil {
			return n, fmt.Errorf("datacube: row %d: %w", n, err)
		}
		n++
	}
	return n, ctx.Err()
}

// DecodeRows reads newline-delimited JSON objects from r. Each object becomes
// a Row with its fields sorted by name. Decoding stops at the first error.
func DecodeRows(r io.Reader) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		dec := json.NewDecoder(r)
		for {
			var obj map[string]value.Value
			if err := dec.Decode(&obj); err != nil {
				if !errors.Is(err, io.EOF) {
					yield(nil, err)
				}
				return
			}
			row := make(Row, 0, len(obj))
			for _, name := range slices.Sorted(maps.Keys(obj)) {
				v := obj[name]
				if !v.IsValid() {
					v = value.Null()
				}
				row = append(row, Field{Name: name, Value: v})
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
