package datacube

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/hupe1980/datacube/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(rows []Row, errAt int, err error) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for i, row := range rows {
			if i == errAt {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func TestIngest(t *testing.T) {
	rows := []Row{
		NewRow(F("d1", "a"), F("m1", 1)),
		NewRow(F("d1", "b"), F("m1", 2)),
		NewRow(F("d1", "a"), F("m1", 3)),
	}

	t.Run("All", func(t *testing.T) {
		c, err := New([]string{"d1"}, []string{"m1"})
		require.NoError(t, err)

		n, err := c.Ingest(context.Background(), seqOf(rows, -1, nil))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, 2, c.Count())
		assert.Equal(t, map[string]float64{"m1": 6}, c.Totals())
	})

	t.Run("SourceError", func(t *testing.T) {
		c, err := New([]string{"d1"}, []string{"m1"})
		require.NoError(t, err)

		boom := errors.New("boom")
		n, err := c.Ingest(context.Background(), seqOf(rows, 1, boom))
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, n)
		assert.Equal(t, map[string]float64{"m1": 1}, c.Totals())
	})

	t.Run("RowError", func(t *testing.T) {
		c, err := New([]string{"d1"}, []string{"m1"})
		require.NoError(t, err)

		bad := slices.Clone(rows)
		bad[1] = NewRow(F("m1", 2))
		pulled := 0
		seq := func(yield func(Row, error) bool) {
			for _, row := range bad {
				pulled++
				if !yield(row, nil) {
					return
				}
			}
		}

		n, err := c.Ingest(context.Background(), seq)
		require.ErrorIs(t, err, ErrMissingField)
		assert.Equal(t, 1, n)
		assert.Equal(t, 2, pulled, "stream stops at the failing row")
	})

	t.Run("Canceled", func(t *testing.T) {
		c, err := New([]string{"d1"}, []string{"m1"})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		n, err := c.Ingest(ctx, seqOf(rows, -1, nil))
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, n)
	})
}

func TestAddRows(t *testing.T) {
	c, err := New([]string{"d1"}, []string{"m1"})
	require.NoError(t, err)

	err = c.AddRows(
		NewRow(F("d1", "a"), F("m1", 1)),
		NewRow(F("d1", "b")),
		NewRow(F("d1", "c"), F("m1", 1)),
	)
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "row 1")
	assert.Equal(t, 1, c.Count())

	_, err = FromRows([]string{"d1"}, []string{"m1"}, []Row{NewRow(F("m1", 1))})
	require.ErrorIs(t, err, ErrMissingField)
}

func TestDecodeRows(t *testing.T) {
	input := `{"d1":"a","m1":2}
{"m1":3.5,"d1":"b"}
{"d1":null,"m1":1,"flag":true}
`
	var rows []Row
	for row, err := range DecodeRows(strings.NewReader(input)) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.Len(t, rows, 3)
	assert.Equal(t, NewRow(F("d1", "a"), F("m1", 2)), rows[0])
	assert.Equal(t, NewRow(F("d1", "b"), F("m1", 3.5)), rows[1])
	assert.Equal(t, []string{"d1", "flag", "m1"}, rows[2].Names())

	v, ok := rows[2].Get("d1")
	require.True(t, ok)
	assert.Equal(t, value.KindNull, v.Kind())

	c, err := New([]string{"d1"}, []string{"m1"})
	require.NoError(t, err)
	n, err := c.Ingest(context.Background(), DecodeRows(strings.NewReader(input)))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, map[string]float64{"m1": 6.5}, c.Totals())
}

func TestDecodeRows_Error(t *testing.T) {
	var (
		rows int
		last error
	)
	for _, err := range DecodeRows(strings.NewReader(`{"d1":"a","m1":1}` + "\n{broken")) {
		if err != nil {
			last = err
			continue
		}
		rows++
	}
	assert.Equal(t, 1, rows)
	require.Error(t, last)
}
