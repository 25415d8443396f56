package datacube

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/hupe1980/datacube/blobstore"
	"github.com/hupe1980/datacube/codec"
	"github.com/hupe1980/datacube/internal/compress"
	"github.com/hupe1980/datacube/internal/conv"
	"github.com/hupe1980/datacube/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedCube(t *testing.T) *Cube {
	t.Helper()
	return newTestCube(t, []string{"key", "label"}, []string{"m1", "m2"}, []Row{
		NewRow(F("key", 2), F("label", "int"), F("m1", 1), F("m2", 0.5)),
		NewRow(F("key", 2.0), F("label", "float"), F("m1", 2), F("m2", 1.5)),
		NewRow(F("key", "2"), F("label", "string"), F("m1", 3), F("m2", 2.5)),
		NewRow(F("key", true), F("label", "bool"), F("m1", 4), F("m2", 3.5)),
		NewRow(F("key", nil), F("label", "null"), F("m1", 5), F("m2", 4.5)),
		NewRow(F("key", 2), F("label", "int"), F("m1", 10), F("m2", 0.25)),
	}, WithPageSize(4))
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()

	for _, typ := range compress.All {
		t.Run("Memory/"+typ.String(), func(t *testing.T) {
			c := mixedCube(t)
			store := blobstore.NewMemoryStore()
			require.NoError(t, c.Save(ctx, store, "cubes/mixed", WithCompression(typ)))

			names, err := store.List(ctx, "cubes/")
			require.NoError(t, err)
			assert.Equal(t, []string{
				"cubes/mixed.dimens.bin" + typ.Suffix(),
				"cubes/mixed.manifest.json" + typ.Suffix(),
				"cubes/mixed.metrics.bin" + typ.Suffix(),
			}, names)

			loaded, err := Load(ctx, store, "cubes/mixed")
			require.NoError(t, err)
			assert.Equal(t, c.Dimensions(), loaded.Dimensions())
			assert.Equal(t, c.Metrics(), loaded.Metrics())
			assert.Equal(t, c.Rows(), loaded.Rows())
			assert.Equal(t, c.Totals(), loaded.Totals())
		})

		t.Run("File/"+typ.String(), func(t *testing.T) {
			c := mixedCube(t)
			path := filepath.Join(t.TempDir(), "mixed")
			require.NoError(t, WriteFile(ctx, c, path, WithCompression(typ)))

			loaded, err := ReadFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, c.Rows(), loaded.Rows())
		})
	}
}

func TestSaveLoad_Empty(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	c, err := New([]string{"d1"}, []string{"m1"})
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, store, "empty"))

	loaded, err := Load(ctx, store, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Count())

	require.NoError(t, loaded.AddRow(NewRow(F("d1", "a"), F("m1", 1))))
	assert.Equal(t, 1, loaded.Count())
}

func TestSaveLoad_NoMetrics(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	c := newTestCube(t, []string{"d1"}, nil, []Row{NewRow(F("d1", "a")), NewRow(F("d1", "b"))})
	require.NoError(t, c.Save(ctx, store, "dims"))

	loaded, err := Load(ctx, store, "dims")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Count())
	assert.Equal(t, c.Rows(), loaded.Rows())
}

func TestLoad_ContinuesIngestion(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	c := twoDimCube(t)
	require.NoError(t, c.Save(ctx, store, "cube"))

	loaded, err := Load(ctx, store, "cube")
	require.NoError(t, err)
	require.NoError(t, loaded.AddRow(NewRow(F("d1", "a"), F("d2", "b"), F("m1", 1))))
	require.NoError(t, loaded.AddRow(NewRow(F("d1", "x"), F("d2", "b"), F("m1", 1))))

	assert.Equal(t, 3, loaded.Count())
	assert.Equal(t, map[string]float64{"m1": 7}, loaded.Totals())
}

func TestSave_ReplacesOtherCompression(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	c := twoDimCube(t)
	require.NoError(t, c.Save(ctx, store, "cube", WithCompression(compress.Gzip)))
	require.NoError(t, c.Save(ctx, store, "cube", WithCodec(codec.JSON{})))

	names, err := store.List(ctx, "cube")
	require.NoError(t, err)
	assert.Equal(t, []string{"cube.dimens.bin", "cube.manifest.json", "cube.metrics.bin"}, names)

	b, err := store.Open(ctx, "cube.manifest.json")
	require.NoError(t, err)
	data, err := blobstore.ReadAll(ctx, b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dimens":["d1","d2"],"metrics":["m1"],"count":2,"dimenIndexToValue":["a","b","c"]}`, string(data))
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *blobstore.MemoryStore {
		t.Helper()
		store := blobstore.NewMemoryStore()
		require.NoError(t, twoDimCube(t).Save(ctx, store, "cube"))
		return store
	}

	t.Run("MissingManifest", func(t *testing.T) {
		_, err := Load(ctx, blobstore.NewMemoryStore(), "cube")
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("MissingBlob", func(t *testing.T) {
		store := setup(t)
		require.NoError(t, store.Delete(ctx, "cube.metrics.bin"))
		_, err := Load(ctx, store, "cube")
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Truncated", func(t *testing.T) {
		store := setup(t)
		require.NoError(t, store.Put(ctx, "cube.dimens.bin", make([]byte, 8)))

		_, err := Load(ctx, store, "cube")
		require.ErrorIs(t, err, ErrSchemaMismatch)

		var sme *SchemaMismatchError
		require.ErrorAs(t, err, &sme)
		assert.Equal(t, "cube.dimens.bin", sme.Artifact)
		assert.Equal(t, int64(16), sme.Expected)
		assert.Equal(t, int64(8), sme.Actual)
	})

	t.Run("Misaligned", func(t *testing.T) {
		store := setup(t)
		require.NoError(t, store.Put(ctx, "cube.metrics.bin", make([]byte, 7)))

		_, err := Load(ctx, store, "cube")
		require.ErrorIs(t, err, ErrSchemaMismatch)
		require.ErrorIs(t, err, ErrInvalidBufferLayout)
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		store := setup(t)
		var blob []byte
		for _, idx := range []uint32{0, 1, 0, 99} {
			blob = binary.LittleEndian.AppendUint32(blob, idx)
		}
		require.NoError(t, store.Put(ctx, "cube.dimens.bin", blob))

		_, err := Load(ctx, store, "cube")
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("RowCountOverflow", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "cube.manifest.json",
			[]byte(`{"dimens":[],"metrics":[],"count":1099511627776,"dimenIndexToValue":[]}`)))
		require.NoError(t, store.Put(ctx, "cube.dimens.bin", nil))
		require.NoError(t, store.Put(ctx, "cube.metrics.bin", nil))

		c, err := Load(ctx, store, "cube")
		require.ErrorIs(t, err, ErrSchemaMismatch)
		require.ErrorIs(t, err, conv.ErrOverflow)
		assert.Nil(t, c)
	})

	t.Run("CorruptCompression", func(t *testing.T) {
		store := setup(t)
		require.NoError(t, store.Delete(ctx, "cube.manifest.json"))
		require.NoError(t, store.Put(ctx, "cube.manifest.json.gz", []byte(`{"dimens":[]}`)))

		_, err := Load(ctx, store, "cube")
		require.ErrorIs(t, err, compress.ErrMagicMismatch)
	})
}

func TestSaveLoad_Instrumentation(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mc := &BasicMetricsCollector{}

	c, err := FromRows([]string{"d1"}, []string{"m1"}, []Row{
		NewRow(F("d1", "a"), F("m1", 1)),
	}, WithMetricsCollector(mc))
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, store, "cube"))

	_, err = Load(ctx, store, "cube", WithMetricsCollector(mc), WithIOLimit(1<<20))
	require.NoError(t, err)
	_, err = Load(ctx, store, "missing", WithMetricsCollector(mc))
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.AddRowCount)
	assert.Equal(t, int64(1), stats.SaveCount)
	assert.Positive(t, stats.SaveBytes)
	assert.Equal(t, int64(2), stats.LoadCount)
	assert.Equal(t, int64(1), stats.LoadErrors)
	assert.Equal(t, stats.SaveBytes, stats.LoadBytes)
}

func TestLoad_ValueKinds(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, mixedCube(t).Save(ctx, store, "mixed"))

	loaded, err := Load(ctx, store, "mixed")
	require.NoError(t, err)

	vals, err := loaded.DimensionValues("key")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(2), value.Float(2), value.String("2"), value.Bool(true), value.Null()}, vals)
}
