package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("datacube-"), 1000)

	for _, typ := range All {
		t.Run(typ.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, typ)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if typ != None {
				assert.Less(t, buf.Len(), len(payload))
				assert.Equal(t, typ, Detect(buf.Bytes()))
			}

			r, err := NewReader(bytes.NewReader(buf.Bytes()), typ)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, got)
		})
	}
}

func TestNewReader_MagicMismatch(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("plain text")), Gzip)
	require.ErrorIs(t, err, ErrMagicMismatch)

	_, err = NewReader(bytes.NewReader(nil), Zstd)
	require.ErrorIs(t, err, ErrMagicMismatch)
}

func TestNames(t *testing.T) {
	assert.Equal(t, Gzip, FromName("cube.dimens.bin.gz"))
	assert.Equal(t, Zstd, FromName("cube.metrics.bin.zst"))
	assert.Equal(t, LZ4, FromName("cube.manifest.json.lz4"))
	assert.Equal(t, None, FromName("cube.manifest.json"))

	for _, typ := range All {
		parsed, err := Parse(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	typ, err := Parse("GZ")
	require.NoError(t, err)
	assert.Equal(t, Gzip, typ)

	_, err = Parse("brotli")
	require.ErrorIs(t, err, ErrUnknown)

	_, err = NewWriter(io.Discard, Type(99))
	require.ErrorIs(t, err, ErrUnknown)
}
