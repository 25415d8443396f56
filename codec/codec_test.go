package codec

import (
	"testing"

	"github.com/hupe1980/datacube/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Dimens []string      `json:"dimens"`
	Values []value.Value `json:"values"`
	Count  int           `json:"count"`
}

func TestCodecs(t *testing.T) {
	in := payload{
		Dimens: []string{"country", "year"},
		Values: []value.Value{value.String("us"), value.Int(2020), value.Float(2), value.Bool(true)},
		Count:  3,
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)
			assert.JSONEq(t, `{"dimens":["country","year"],"values":["us",2020,2.0,true],"count":3}`, string(data))

			var out payload
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in.Dimens, out.Dimens)
			assert.Equal(t, in.Count, out.Count)
			require.Len(t, out.Values, len(in.Values))
			for i := range in.Values {
				assert.True(t, in.Values[i].Equal(out.Values[i]), "value %d: %v != %v", i, in.Values[i], out.Values[i])
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func BenchmarkCodec_Marshal(b *testing.B) {
	in := payload{Dimens: []string{"a", "b"}, Count: 1000}
	for i := range 1000 {
		in.Values = append(in.Values, value.Int(int64(i)), value.String("v"))
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := c.Marshal(in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
