package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/datacube/value"
)

func TestDictionary_Intern(t *testing.T) {
	d := New()

	a := d.Intern(value.String("a"))
	b := d.Intern(value.String("b"))
	again := d.Intern(value.String("a"))
	n := d.Intern(value.Int(1))

	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)
	assert.Equal(t, a, again)
	assert.Equal(t, uint32(2), n)
	assert.Equal(t, 3, d.Len())

	v, ok := d.ValueAt(1)
	require.True(t, ok)
	assert.True(t, v.Equal(value.String("b")))

	_, ok = d.ValueAt(3)
	assert.False(t, ok)

	i, ok := d.Lookup(value.Int(1))
	require.True(t, ok)
	assert.Equal(t, uint32(2), i)
	_, ok = d.Lookup(value.Int(2))
	assert.False(t, ok)
	assert.Equal(t, 3, d.Len(), "lookup does not intern")
}

func TestDictionary_Clone(t *testing.T) {
	d := New()
	d.Intern(value.String("x"))

	c := d.Clone()
	c.Intern(value.String("y"))

	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 2, c.Len())
	_, ok := d.Lookup(value.String("y"))
	assert.False(t, ok)
}

func TestDictionary_Replace(t *testing.T) {
	d := New()
	d.Intern(value.String("old"))

	require.NoError(t, d.Replace([]value.Value{value.String("p"), value.Int(3)}))
	assert.Equal(t, 2, d.Len())
	i, ok := d.Lookup(value.Int(3))
	require.True(t, ok)
	assert.Equal(t, uint32(1), i)
	_, ok = d.Lookup(value.String("old"))
	assert.False(t, ok)

	err := d.Replace([]value.Value{value.String("p"), value.String("p")})
	require.Error(t, err)
	assert.Equal(t, 2, d.Len(), "failed replace keeps contents")

	require.Error(t, d.Replace([]value.Value{{}}))

	values := d.Values()
	values[0] = value.String("mutated")
	v, _ := d.ValueAt(0)
	assert.True(t, v.Equal(value.String("p")))
}
