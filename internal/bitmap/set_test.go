package bitmap

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty())

	assert.True(t, s.Add(5))
	assert.True(t, s.Add(1))
	assert.False(t, s.Add(5), "second add reports presence")

	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(2))
	assert.Equal(t, 2, s.Cardinality())
	assert.Equal(t, []uint32{1, 5}, s.ToSlice())
	assert.Equal(t, []uint32{1, 5}, slices.Collect(s.Values()))
}

func setOf(vs ...uint32) *Set {
	s := New()
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

func TestSet_And(t *testing.T) {
	a := setOf(0, 1, 2, 3, 4, 5)
	b := setOf(3, 4, 42)
	a.And(b)

	assert.Equal(t, []uint32{3, 4}, a.ToSlice())
	assert.Equal(t, 3, b.Cardinality(), "argument is unchanged")

	a.And(setOf(7))
	assert.True(t, a.IsEmpty())
}

func TestSet_ValuesEarlyStop(t *testing.T) {
	s := setOf(1, 2, 3, 4)
	var got []uint32
	for v := range s.Values() {
		if v > 2 {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []uint32{1, 2}, got)
}
