// Package dict implements the value dictionary that maps dimension values to
// dense uint32 indexes.
//
// A cube owns one Dictionary for all of its dimension columns, so equal values
// in different columns share an index. Indexes are assigned in first-seen
// order and are never reused or freed.
package dict

import (
	"fmt"
	"math"

	"github.com/hupe1980/datacube/value"
)

// Dictionary interns values. It is not safe for concurrent mutation.
type Dictionary struct {
	values []value.Value
	index  map[value.Key]uint32
}

// New creates an empty dictionary.
func New() *Dictionary {
	return &Dictionary{index: make(map[value.Key]uint32)}
}

// Intern returns the index of v, appending it first when unseen.
func (d *Dictionary) Intern(v value.Value) uint32 {
	k := v.Key()
	if i, ok := d.index[k]; ok {
		return i
	}
	if uint64(len(d.values)) >= math.MaxUint32 {
		panic("dict: index space exhausted")
	}
	i := uint32(len(d.values))
	d.values = append(d.values, v)
	d.index[k] = i
	return i
}

// Lookup returns the index of v without interning it.
func (d *Dictionary) Lookup(v value.Value) (uint32, bool) {
	i, ok := d.index[v.Key()]
	return i, ok
}

// ValueAt returns the value interned at index i.
func (d *Dictionary) ValueAt(i uint32) (value.Value, bool) {
	if int(i) >= len(d.values) {
		return value.Value{}, false
	}
	return d.values[i], true
}

// Len returns the number of interned values.
func (d *Dictionary) Len() int { return len(d.values) }

// Values returns a copy of the interned values ordered by index.
func (d *Dictionary) Values() []value.Value {
	return append([]value.Value(nil), d.values...)
}

// Clone returns an independent copy.
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{
		values: append([]value.Value(nil), d.values...),
		index:  make(map[value.Key]uint32, len(d.index)),
	}
	for k, i := range d.index {
		c.index[k] = i
	}
	return c
}

// Replace discards the current contents and installs values, where the
// position of each value is its index. Duplicate or invalid values are
// rejected and leave the dictionary unchanged.
func (d *Dictionary) Replace(values []value.Value) error {
	index := make(map[value.Key]uint32, len(values))
	for i, v := range values {
		if !v.IsValid() {
			return fmt.Errorf("dict: invalid value at index %d", i)
		}
		k := v.Key()
		if prev, ok := index[k]; ok {
			return fmt.Errorf("dict: value %#v at index %d duplicates index %d", v, i, prev)
		}
		index[k] = uint32(i)
	}
	d.values = append([]value.Value(nil), values...)
	d.index = index
	return nil
}
