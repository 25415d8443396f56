// Package paged implements a growable array of fixed-width numbers backed by
// equally sized pages.
//
// Growth appends pages instead of reallocating one large slice, so a buffer
// never copies previously written elements when it grows.
package paged

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// DefaultPageSize is the number of elements per page when none is given.
// 16 bits = 65536 elements per page.
const DefaultPageSize = 1 << 16

// ErrInvalidBufferLayout is returned when a byte blob is not a whole number
// of elements.
var ErrInvalidBufferLayout = errors.New("invalid buffer layout")

// Element is the set of element types a Buffer can hold. Both are four bytes
// wide and encoded little-endian.
type Element interface {
	uint32 | float32
}

// elementWidth is the encoded size of every Element in bytes.
const elementWidth = 4

// Buffer is a page-backed array of T.
//
// Page i covers logical indexes [i*pageSize, (i+1)*pageSize). Every page
// except possibly the last is fully allocated. A Buffer is not safe for
// concurrent mutation.
type Buffer[T Element] struct {
	pages    [][]T
	pageSize int
	length   int
}

// New creates an empty buffer. pageSize <= 0 selects DefaultPageSize.
func New[T Element](pageSize int) *Buffer[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Buffer[T]{pageSize: pageSize}
}

// FromBytes decodes a little-endian blob into a single-page buffer whose page
// size equals the element count. An empty blob yields an empty buffer with
// DefaultPageSize.
func FromBytes[T Element](data []byte) (*Buffer[T], error) {
	if len(data)%elementWidth != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidBufferLayout, len(data), elementWidth)
	}
	n := len(data) / elementWidth
	if n == 0 {
		return New[T](DefaultPageSize), nil
	}
	b := New[T](n)
	page := make([]T, n)
	for i := range page {
		page[i] = decode[T](binary.LittleEndian.Uint32(data[i*elementWidth:]))
	}
	b.pages = append(b.pages, page)
	b.length = n
	return b, nil
}

// Len returns the logical length.
func (b *Buffer[T]) Len() int { return b.length }

// PageSize returns the number of elements per page.
func (b *Buffer[T]) PageSize() int { return b.pageSize }

// NumPages returns the number of allocated pages.
func (b *Buffer[T]) NumPages() int { return len(b.pages) }

// Get returns the element at index i. The second result is false iff i is
// outside [0, Len()).
func (b *Buffer[T]) Get(i int) (T, bool) {
	if i < 0 || i >= b.length {
		var zero T
		return zero, false
	}
	return b.pages[i/b.pageSize][i%b.pageSize], true
}

// At returns the element at index i or zero when i is out of range.
func (b *Buffer[T]) At(i int) T {
	v, _ := b.Get(i)
	return v
}

// Set writes v at index i, growing the buffer as needed. Intervening pages
// are allocated zero-filled.
func (b *Buffer[T]) Set(i int, v T) {
	if i < 0 {
		panic(fmt.Sprintf("paged: negative index %d", i))
	}
	b.grow(i + 1)
	b.pages[i/b.pageSize][i%b.pageSize] = v
	if i >= b.length {
		b.length = i + 1
	}
}

// Add adds delta to the element at index i, treating an unset element as zero.
func (b *Buffer[T]) Add(i int, delta T) {
	cur, _ := b.Get(i)
	b.Set(i, cur+delta)
}

// Append writes vs after the last element.
func (b *Buffer[T]) Append(vs ...T) {
	for _, v := range vs {
		b.Set(b.length, v)
	}
}

// PagesNeeded returns how many new pages growing to n elements would allocate.
func (b *Buffer[T]) PagesNeeded(n int) int {
	need := (n + b.pageSize - 1) / b.pageSize
	return max(need-len(b.pages), 0)
}

// PageBytes returns the allocation size of one page in bytes.
func (b *Buffer[T]) PageBytes() int64 {
	return int64(b.pageSize) * elementWidth
}

func (b *Buffer[T]) grow(n int) {
	for len(b.pages)*b.pageSize < n {
		b.pages = append(b.pages, make([]T, b.pageSize))
	}
}

// CopyRange copies count elements starting at srcOffset into dest starting at
// destOffset, extending dest as needed. Elements beyond Len() copy as zero.
func (b *Buffer[T]) CopyRange(srcOffset int, dest *Buffer[T], destOffset, count int) {
	if count <= 0 {
		return
	}
	dest.grow(destOffset + count)
	for count > 0 {
		sp, so := srcOffset/b.pageSize, srcOffset%b.pageSize
		dp, do := destOffset/dest.pageSize, destOffset%dest.pageSize

		n := min(count, dest.pageSize-do)
		if sp < len(b.pages) {
			n = min(n, b.pageSize-so)
			copy(dest.pages[dp][do:do+n], b.pages[sp][so:so+n])
		} else {
			clear(dest.pages[dp][do : do+n])
		}

		srcOffset += n
		destOffset += n
		count -= n
	}
	if destOffset > dest.length {
		dest.length = destOffset
	}
}

// Slice returns a copy of the elements in [from, to), clamped to Len().
func (b *Buffer[T]) Slice(from, to int) []T {
	from = max(from, 0)
	to = min(to, b.length)
	if from >= to {
		return []T{}
	}
	out := make([]T, 0, to-from)
	for from < to {
		p, o := from/b.pageSize, from%b.pageSize
		n := min(to-from, b.pageSize-o)
		out = append(out, b.pages[p][o:o+n]...)
		from += n
	}
	return out
}

// Clone returns a deep copy with independent storage and the same page size.
func (b *Buffer[T]) Clone() *Buffer[T] {
	c := &Buffer[T]{
		pages:    make([][]T, len(b.pages)),
		pageSize: b.pageSize,
		length:   b.length,
	}
	for i, p := range b.pages {
		c.pages[i] = append([]T(nil), p...)
	}
	return c
}

// MemoryUsage returns the number of bytes held by allocated pages.
func (b *Buffer[T]) MemoryUsage() int64 {
	return int64(b.NumPages()) * b.PageBytes()
}

// WriteTo writes the buffer page by page in little-endian order. The final
// page is truncated to the logical length.
func (b *Buffer[T]) WriteTo(w io.Writer) (int64, error) {
	var written int64
	remaining := b.length
	var scratch []byte
	for _, page := range b.pages {
		if remaining <= 0 {
			break
		}
		n := min(remaining, len(page))
		if cap(scratch) < n*elementWidth {
			scratch = make([]byte, n*elementWidth)
		}
		buf := scratch[:n*elementWidth]
		for i, v := range page[:n] {
			binary.LittleEndian.PutUint32(buf[i*elementWidth:], encode(v))
		}
		m, err := w.Write(buf)
		written += int64(m)
		if err != nil {
			return written, err
		}
		remaining -= n
	}
	return written, nil
}

// ByteLen returns the encoded size of the logical contents.
func (b *Buffer[T]) ByteLen() int64 {
	return int64(b.length) * elementWidth
}

func encode[T Element](v T) uint32 {
	switch x := any(v).(type) {
	case float32:
		return math.Float32bits(x)
	default:
		return x.(uint32)
	}
}

func decode[T Element](bits uint32) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(math.Float32frombits(bits)).(T)
	default:
		return any(bits).(T)
	}
}
