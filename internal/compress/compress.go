// Package compress wraps the stream codecs used for persisted cube artifacts.
//
// Each artifact may be stored raw or compressed; the compression is encoded
// in the blob name suffix and verified against the stream magic on read.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores the artifact raw.
	None Type = iota
	// Gzip uses gzip (RFC 1952).
	Gzip
	// Zstd uses Zstandard frames.
	Zstd
	// LZ4 uses LZ4 frames.
	LZ4
)

// ErrUnknown is returned for an unrecognised compression name.
var ErrUnknown = errors.New("unknown compression")

// ErrMagicMismatch is returned when a stream does not start with the magic
// its suffix promises.
var ErrMagicMismatch = errors.New("compression magic mismatch")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// All lists every supported type in probe order.
var All = []Type{None, Gzip, Zstd, LZ4}

// String returns the stable name of the type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compress.Type(%d)", uint8(t))
	}
}

// Suffix returns the conventional blob name suffix, empty for None.
func (t Type) Suffix() string {
	switch t {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	default:
		return ""
	}
}

// Parse returns the Type for a name as printed by String. The empty string
// maps to None.
func Parse(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "raw":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

// FromName infers the type from a blob name suffix.
func FromName(name string) Type {
	for _, t := range All[1:] {
		if strings.HasSuffix(name, t.Suffix()) {
			return t
		}
	}
	return None
}

// Detect infers the type from the first bytes of a stream.
func Detect(head []byte) Type {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	default:
		return None
	}
}

// NewWriter returns a writer compressing into w. Close flushes the stream but
// does not close w.
func NewWriter(w io.Writer, t Type) (io.WriteCloser, error) {
	switch t {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, t)
	}
}

// NewReader returns a reader decompressing r, which must hold a stream of
// type t. A mismatching stream magic fails with ErrMagicMismatch.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	if t == None {
		return io.NopCloser(r), nil
	}

	head := make([]byte, 4)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if got := Detect(head); got != t {
		return nil, fmt.Errorf("%w: expected %s, found %s", ErrMagicMismatch, t, got)
	}
	r = io.MultiReader(bytes.NewReader(head), r)

	switch t {
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, t)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
