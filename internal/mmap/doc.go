// Package mmap provides read-only memory-mapped file access.
//
// The local blob store maps persisted dimension and metric blobs instead of
// reading them through an intermediate buffer:
//
//	m, err := mmap.Open("cube.dimens.bin")
//	if err != nil { ... }
//	defer m.Close()
//
//	m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile, where Advise is a no-op.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch slices returned by Bytes after Close returns.
package mmap
