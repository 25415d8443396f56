// Package blobstore provides the storage abstraction for persisted cubes.
//
// A persisted cube is a handful of named, immutable blobs (manifest,
// dimension blob, metric blob). BlobStore reads and writes them by name.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and atomic writes
//   - MemoryStore: in-process map, for tests and ephemeral pipelines
//   - s3.Store: Amazon S3 with ranged reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)           // Open for reading
//	    Create(ctx, name) (WritableBlob, error) // Create for writing
//	    Put(ctx, name, data) error              // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Open must return an error satisfying errors.Is(err, ErrNotFound) for a
// missing blob; the cube loader relies on it to probe compressed variants.
package blobstore
