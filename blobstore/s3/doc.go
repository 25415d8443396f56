// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("cubes/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	err = cube.Save(ctx, store, "sales/2024", datacube.WithCompression(compress.Zstd))
//	loaded, err := datacube.Load(ctx, store, "sales/2024")
//
// # Features
//
//   - Range reads for partial fetches
//   - Streaming multipart uploads with CRC32C integrity checks
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
