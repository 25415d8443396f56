// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems (Ceph, Garage,
// SeaweedFS) without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "cubes",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("sales/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = cube.Save(ctx, store, "2024-q1")
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
