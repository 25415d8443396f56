// Package datacube provides an embeddable in-memory columnar analytic store.
//
// A Cube holds fact rows keyed by a tuple of dimension values. Each row
// carries numeric metrics that are summed when rows with the same dimension
// values are added. Dimension values are interned into a dictionary, so
// grouping, filtering and pivoting operate on dense integer columns and only
// decode values when rows are materialized.
//
// # Quick Start
//
//	c, _ := datacube.New([]string{"country", "device"}, []string{"visits"})
//	_ = c.AddRow(datacube.NewRow(
//	    datacube.F("country", "de"),
//	    datacube.F("device", "mobile"),
//	    datacube.F("visits", 3),
//	))
//
//	byCountry, _ := c.Select("country")
//	for row := range byCountry.All() {
//	    fmt.Println(row)
//	}
//
// # Queries
//
//	c.Totals()                                   // metric sums
//	c.Select("country")                          // group-by projection
//	c.Where(datacube.Filters{"device": datacube.Equals(value.String("mobile"))})
//	c.ExplodeDimension("device", nil)            // pivot into "{value}-{metric}" columns
//	c.AggregateTailValues("country", nil, 10, value.String("other"))
//
// Derived cubes share the dictionary of their source until either side adds
// new values; then the writer copies it.
//
// # Persistence
//
// A cube is stored as three artifacts sharing a prefix: a JSON manifest with
// schema and dictionary, a little-endian uint32 dimension blob and a
// little-endian float32 metric blob. Any BlobStore works:
//
//	store := blobstore.NewLocalStore("./data")
//	_ = c.Save(ctx, store, "visits", datacube.WithCompression(datacube.CompressionZstd))
//	loaded, _ := datacube.Load(ctx, store, "visits")
//
// The blobstore/s3 and blobstore/minio packages provide object-store backends.
//
// # Concurrency
//
// A Cube has a single writer. Read operations may run concurrently with each
// other but not with AddRow on the same cube.
package datacube
