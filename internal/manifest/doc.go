// Package manifest implements the schema record of a persisted cube.
//
// # Overview
//
// A persisted cube is three artifacts sharing a prefix: the manifest, the
// dimension blob and the metric blob. The manifest carries everything needed
// to interpret the two headerless blobs:
//
//	{
//	  "dimens":            ["country", "year"],
//	  "metrics":           ["revenue"],
//	  "count":             2,
//	  "dimenIndexToValue": ["us", 2020, "de"]
//	}
//
// dimenIndexToValue is the shared value dictionary; a value's position is its
// index. The dimension blob holds count*len(dimens) little-endian uint32
// indices, the metric blob count*len(metrics) little-endian float32 sums.
//
// Encoding goes through a codec.Codec, so any JSON implementation produces the
// same bytes.
package manifest
