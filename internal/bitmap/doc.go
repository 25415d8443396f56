// Package bitmap provides the compressed uint32 sets used by cube queries.
//
// A Set holds row indexes (filter results) or dictionary indexes (distinct
// dimension values). It wraps the official Roaring implementation; iteration
// is always in ascending order.
package bitmap
