// Package conv provides checked integer conversions.
//
// Row and dictionary indices are stored as uint32; counts computed as int
// are checked here before they are narrowed.
package conv
