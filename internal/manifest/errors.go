package manifest

import "errors"

var (
	// ErrInvalid is returned when a manifest is internally inconsistent.
	ErrInvalid = errors.New("invalid manifest")
)
