package datacube

import (
	"errors"
	"fmt"

	"github.com/hupe1980/datacube/internal/paged"
	"github.com/hupe1980/datacube/internal/resource"
	"github.com/hupe1980/datacube/value"
)

var (
	// ErrInvalidBufferLayout is returned when a blob is not a whole number of
	// four-byte elements.
	ErrInvalidBufferLayout = paged.ErrInvalidBufferLayout

	// ErrUnknownDimension is returned when an operation names a dimension that
	// is not part of the schema.
	ErrUnknownDimension = errors.New("unknown dimension")

	// ErrMissingField is returned when a row lacks a dimension or metric field.
	ErrMissingField = errors.New("missing field")

	// ErrSchemaMismatch is returned when persisted blobs disagree with the
	// manifest.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidSchema is returned for empty or duplicate field names.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrInvalidMetric is returned when a metric field is not numeric.
	ErrInvalidMetric = errors.New("invalid metric")

	// ErrInvalidValue is returned when a zero value.Value is used as a
	// dimension value.
	ErrInvalidValue = errors.New("invalid value")

	// ErrMemoryLimitExceeded is returned when growing a cube would exceed the
	// configured memory limit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// UnknownDimensionError reports a dimension name missing from the schema.
type UnknownDimensionError struct {
	Name string
}

func (e *UnknownDimensionError) Error() string {
	return fmt.Sprintf("unknown dimension %q", e.Name)
}

// Unwrap returns ErrUnknownDimension.
func (e *UnknownDimensionError) Unwrap() error { return ErrUnknownDimension }

// MissingFieldError reports a row without a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// Unwrap returns ErrMissingField.
func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// InvalidMetricError reports a metric field holding a non-numeric value.
type InvalidMetricError struct {
	Field string
	Kind  value.Kind
}

func (e *InvalidMetricError) Error() string {
	return fmt.Sprintf("metric %q must be numeric, got %s", e.Field, e.Kind)
}

// Unwrap returns ErrInvalidMetric.
func (e *InvalidMetricError) Unwrap() error { return ErrInvalidMetric }

// SchemaMismatchError reports a persisted artifact whose content does not
// match the manifest.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SchemaMismatchError struct {
	Artifact string
	Expected int64
	Actual   int64
	cause    error
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("schema mismatch in %s: expected %d bytes, got %d", e.Artifact, e.Expected, e.Actual)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns ErrSchemaMismatch and the underlying cause.
func (e *SchemaMismatchError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrSchemaMismatch}
	}
	return []error{ErrSchemaMismatch, e.cause}
}
