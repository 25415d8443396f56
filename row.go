package datacube

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hupe1980/datacube/value"
)

// Field is a named value within a Row.
type Field struct {
	Name  string
	Value value.Value
}

// F builds a Field from a Go value. It panics on types value.Of rejects.
func F(name string, v any) Field {
	return Field{Name: name, Value: value.MustOf(v)}
}

// Row is an ordered record of fields.
//
// Rows produced by a cube list the dimensions first, in schema order, followed
// by the metrics as float values.
type Row []Field

// NewRow returns a row holding fields in order.
func NewRow(fields ...Field) Row {
	return Row(fields)
}

// Get returns the value of the first field called name.
func (r Row) Get(name string) (value.Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return value.Value{}, false
}

// Float returns the numeric value of name, or 0 if the field is missing or
// not numeric.
func (r Row) Float(name string) float64 {
	v, _ := r.Get(name)
	f, _ := v.AsFloat64()
	return f
}

// Set replaces the value of name or appends a new field.
func (r *Row) Set(name string, v value.Value) {
	for i := range *r {
		if (*r)[i].Name == name {
			(*r)[i].Value = v
			return
		}
	}
	*r = append(*r, Field{Name: name, Value: v})
}

// Names returns the field names in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Equal reports whether r and o hold equal fields in the same order.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i].Name != o[i].Name || !r[i].Value.Equal(o[i].Value) {
			return false
		}
	}
	return true
}

// String renders the row as name=value pairs.
func (r Row) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		sb.WriteString(f.Value.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON encodes the row as a JSON object preserving field order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		v, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ByMetricDesc orders rows by descending value of metric. It is a typical
// comparator for AggregateTailValues.
func ByMetricDesc(metric string) func(a, b Row) int {
	return func(a, b Row) int {
		return cmp.Compare(b.Float(metric), a.Float(metric))
	}
}
