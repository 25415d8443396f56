package manifest

import (
	"fmt"

	"github.com/hupe1980/datacube/codec"
	"github.com/hupe1980/datacube/value"
)

const (
	// Suffix is the artifact name suffix of the manifest.
	Suffix = ".manifest.json"
	// DimensSuffix is the artifact name suffix of the dimension blob.
	DimensSuffix = ".dimens.bin"
	// MetricsSuffix is the artifact name suffix of the metric blob.
	MetricsSuffix = ".metrics.bin"

	// ElementWidth is the byte width of a blob element.
	ElementWidth = 4
)

// Manifest describes the schema and dictionary of a persisted cube.
type Manifest struct {
	Dimens            []string      `json:"dimens"`
	Metrics           []string      `json:"metrics"`
	Count             int           `json:"count"`
	DimenIndexToValue []value.Value `json:"dimenIndexToValue"`
}

// Names returns the three artifact names for prefix.
func Names(prefix string) (manifest, dimens, metrics string) {
	return prefix + Suffix, prefix + DimensSuffix, prefix + MetricsSuffix
}

// DimensSize returns the exact byte length of the dimension blob.
func (m *Manifest) DimensSize() int64 {
	return int64(m.Count) * int64(len(m.Dimens)) * ElementWidth
}

// MetricsSize returns the exact byte length of the metric blob.
func (m *Manifest) MetricsSize() int64 {
	return int64(m.Count) * int64(len(m.Metrics)) * ElementWidth
}

// Validate checks the manifest for internal consistency.
func (m *Manifest) Validate() error {
	if m.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalid, m.Count)
	}

	seen := make(map[string]struct{}, len(m.Dimens)+len(m.Metrics))
	for _, names := range [][]string{m.Dimens, m.Metrics} {
		for _, name := range names {
			if name == "" {
				return fmt.Errorf("%w: empty field name", ErrInvalid)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("%w: duplicate field %q", ErrInvalid, name)
			}
			seen[name] = struct{}{}
		}
	}

	keys := make(map[value.Key]struct{}, len(m.DimenIndexToValue))
	for i, v := range m.DimenIndexToValue {
		if !v.IsValid() {
			return fmt.Errorf("%w: invalid dictionary value at %d", ErrInvalid, i)
		}
		if _, dup := keys[v.Key()]; dup {
			return fmt.Errorf("%w: duplicate dictionary value %v at %d", ErrInvalid, v, i)
		}
		keys[v.Key()] = struct{}{}
	}
	return nil
}

// Encode validates m and encodes it with c. A nil codec uses codec.Default.
func Encode(c codec.Codec, m *Manifest) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = codec.Default
	}

	out := *m
	if out.Dimens == nil {
		out.Dimens = []string{}
	}
	if out.Metrics == nil {
		out.Metrics = []string{}
	}
	if out.DimenIndexToValue == nil {
		out.DimenIndexToValue = []value.Value{}
	}

	data, err := c.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encode manifest (%s): %w", c.Name(), err)
	}
	return data, nil
}

// Decode decodes and validates a manifest. A nil codec uses codec.Default.
func Decode(c codec.Codec, data []byte) (*Manifest, error) {
	if c == nil {
		c = codec.Default
	}

	var m Manifest
	if err := c.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest (%s): %w", c.Name(), err)
	}

	// A JSON null may bypass the element decoder.
	for i, v := range m.DimenIndexToValue {
		if !v.IsValid() {
			m.DimenIndexToValue[i] = value.Null()
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
