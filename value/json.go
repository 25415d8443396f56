package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarshalJSON encodes the value as a plain JSON scalar.
//
// Floats always carry a fraction or an exponent so they decode back as
// KindFloat. Non-finite floats are encoded as the strings "NaN", "+Inf" and
// "-Inf" tagged by an object wrapper, since JSON has no literal for them.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.s.Value())
	case KindInt:
		return strconv.AppendInt(nil, v.i64, 10), nil
	case KindFloat:
		if math.IsNaN(v.f64) || math.IsInf(v.f64, 0) {
			return []byte(`{"float":"` + strconv.FormatFloat(v.f64, 'g', -1, 64) + `"}`), nil
		}
		s := strconv.FormatFloat(v.f64, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	default:
		return nil, errors.New("value: cannot marshal invalid value")
	}
}

// UnmarshalJSON decodes a JSON scalar produced by MarshalJSON or by any other
// JSON writer. Numbers without fraction or exponent decode as KindInt.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("value: empty JSON input")
	}
	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("value: invalid JSON literal %q", data)
		}
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '{':
		var aux struct {
			Float string `json:"float"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(aux.Float, 64)
		if err != nil {
			return err
		}
		*v = Float(f)
		return nil
	default:
		return v.parseNumber(string(data))
	}
}

func (v *Value) parseNumber(s string) error {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			*v = Int(i)
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*v = Float(f)
	return nil
}
