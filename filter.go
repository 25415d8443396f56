package datacube

import "github.com/hupe1980/datacube/value"

type filterKind uint8

const (
	filterAny filterKind = iota
	filterEquals
	filterOneOf
	filterPredicate
)

// Filter accepts or rejects a dimension value.
//
// The zero Filter accepts every value.
type Filter struct {
	kind  filterKind
	value value.Key
	set   map[value.Key]struct{}
	pred  func(value.Value) bool
}

// Equals accepts values equal to v.
func Equals(v value.Value) Filter {
	return Filter{kind: filterEquals, value: v.Key()}
}

// OneOf accepts values equal to any of vs. An empty OneOf accepts nothing.
func OneOf(vs ...value.Value) Filter {
	set := make(map[value.Key]struct{}, len(vs))
	for _, v := range vs {
		set[v.Key()] = struct{}{}
	}
	return Filter{kind: filterOneOf, set: set}
}

// Predicate accepts values for which fn returns true. A nil fn accepts every
// value.
func Predicate(fn func(value.Value) bool) Filter {
	if fn == nil {
		return Filter{}
	}
	return Filter{kind: filterPredicate, pred: fn}
}

// Match reports whether f accepts v.
func (f Filter) Match(v value.Value) bool {
	switch f.kind {
	case filterEquals:
		return v.Key() == f.value
	case filterOneOf:
		_, ok := f.set[v.Key()]
		return ok
	case filterPredicate:
		return f.pred(v)
	default:
		return true
	}
}

// Filters maps dimension names to filters. Dimensions without an entry are
// unconstrained.
type Filters map[string]Filter
