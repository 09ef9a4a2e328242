package ware

import (
	"cmp"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/AntonStoeckl/warekit/ware/logging"
)

// FirstKey returns the smallest key of m. Go maps are unordered, so "first" means first in key order.
// An empty map is ErrMissingValue.
func FirstKey[K cmp.Ordered, V any](m map[K]V) (K, error) {
	return logging.CatchValue(func() (K, error) {
		if len(m) == 0 {
			var empty K
			return empty, fmt.Errorf("%w: map has no keys", ErrMissingValue)
		}

		return slices.Min(slices.Collect(maps.Keys(m))), nil
	})
}

// GetOrError returns v unless it is nil or an empty collection, which are ErrMissingValue.
//
// It doesn't log: the caller decides whether a missing value is a failure worth reporting.
func GetOrError[T any](v T) (T, error) {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return v, fmt.Errorf("%w: Requested object is None.", ErrMissingValue)
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return v, fmt.Errorf("%w: Requested object is None.", ErrMissingValue)
		}
	case reflect.Map, reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			message, _ := defaultFormatter.format("Requested object is empty mapping: {}.", []any{v})
			return v, fmt.Errorf("%w: %s", ErrMissingValue, message)
		}
	}

	return v, nil
}
