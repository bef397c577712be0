package kvo

import (
	"math"
	"reflect"

	"github.com/delaneyj/kvo/internal/fnid"
)

// sameValue reports whether a and b are the same value. Comparable values
// use ==, so pointers (including *Object) compare by identity; NaN equals a
// NaN of the same type, funcs compare by code pointer and everything else
// falls back to reflect.DeepEqual.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Float32, reflect.Float64:
		x, y := reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float()
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case reflect.Func:
		return fnid.Of(a) == fnid.Of(b)
	}
	if ta.Comparable() {
		return comparableEqual(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// comparableEqual guards against interface-typed fields holding
// incomparable values, which make == panic at runtime.
func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
