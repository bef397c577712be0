// Package fnid identifies Go functions by their code pointer.
//
// Two method values taken from the same method share a code pointer, as do
// two closures created by the same function literal. Callers pair the pointer
// with a receiver or owner value to get the equivalent of "same function,
// same this".
package fnid

import "reflect"

// Of returns the code pointer of fn, or 0 when fn is nil or not a func.
func Of(fn any) uintptr {
	if fn == nil {
		return 0
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}

// Comparable reports whether v can be used as a map key without panicking.
func Comparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
