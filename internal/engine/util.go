package engine

import "reflect"

// typeName returns a short type name for err, used as the error_class tag
// on Failure events and FallbackChain health reports (spec.md §6 payload
// shape: "error_class?").
func typeName(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return "unknown"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}
