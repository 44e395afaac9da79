package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FunctionName returns a short, human readable identity for a function value,
// suitable for log output: the runtime symbol with its import path trimmed,
// e.g. "main.printer", "broker.(*Recorder).Record-fm" becomes "broker.(*Recorder).Record".
// Named function types do not leak into the result, the underlying symbol is always used.
// Non-function values yield an empty string.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	if val.IsNil() {
		return "<nil " + val.Type().String() + ">"
	}

	rf := runtime.FuncForPC(val.Pointer())
	if rf == nil {
		return val.Type().String()
	}

	name := rf.Name()
	if lastSlash := strings.LastIndex(name, "/"); lastSlash >= 0 {
		name = name[lastSlash+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// SameFunction reports whether a and b are both non-nil functions pointing at the same code.
// Closures created from the same literal compare equal, since Go offers no closure identity.
func SameFunction(a, b any) bool {
	if !IsFunction(a) || !IsFunction(b) {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsNil() || vb.IsNil() {
		return false
	}
	return va.Pointer() == vb.Pointer()
}
