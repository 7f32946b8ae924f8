package assert

import (
	"fmt"
	"reflect"
	"runtime"
)

// NotNil panics when v is nil, including typed nil pointers wrapped in an interface.
func NotNil(v interface{}) {
	if v == nil {
		panic("assert: unexpected nil value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("assert: unexpected nil %T", v))
		}
	}
}

// NotCircular panics when the calling function already appears further up the stack.
// Singleton constructors call it so a dependency cycle fails loudly instead of deadlocking in sync.Once.
func NotCircular() {
	pc := make([]uintptr, 64)
	n := runtime.Callers(2, pc)
	if n == 0 {
		return
	}
	frames := runtime.CallersFrames(pc[:n])
	caller, more := frames.Next()
	for more {
		var f runtime.Frame
		f, more = frames.Next()
		if f.Function == caller.Function {
			panic(fmt.Sprintf("assert: circular initialization detected in %s", caller.Function))
		}
	}
}
