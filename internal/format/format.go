package format

import (
	"fmt"
	"reflect"
	"strings"
)

// Value renders a recorded value for diagnostics.
// This is designed for humans reading test failures, not for round-tripping.
func Value(v any) string {
	if isNilPointer(v) {
		return fmt.Sprintf("(%T)(nil)", v)
	}
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf(`"%s"`, escapeString(x))
	case []byte:
		return formatBytesLiteral(x)
	case error:
		return fmt.Sprintf("error(%s)", Value(x.Error()))
	case fmt.Stringer:
		return x.String()
	case []any:
		return "[" + Args(x) + "]"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		if name := FuncName(v); name != "" {
			return name
		}
		return fmt.Sprintf("(%T)(nil)", v)
	case reflect.Pointer:
		return fmt.Sprintf("&%+v", rv.Elem().Interface())
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Message renders a failure payload as plain text: the message of an error,
// the value of anything else. Typed nil pointers never have their methods
// called.
func Message(v any) string {
	if isNilPointer(v) {
		return fmt.Sprintf("(%T)(nil)", v)
	}
	switch x := v.(type) {
	case nil:
		return "nil"
	case error:
		return x.Error()
	case string:
		return x
	default:
		return Value(v)
	}
}

// isNilPointer reports whether v is a non-nil interface holding a nil pointer,
// the case where calling Error or String on it would dereference nil.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Args renders an argument list without surrounding parentheses.
func Args(args []any) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, Value(a))
	}
	return strings.Join(parts, ", ")
}

// Call renders one invocation as `name(args) arrow outcome`.
func Call(name string, args []any, arrow string, outcome any) string {
	return fmt.Sprintf("%s(%s) %s %s", name, Args(args), arrow, Value(outcome))
}
