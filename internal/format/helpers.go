package format

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}

func formatBytesLiteral(b []byte) string {
	printable := true
	for _, x := range b {
		if x < 0x20 || x > 0x7e || x == '"' || x == '\\' {
			printable = false
			break
		}
	}
	if printable {
		return fmt.Sprintf(`b"%s"`, string(b))
	}
	var sb strings.Builder
	sb.WriteString(`b"`)
	for _, x := range b {
		sb.WriteString(fmt.Sprintf(`\x%02x`, x))
	}
	sb.WriteString(`"`)
	return sb.String()
}

// FuncName returns the runtime name of a func value, e.g. "main.handler" or
// "pkg.TestFoo.func1" for closures. Empty for nil or non-func values.
func FuncName(fn any) string {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}
