package spy

import (
	"fmt"
	"math"
	"reflect"

	"github.com/aqilarik/spy/internal/format"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Of wraps an arbitrary func value.
//
// A trailing error result is the failure channel. The remaining results are
// recorded as Result: nil when there are none, the value itself when there is
// one, and a []any when there are several. Of does not pass a receiver to fn;
// wrap a method value (box.Set) or a method expression ((*Box).Set) instead.
//
// Arguments that do not fit fn's parameters make the reflected call panic,
// which is recorded as a Thrown call and re-raised like any other panic.
func Of(fn any, opts ...Option) (*Spy, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%w: %T", ErrNotFunc, fn)
	}
	ft := rv.Type()

	behavior := func(_ any, args ...any) (any, error) {
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			in[i] = valueFor(a, paramType(ft, i))
		}
		return splitOutputs(ft, rv.Call(in))
	}
	return newSpy(behavior, format.FuncName(fn), opts), nil
}

// Install overwrites the func that fnPtr points to with one that routes every
// call through s, recording the default receiver.
//
//	var send func(to, body string) error
//	if err := s.Install(&send); err != nil { ... }
//
// The installed func returns the spy's result converted to its own outputs:
// a single non-error output takes the result, several outputs take the
// elements of a []any result, and a trailing error output takes the error.
// If the behavior fails with an error and the func has no error output, the
// error is re-raised as a panic.
func (s *Spy) Install(fnPtr any) error {
	return s.InstallOn(s.this, fnPtr)
}

// InstallOn is Install with an explicit receiver, for func fields that play
// the role of methods:
//
//	box.Set = ...
//	s.InstallOn(box, &box.Set)
func (s *Spy) InstallOn(this any, fnPtr any) error {
	pv := reflect.ValueOf(fnPtr)
	if pv.Kind() != reflect.Pointer || pv.IsNil() || pv.Elem().Kind() != reflect.Func || !pv.Elem().CanSet() {
		return fmt.Errorf("%w: %T", ErrNotFuncPointer, fnPtr)
	}
	ft := pv.Elem().Type()

	fn := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		result, err := s.CallOn(this, spreadArgs(ft, in)...)
		return joinOutputs(ft, result, err)
	})
	pv.Elem().Set(fn)
	return nil
}

// paramType is the static type of the i-th argument of ft, or nil when ft
// takes fewer arguments.
func paramType(ft reflect.Type, i int) reflect.Type {
	n := ft.NumIn()
	switch {
	case ft.IsVariadic() && i >= n-1:
		return ft.In(n - 1).Elem()
	case i < n:
		return ft.In(i)
	default:
		return nil
	}
}

// valueFor turns a dynamic argument into a reflect.Value of type t where it
// can: nil becomes t's zero value and numbers convert between numeric kinds
// when t holds the value exactly. Anything else is passed as is and left for
// reflect to reject.
func valueFor(a any, t reflect.Type) reflect.Value {
	if t == nil {
		return reflect.ValueOf(a)
	}
	if a == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t)
		}
		// nil for a non-nillable parameter: reflect panics on the invalid value.
		return reflect.Value{}
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(v)
		return out
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) && fitsNumeric(v, t) {
		return v.Convert(t)
	}
	return v
}

// fitsNumeric reports whether converting the numeric value v to t keeps it
// intact: no overflow, no sign flip, no dropped fraction. Float targets only
// check range.
func fitsNumeric(v reflect.Value, t reflect.Type) bool {
	dst := reflect.New(t).Elem()
	switch {
	case isInt(t.Kind()):
		switch {
		case isInt(v.Kind()):
			return !dst.OverflowInt(v.Int())
		case isUint(v.Kind()):
			return v.Uint() <= math.MaxInt64 && !dst.OverflowInt(int64(v.Uint()))
		default:
			f := v.Float()
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !dst.OverflowInt(int64(f))
		}
	case isUint(t.Kind()):
		switch {
		case isInt(v.Kind()):
			return v.Int() >= 0 && !dst.OverflowUint(uint64(v.Int()))
		case isUint(v.Kind()):
			return !dst.OverflowUint(v.Uint())
		default:
			f := v.Float()
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !dst.OverflowUint(uint64(f))
		}
	default:
		if isInt(v.Kind()) || isUint(v.Kind()) {
			return true
		}
		f := v.Float()
		return math.IsNaN(f) || math.IsInf(f, 0) || !dst.OverflowFloat(f)
	}
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// spreadArgs converts the inputs of a MakeFunc call to the argument list a
// caller wrote: the variadic slice is spread into individual arguments.
func spreadArgs(ft reflect.Type, in []reflect.Value) []any {
	args := make([]any, 0, len(in))
	for i, v := range in {
		if ft.IsVariadic() && i == len(in)-1 {
			for j := 0; j < v.Len(); j++ {
				args = append(args, v.Index(j).Interface())
			}
			continue
		}
		args = append(args, v.Interface())
	}
	return args
}

func hasErrorOut(ft reflect.Type) bool {
	n := ft.NumOut()
	return n > 0 && ft.Out(n-1) == errorType
}

// splitOutputs maps the results of a reflected call to (result, error).
func splitOutputs(ft reflect.Type, out []reflect.Value) (any, error) {
	if hasErrorOut(ft) {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		vals := make([]any, len(out))
		for i, v := range out {
			vals[i] = v.Interface()
		}
		return vals, nil
	}
}

// joinOutputs is the inverse of splitOutputs for an installed func of type ft.
func joinOutputs(ft reflect.Type, result any, err error) []reflect.Value {
	outs := make([]reflect.Value, ft.NumOut())
	n := len(outs)
	if hasErrorOut(ft) {
		n--
		if err != nil {
			outs[n] = reflect.ValueOf(&err).Elem()
		} else {
			outs[n] = reflect.Zero(errorType)
		}
	} else if err != nil {
		panic(err)
	}

	if err != nil {
		for i := 0; i < n; i++ {
			outs[i] = reflect.Zero(ft.Out(i))
		}
		return outs
	}

	switch n {
	case 0:
	case 1:
		outs[0] = resultValue(result, ft.Out(0))
	default:
		vals, ok := result.([]any)
		if result != nil && (!ok || len(vals) != n) {
			panic(fmt.Errorf("%w: got %T for %d outputs", ErrResultType, result, n))
		}
		for i := 0; i < n; i++ {
			var v any
			if vals != nil {
				v = vals[i]
			}
			outs[i] = resultValue(v, ft.Out(i))
		}
	}
	return outs
}

func resultValue(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := valueFor(v, t)
	if rv.Type() != t {
		panic(fmt.Errorf("%w: %T is not %s", ErrResultType, v, t))
	}
	return rv
}
