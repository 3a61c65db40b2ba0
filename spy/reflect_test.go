package spy

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(a, b int) int { return a + b }

func TestOf_Returned(t *testing.T) {
	s, err := Of(add)
	require.NoError(t, err)

	got, err := s.Call(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	c := s.FirstCall()
	require.NotNil(t, c)
	assert.Equal(t, Returned, c.Kind)
	assert.Equal(t, []any{1, 2}, c.Args)
	assert.Equal(t, 3, c.Result)
	assert.Equal(t, "/* The spy of */ github.com/aqilarik/spy/spy.add", s.String())
}

func TestOf_ErrorResult(t *testing.T) {
	boom := errors.New("boom")
	s, err := Of(func(fail bool) (int, error) {
		if fail {
			return 0, boom
		}
		return 1, nil
	})
	require.NoError(t, err)

	got, err := s.Call(false)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = s.Call(true)
	assert.Nil(t, got)
	assert.Same(t, boom, err)

	assert.Len(t, s.ReturnedCalls(), 1)
	require.Len(t, s.ThrownCalls(), 1)
	assert.Same(t, boom, s.LastThrownCall().Err)
}

func TestOf_MultipleResults(t *testing.T) {
	s, err := Of(func(a, b int) (int, int) { return a / b, a % b })
	require.NoError(t, err)

	got, err := s.Call(7, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{3, 1}, got)
}

func TestOf_NoResults(t *testing.T) {
	var seen []string
	s, err := Of(func(v string) { seen = append(seen, v) })
	require.NoError(t, err)

	got, err := s.Call("a")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{"a"}, seen)
}

func TestOf_ConvertsArguments(t *testing.T) {
	s, err := Of(func(n int64, p *box, xs ...float64) int {
		return int(n) + len(xs)
	})
	require.NoError(t, err)

	got, err := s.Call(2, nil, 1, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, []any{2, nil, 1, 2.5}, s.FirstCall().Args)
}

func TestOf_RejectsLossyArguments(t *testing.T) {
	var seen []int8
	s, err := Of(func(n int8) int8 {
		seen = append(seen, n)
		return n
	})
	require.NoError(t, err)

	got, err := s.Call(int64(100))
	require.NoError(t, err)
	assert.Equal(t, int8(100), got)

	for _, arg := range []any{300, -129, uint(200), 2.5} {
		assert.Panics(t, func() { _, _ = s.Call(arg) }, "arg %v", arg)
		c := s.LastCall()
		require.NotNil(t, c)
		assert.True(t, c.Panicked)
		assert.Equal(t, []any{arg}, c.Args)
	}
	assert.Equal(t, []int8{100}, seen)
	assert.Len(t, s.ReturnedCalls(), 1)
	assert.Len(t, s.ThrownCalls(), 4)
}

func TestOf_RejectsNegativeUnsigned(t *testing.T) {
	s, err := Of(func(n uint) uint { return n })
	require.NoError(t, err)

	got, err := s.Call(3.0)
	require.NoError(t, err)
	assert.Equal(t, uint(3), got)

	assert.Panics(t, func() { _, _ = s.Call(-1) })
	assert.True(t, s.LastCall().Panicked)
}

func TestOf_WrongArityPanicsAndIsRecorded(t *testing.T) {
	s, err := Of(add)
	require.NoError(t, err)

	assert.Panics(t, func() { _, _ = s.Call(1) })
	c := s.LastCall()
	require.NotNil(t, c)
	assert.Equal(t, Thrown, c.Kind)
	assert.True(t, c.Panicked)
	assert.Equal(t, []any{1}, c.Args)
}

func TestOf_NotFunc(t *testing.T) {
	_, err := Of(42)
	assert.ErrorIs(t, err, ErrNotFunc)

	var nilFn func()
	_, err = Of(nilFn)
	assert.ErrorIs(t, err, ErrNotFunc)

	_, err = Of(nil)
	assert.ErrorIs(t, err, ErrNotFunc)
}

func TestOf_MethodValue(t *testing.T) {
	b := &box{}
	set := func(v int) { b.Value = v }
	s, err := Of(set)
	require.NoError(t, err)

	_, err = s.Call(5)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Value)
}

func TestInstall(t *testing.T) {
	s := New(func(_ any, args ...any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	})
	var sum func(a, b int) int
	require.NoError(t, s.Install(&sum))

	assert.Equal(t, 5, sum(2, 3))
	require.Equal(t, 1, s.Log().Len())
	assert.Equal(t, []any{2, 3}, s.FirstCall().Args)
	assert.Nil(t, s.FirstCall().This)
}

type counter struct {
	n   int
	Add func(int)
}

func TestInstallOn_FuncField(t *testing.T) {
	c := &counter{}
	c.Add = func(d int) { c.n += d }

	s, err := Of(c.Add)
	require.NoError(t, err)
	require.NoError(t, s.InstallOn(c, &c.Add))

	c.Add(1)
	c.Add(2)
	assert.Equal(t, 3, c.n)
	require.Equal(t, 2, s.Log().Len())
	assert.Same(t, c, s.FirstCall().This)
	assert.Equal(t, []any{2}, s.LastCall().Args)
}

func TestInstall_DefaultReceiver(t *testing.T) {
	recv := &box{}
	s := New(nil, WithReceiver(recv))
	var f func()
	require.NoError(t, s.Install(&f))
	f()
	assert.Same(t, recv, s.FirstCall().This)
}

func TestInstall_ErrorOutput(t *testing.T) {
	boom := errors.New("empty body")
	s := New(func(_ any, args ...any) (any, error) {
		if args[1] == "" {
			return nil, boom
		}
		return nil, nil
	})
	var send func(to, body string) error
	require.NoError(t, s.Install(&send))

	assert.NoError(t, send("a@example.com", "hi"))
	err := send("b@example.com", "")
	assert.Same(t, boom, err)

	assert.Len(t, s.ReturnedCalls(), 1)
	assert.Len(t, s.ThrownCalls(), 1)
}

func TestInstall_ValueAndError(t *testing.T) {
	orig := func(a, b int) (int, int, error) {
		if b == 0 {
			return 0, 0, errors.New("division by zero")
		}
		return a / b, a % b, nil
	}
	s, err := Of(orig)
	require.NoError(t, err)

	var div func(a, b int) (int, int, error)
	require.NoError(t, s.Install(&div))

	q, r, err := div(7, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, q)
	assert.Equal(t, 1, r)

	q, r, err = div(1, 0)
	assert.EqualError(t, err, "division by zero")
	assert.Zero(t, q)
	assert.Zero(t, r)
	assert.Same(t, s.LastThrownCall().Err, err)
}

func TestInstall_Variadic(t *testing.T) {
	var lines []string
	s := New(func(_ any, args ...any) (any, error) {
		lines = append(lines, fmt.Sprintf(args[0].(string), args[1:]...))
		return nil, nil
	})
	var logf func(format string, args ...any)
	require.NoError(t, s.Install(&logf))

	logf("%d-%d", 1, 2)
	logf("plain")

	assert.Equal(t, []string{"1-2", "plain"}, lines)
	assert.Equal(t, []any{"%d-%d", 1, 2}, s.FirstCall().Args)
	assert.Equal(t, []any{"plain"}, s.LastCall().Args)
}

func TestInstall_ConvertsNumericResult(t *testing.T) {
	s := New(func(any, ...any) (any, error) { return 7, nil })
	var f func() int64
	require.NoError(t, s.Install(&f))
	assert.Equal(t, int64(7), f())
}

func TestInstall_RejectsLossyNumericResult(t *testing.T) {
	tests := []struct {
		name   string
		result any
		target any
	}{
		{"fraction into int", 2.9, new(func() int)},
		{"overflow int8", 300, new(func() int8)},
		{"negative into uint", -1, new(func() uint)},
		{"overflow float32", 1e300, new(func() float32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(func(any, ...any) (any, error) { return tt.result, nil })
			require.NoError(t, s.Install(tt.target))

			fn := reflect.ValueOf(tt.target).Elem()
			var recovered any
			func() {
				defer func() { recovered = recover() }()
				fn.Call(nil)
			}()
			err, ok := recovered.(error)
			require.True(t, ok, "recovered %v", recovered)
			assert.ErrorIs(t, err, ErrResultType)
			assert.Equal(t, tt.result, s.FirstCall().Result)
		})
	}
}

func TestInstall_ConvertsWholeFloatResult(t *testing.T) {
	s := New(func(any, ...any) (any, error) { return 3.0, nil })
	var f func() int
	require.NoError(t, s.Install(&f))
	assert.Equal(t, 3, f())
}

func TestInstall_NilResultIsZero(t *testing.T) {
	s := New(nil)
	var f func() (string, *box)
	require.NoError(t, s.Install(&f))
	str, b := f()
	assert.Equal(t, "", str)
	assert.Nil(t, b)
}

func TestInstall_ResultTypeMismatch(t *testing.T) {
	s := New(func(any, ...any) (any, error) { return 1, nil })
	var f func() string
	require.NoError(t, s.Install(&f))

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		f()
	}()
	err, ok := recovered.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrResultType)

	// the call itself succeeded and was recorded before the mismatch
	require.Equal(t, 1, s.Log().Len())
	assert.Equal(t, Returned, s.FirstCall().Kind)
}

func TestInstall_ErrorWithoutErrorOutputPanics(t *testing.T) {
	boom := errors.New("boom")
	s := New(func(any, ...any) (any, error) { return nil, boom })
	var f func()
	require.NoError(t, s.Install(&f))

	assert.PanicsWithValue(t, boom, f)
	c := s.FirstCall()
	require.NotNil(t, c)
	assert.True(t, c.Thrown())
	assert.False(t, c.Panicked)
}

func TestInstall_PanicPropagates(t *testing.T) {
	s := New(func(any, ...any) (any, error) { panic("bad state") })
	var f func() int
	require.NoError(t, s.Install(&f))

	assert.PanicsWithValue(t, "bad state", func() { f() })
	assert.True(t, s.FirstCall().Panicked)
}

func TestInstall_NotFuncPointer(t *testing.T) {
	s := New(nil)
	var f func()
	n := 1

	for _, target := range []any{nil, f, &n, (*func())(nil)} {
		err := s.Install(target)
		assert.ErrorIs(t, err, ErrNotFuncPointer, "target %T", target)
	}
}
