package spy

import (
	"errors"

	"github.com/aqilarik/spy/internal/cond"
	"github.com/aqilarik/spy/internal/format"
)

// Behavior is the function a Spy wraps. this is the receiver the call was made
// on (nil when there is none). A non-nil error or a panic marks the call as
// Thrown; either is passed back to the caller unchanged.
type Behavior func(this any, args ...any) (any, error)

// Errors returned when a Spy cannot be built or installed.
var (
	ErrNotFunc        = errors.New("spy: not a func value")
	ErrNotFuncPointer = errors.New("spy: not a non-nil pointer to a func")
	ErrResultType     = errors.New("spy: result does not fit the installed func's outputs")
)

const emptyFunc = "func() {}"

// Spy forwards invocations to a wrapped Behavior and records each of them.
//
// The zero value is not usable; construct with New or Of.
// A Spy is safe for concurrent use. The behavior runs outside any lock, so
// calls made concurrently are recorded in the order they finish.
type Spy struct {
	behavior Behavior
	name     string
	this     any
	log      *Log
}

// New creates a spy around behavior. A nil behavior accepts any arguments and
// always returns (nil, nil).
func New(behavior Behavior, opts ...Option) *Spy {
	return newSpy(behavior, format.FuncName(behavior), opts)
}

func newSpy(behavior Behavior, name string, opts []Option) *Spy {
	s := &Spy{
		behavior: behavior,
		name:     name,
		log:      newLog(),
	}
	for _, o := range opts {
		o.apply(s)
	}
	return s
}

// Call invokes the spy with the default receiver (see WithReceiver).
func (s *Spy) Call(args ...any) (any, error) {
	return s.CallOn(s.this, args...)
}

// CallOn invokes the spy with an explicit receiver.
//
// The call is recorded before control returns to the caller: a returned value
// is passed through unchanged, an error is returned unchanged, and a panic is
// re-raised with the same value.
//
// A behavior that ends its goroutine with runtime.Goexit (t.FailNow, and so
// require.* assertions, do this) never returns to CallOn, so nothing is
// recorded for that invocation.
func (s *Spy) CallOn(this any, args ...any) (any, error) {
	rec := make([]any, len(args))
	copy(rec, args)

	o := cond.Capture(func() (any, error) {
		if s.behavior == nil {
			return nil, nil
		}
		in := make([]any, len(rec))
		copy(in, rec)
		return s.behavior(this, in...)
	})

	c := &Call{This: this, Args: rec}
	if !o.Failed() {
		c.Kind, c.Result = Returned, o.Value
		s.log.append(c)
		return o.Value, nil
	}

	c.Kind, c.Panicked = Thrown, o.Panicked
	if o.Panicked {
		c.Err = o.Panic
	} else {
		c.Err = o.Err
	}
	s.log.append(c)

	if o.Panicked {
		panic(o.Panic)
	}
	return nil, o.Err
}

// Log returns the spy's call log. The same *Log is returned for the life of
// the spy.
func (s *Spy) Log() *Log { return s.log }

// Reset clears the call log in place.
func (s *Spy) Reset() { s.log.Reset() }

// Calls returns every recorded call in invocation order. See Log.Calls.
func (s *Spy) Calls() []*Call { return s.log.Calls() }

// ReturnedCalls returns the calls that completed normally.
func (s *Spy) ReturnedCalls() []*Call { return s.log.ReturnedCalls() }

// ThrownCalls returns the calls that failed.
func (s *Spy) ThrownCalls() []*Call { return s.log.ThrownCalls() }

// FirstCall returns the first recorded call, or nil.
func (s *Spy) FirstCall() *Call { return s.log.FirstCall() }

// LastCall returns the most recent call, or nil.
func (s *Spy) LastCall() *Call { return s.log.LastCall() }

// FirstReturnedCall returns the earliest call that completed normally, or nil.
func (s *Spy) FirstReturnedCall() *Call { return s.log.FirstReturnedCall() }

// LastReturnedCall returns the latest call that completed normally, or nil.
func (s *Spy) LastReturnedCall() *Call { return s.log.LastReturnedCall() }

// FirstThrownCall returns the earliest failed call, or nil.
func (s *Spy) FirstThrownCall() *Call { return s.log.FirstThrownCall() }

// LastThrownCall returns the latest failed call, or nil.
func (s *Spy) LastThrownCall() *Call { return s.log.LastThrownCall() }

// String describes the spy for debugging, e.g. "/* The spy of */ main.handler".
func (s *Spy) String() string {
	name := s.name
	if name == "" {
		name = emptyFunc
	}
	return "/* The spy of */ " + name
}
