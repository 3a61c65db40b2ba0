package spy

import (
	"fmt"
	"strconv"

	"github.com/aqilarik/spy/internal/format"
)

// Kind tags a Call with how the invocation ended.
type Kind uint8

const (
	// Returned marks an invocation that completed normally.
	Returned Kind = iota + 1
	// Thrown marks an invocation that returned a non-nil error or panicked.
	Thrown
)

func (k Kind) String() string {
	switch k {
	case Returned:
		return "return"
	case Thrown:
		return "throw"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// MarshalText encodes the kind as "return" or "throw".
func (k Kind) MarshalText() ([]byte, error) {
	if k != Returned && k != Thrown {
		return nil, fmt.Errorf("spy: invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// Call is one recorded invocation. Records are created by the Spy and must be
// treated as read-only; the same *Call is shared by every view of the log.
//
// Result is set only for Returned calls, Err and Panicked only for Thrown ones.
type Call struct {
	Kind Kind  `json:"kind" yaml:"kind"`
	This any   `json:"this,omitempty" yaml:"this,omitempty"` // receiver the call was made on
	Args []any `json:"args" yaml:"args"`                     // arguments exactly as passed

	Result any `json:"result,omitempty" yaml:"result,omitempty"`

	// Err is the failure payload: the error returned by the behavior, or the
	// value it panicked with (any value, not necessarily an error).
	Err      any  `json:"-" yaml:"-"`
	Panicked bool `json:"panicked,omitempty" yaml:"panicked,omitempty"`
}

// Returned reports whether the call completed normally.
func (c *Call) Returned() bool { return c.Kind == Returned }

// Thrown reports whether the call failed.
func (c *Call) Thrown() bool { return c.Kind == Thrown }

// AsError returns the failure payload when it is an error, nil otherwise.
// A panic with a non-error value yields nil; use Err for the raw value.
func (c *Call) AsError() error {
	err, _ := c.Err.(error)
	return err
}

// String renders the call as `spy(args) -> result` or `spy(args) !> err`.
func (c *Call) String() string {
	if c.Kind == Thrown {
		s := format.Call("spy", c.Args, "!>", c.Err)
		if c.Panicked {
			s += " (panic)"
		}
		return s
	}
	return format.Call("spy", c.Args, "->", c.Result)
}
