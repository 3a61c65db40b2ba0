package cond

// Outcome is what a single run of a behavior produced.
// Exactly one of Value/Err/Panic is meaningful:
//   - Panicked: Panic holds the recovered value, Value and Err are zero.
//   - Err != nil: the behavior failed through its error return.
//   - otherwise: Value is the returned value (possibly nil).
type Outcome struct {
	Value    any
	Err      error
	Panic    any
	Panicked bool
}

// Failed reports whether the run ended in an error or a panic.
func (o Outcome) Failed() bool { return o.Panicked || o.Err != nil }

// Capture runs fn once and classifies what happened.
// A panic is recovered only so it can be recorded; the caller is expected to
// re-raise o.Panic after recording it.
func Capture(fn func() (any, error)) (o Outcome) {
	completed := false
	defer func() {
		if completed {
			return
		}
		// panic(nil) is reported by recover() as nil on go < 1.21 and as
		// *runtime.PanicNilError afterwards; either way it is a panic.
		o = Outcome{Panic: recover(), Panicked: true}
	}()

	v, err := fn()
	completed = true
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Value: v}
}
