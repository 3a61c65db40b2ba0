package spy

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aqilarik/spy/internal/eval"
	"github.com/aqilarik/spy/internal/format"
)

// Log is the live, append-only record of a Spy's calls.
//
// A Spy owns exactly one Log for its whole life; Reset clears it in place, so
// anyone holding the *Log observes the cleared state. Every view is computed
// from the current contents on each call.
type Log struct {
	mu    sync.RWMutex
	calls []*Call
	preds *eval.Cache
}

func newLog() *Log {
	return &Log{preds: eval.NewCache()}
}

func (l *Log) append(c *Call) {
	l.mu.Lock()
	l.calls = append(l.calls, c)
	l.mu.Unlock()
}

// Len returns the number of recorded calls.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.calls)
}

// At returns the i-th call in invocation order, or nil when i is out of range.
func (l *Log) At(i int) *Call {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.calls) {
		return nil
	}
	return l.calls[i]
}

// Calls returns every recorded call in invocation order.
// The slice is a fresh copy; the *Call elements are the recorded ones.
func (l *Log) Calls() []*Call {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// ReturnedCalls returns the calls that completed normally, in order.
func (l *Log) ReturnedCalls() []*Call { return l.filter(Returned) }

// ThrownCalls returns the calls that failed, in order.
func (l *Log) ThrownCalls() []*Call { return l.filter(Thrown) }

func (l *Log) filter(k Kind) []*Call {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Call, 0, len(l.calls))
	for _, c := range l.calls {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// FirstCall returns the first recorded call, or nil.
func (l *Log) FirstCall() *Call { return l.At(0) }

// LastCall returns the most recent call, or nil.
func (l *Log) LastCall() *Call {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.calls) == 0 {
		return nil
	}
	return l.calls[len(l.calls)-1]
}

// FirstReturnedCall returns the earliest call that completed normally, or nil.
func (l *Log) FirstReturnedCall() *Call { return l.first(Returned) }

// LastReturnedCall returns the latest call that completed normally, or nil.
func (l *Log) LastReturnedCall() *Call { return l.last(Returned) }

// FirstThrownCall returns the earliest failed call, or nil.
func (l *Log) FirstThrownCall() *Call { return l.first(Thrown) }

// LastThrownCall returns the latest failed call, or nil.
func (l *Log) LastThrownCall() *Call { return l.last(Thrown) }

func (l *Log) first(k Kind) *Call {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := 0; i < len(l.calls); i++ {
		if l.calls[i].Kind == k {
			return l.calls[i]
		}
	}
	return nil
}

func (l *Log) last(k Kind) *Call {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.calls) - 1; i >= 0; i-- {
		if l.calls[i].Kind == k {
			return l.calls[i]
		}
	}
	return nil
}

// Reset removes every recorded call. Resetting an empty log is a no-op.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.calls)
	l.calls = l.calls[:0]
}

// Where returns the calls for which the expr-lang predicate holds, in order.
//
// The predicate sees one call at a time through these variables:
//
//	index     int   position in the log
//	kind      string "return" or "throw"
//	this      any
//	args      []any
//	result    any   nil for thrown calls
//	err       any   nil for returned calls
//	message   string error text or panic value of a thrown call, "" otherwise
//	panicked  bool
//
// For example: `kind == "throw" && args[0] > 10`.
func (l *Log) Where(predicate string) ([]*Call, error) {
	calls := l.Calls()
	out := make([]*Call, 0, len(calls))
	for i, c := range calls {
		ok, err := eval.Match(predicate, callEnv(i, c), l.preds)
		if err != nil {
			return nil, fmt.Errorf("spy: where %q: %w", predicate, err)
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func callEnv(i int, c *Call) map[string]any {
	return map[string]any{
		"index":    i,
		"kind":     c.Kind.String(),
		"this":     c.This,
		"args":     c.Args,
		"result":   c.Result,
		"err":      c.Err,
		"message":  failureMessage(c),
		"panicked": c.Panicked,
	}
}

func failureMessage(c *Call) string {
	if c.Kind != Thrown {
		return ""
	}
	return format.Message(c.Err)
}

// String renders one call per line, prefixed with its index.
func (l *Log) String() string {
	calls := l.Calls()
	if len(calls) == 0 {
		return "(no calls)"
	}
	var sb strings.Builder
	for i, c := range calls {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "#%d %s", i, c)
	}
	return sb.String()
}
