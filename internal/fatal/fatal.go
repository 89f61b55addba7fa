// Package fatal implements the single unrecoverable-error sink described in
// spec.md §9: a fatal assertion logs, flushes, and terminates — it is never
// caught by submission-level error handling. This is the idiomatic-Go
// analogue of the original's abort()-raises-a-signal design: a dedicated
// panic type that a recovering main() distinguishes from ordinary panics so
// it can report a non-zero exit status without retrying or rolling back.
package fatal

import "fmt"

// Error is the payload of a fatal assertion. main() recovers it, logs it if
// it has not already been flushed, and exits non-zero.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Aborting reports whether the process is already unwinding from a fatal
// assertion raised by Raise. Signal handlers consult this to distinguish a
// self-induced abort from an externally delivered signal (spec.md §7).
var aborting bool

// Aborting reports the current value of the aborting flag.
func Aborting() bool { return aborting }

// Raise marks the process as aborting and panics with a *Error carrying op
// and err. It does not return.
func Raise(op string, err error) {
	aborting = true
	panic(&Error{Op: op, Err: err})
}

// Recover should be deferred in main(). It returns the fatal error if the
// panic being unwound originated from Raise, and re-panics otherwise so
// ordinary bugs are not silently swallowed.
func Recover() *Error {
	r := recover()
	if r == nil {
		return nil
	}
	if fe, ok := r.(*Error); ok {
		return fe
	}
	panic(r)
}
