package submit

import (
	"errors"
	"fmt"

	"github.com/uuship/uuship/internal/fatal"
	"github.com/uuship/uuship/internal/logsink"
)

// The sentinel errors below name the error taxonomy spec.md §7 requires.
// Callers use errors.Is against these to decide retry/abort policy; the CLI
// layer maps each to its documented exit behaviour.
var (
	// ErrConfigInvalid: missing config file or a malformed host record.
	// Fatal — abort before any spool mutation.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrUnknownHost: target of host!path is not configured and unknown-OK
	// is not set. Fatal unless the caller has unknown-OK set, in which case
	// the host is synthesized instead of returning this error.
	ErrUnknownHost = errors.New("unknown host")

	// ErrUnknownUser: ~user expansion failed. Per-argument error; the job
	// referencing it is rejected, other jobs in the same invocation proceed.
	ErrUnknownUser = errors.New("unknown user")

	// ErrLockBusy: the peer or command-class lock is already held.
	// Non-fatal; the operation returns false and the caller decides whether
	// to retry.
	ErrLockBusy = errors.New("lock busy")

	// ErrIOFail: a rename, open, creat, or fsync call failed. Per-job
	// failure; any partial artifacts are removed on a best-effort basis.
	ErrIOFail = errors.New("i/o failure")

	// ErrCrossFilesystem is not itself a failure: a caller encountering
	// EXDEV from a hard-link attempt falls back to a copy instead of
	// returning this to the user. It names the condition only: fallback
	// call sites detect EXDEV with isCrossFilesystem, and nothing wraps or
	// returns this sentinel.
	ErrCrossFilesystem = errors.New("cross-filesystem link")
)

// raiseFatal logs a FATAL: event and raises the process abort signal, for
// invariant violations and unreachable branches (spec.md §7's FatalAssert).
// It does not return.
func raiseFatal(sink *logsink.Sink, op string, err error) {
	if sink != nil {
		sink.Log(logsink.Fatal, "%s: %v", op, err)
	}
	fatal.Raise(op, err)
}

// wrapIOFail wraps err, if non-nil, as an ErrIOFail for the named operation.
func wrapIOFail(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrIOFail, err)
}
