// Package hostcall answers whether a peer's configured call-time window
// (a cron expression, the supplemental feature described in SPEC_FULL.md
// §2.5) currently permits dialing. It is read-only and does no network
// I/O itself — the transport daemon out of scope here is the caller.
package hostcall

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// Window wraps a host's configured call-time cron expression.
type Window struct {
	expr string
	g    gronx.Gronx
}

// NewWindow builds a Window from a cron expression, e.g. "0 8-18 * * *"
// meaning "minute zero of each hour from 8am through 6pm, every day". An empty
// expression means "always callable".
func NewWindow(expr string) *Window {
	return &Window{expr: expr, g: gronx.New()}
}

// Allowed reports whether t falls within the configured window. An empty
// expression always allows calling.
func (w *Window) Allowed(t time.Time) (bool, error) {
	if w.expr == "" {
		return true, nil
	}
	ok, err := w.g.IsDue(w.expr, t)
	if err != nil {
		return false, fmt.Errorf("hostcall: evaluate %q: %w", w.expr, err)
	}
	return ok, nil
}

// Valid reports whether expr is a well-formed cron expression. config.Load
// does not call it; a malformed call_window is reported by Allowed's error.
func Valid(expr string) bool {
	if expr == "" {
		return true
	}
	return gronx.IsValid(expr)
}
