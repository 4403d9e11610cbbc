// internal/web/errors.go
//
// Dispatch-layer faults that are not HTTP-class.
//
// HTTP-class faults live in internal/httperr and are recoverable via
// the status-code handler registry.  The two kinds defined here are
// not: a TypeMismatch means a handler returned a shape the coercion
// table does not know, and a PanicError wraps a recovered handler or
// hook panic so it can travel the normal fault path.

package web

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch is returned when a pipeline result has an
// unrecognised shape.  It fails fast; there is no rendering fallback.
var ErrTypeMismatch = errors.New("web: unrecognized pipeline result type")

// PanicError carries a recovered panic from a hook or handler, with the
// stack captured at the recovery site.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("web: handler panic: %v", e.Value)
}
