// internal/httperr/httperr.go
//
// HTTP-class faults.
//
// Context
// -------
// Routing and handler code signal recoverable conditions as *Error
// values carrying a status code.  The dispatcher recognises them with
// errors.As, consults the per-status handler registry, and falls back
// to the fault's own canonical rendering when no handler is registered.
// Anything that is not an *Error is treated as an internal fault.
//
// Notes
// -----
// • Redirects ride the same type: a 308 with a Location.
// • Oxford commas, two spaces after periods.

package httperr

import (
	"fmt"
	"net/http"
)

// Error is a fault with an HTTP status code.  Message is optional and
// shown in the canonical rendering; Location is set on redirects only.
type Error struct {
	Code     int
	Message  string
	Location string
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
	}
	return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
}

// New returns a fault for an arbitrary status code.
func New(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// NotFound reports that no route matches the requested path.
func NotFound(path string) *Error {
	return &Error{Code: http.StatusNotFound, Message: path}
}

// MethodNotAllowed reports that the path exists but not for this method.
func MethodNotAllowed(method string) *Error {
	return &Error{Code: http.StatusMethodNotAllowed, Message: method}
}

// Redirect reports that the client must retry at location.  308 keeps
// the original method intact.
func Redirect(location string) *Error {
	return &Error{Code: http.StatusPermanentRedirect, Location: location}
}
