// internal/web/dispatch.go
//
// The request lifecycle state machine.
//
// Context
// -------
// Do drives one call through its whole life: enter, dispatch, coerce,
// post-process, exit.  Dispatch is sequential and short-circuits on the
// first defined result:
//
//   1. before hooks, registration order; a non-nil result skips routing
//   2. route match, then the endpoint's handler with its path params
//   3. HTTP-class fault → per-status handler, else the fault's own
//      canonical rendering
//   4. any other fault → the 500 handler, unless debug mode is on or
//      none is registered, in which case the fault propagates
//      unconverted (and Exit retains the context under debug)
//
// Teardown fires on every path.  Exit runs from a defer in Do, so even
// a panic out of an error handler, the session save, or an after hook
// cannot skip it.  The only deviation is the debug retention inside
// Exit; nothing here may skip the Exit call itself.
//
// Notes
// -----
// • Panics anywhere in the pipeline are recovered into *PanicError so a
//   crash takes the same fault path as a returned error.  invoke
//   recovers early so hook and handler crashes can still reach the
//   error handlers; the recover in Do is the backstop for crashes in
//   the error handlers and post-processing themselves.
// • Oxford commas, two spaces after periods.

package web

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/yanizio/flint/internal/httperr"
	"github.com/yanizio/flint/internal/metrics"
)

// Do runs the full lifecycle for rc and returns the canonical response,
// or the unconverted fault when dispatch could not recover.  The
// context is entered on the way in and exited on every way out,
// including panic unwinds from the recovery and post-processing
// stages.
func (app *App) Do(rc *RequestContext) (resp *Response, err error) {
	metrics.RequestsTotal.Inc()
	rc.Enter()
	defer func() {
		if p := recover(); p != nil {
			resp = nil
			err = &PanicError{Value: p, Stack: debug.Stack()}
			metrics.FaultsTotal.Inc()
		}
		rc.Exit(err)
	}()

	rv, err := app.dispatch(rc)

	if err == nil {
		resp, err = app.makeResponse(rc, rv)
	}
	if err == nil {
		resp, err = app.processResponse(rc, resp)
	}
	return resp, err
}

// dispatch runs the pipeline and applies fault recovery.
func (app *App) dispatch(rc *RequestContext) (any, error) {
	rv, err := app.invoke(rc)
	if err == nil {
		return rv, nil
	}
	metrics.FaultsTotal.Inc()

	var he *httperr.Error
	if errors.As(err, &he) {
		if h, ok := app.errorHandlers[he.Code]; ok {
			return h(rc, he)
		}
		// No handler: the raw fault becomes the result and renders
		// through its canonical representation.
		return he, nil
	}

	h, ok := app.errorHandlers[http.StatusInternalServerError]
	if app.Debug || !ok {
		return nil, err
	}
	return h(rc, err)
}

// invoke runs hooks, routing, and the handler, converting panics into
// *PanicError.
func (app *App) invoke(rc *RequestContext) (rv any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()

	for _, hook := range app.beforeHooks {
		rv, err := hook(rc)
		if err != nil {
			return nil, err
		}
		if rv != nil {
			return rv, nil
		}
	}

	endpoint, params, err := app.Router.Match(rc.Request.Method, rc.Request.URL.Path)
	if err != nil {
		return nil, err
	}
	rc.Request.Endpoint = endpoint
	rc.Request.Params = params

	h, ok := app.handlers[endpoint]
	if !ok {
		return nil, fmt.Errorf("web: endpoint %q matched but has no handler", endpoint)
	}
	return h(rc, params)
}

// processResponse saves a modified session onto the response and runs
// the after hooks, each of which may substitute a new response.
func (app *App) processResponse(rc *RequestContext, resp *Response) (*Response, error) {
	if rc.Session != nil && rc.Session.Modified() && app.Sessions != nil {
		if err := app.Sessions.Save(rc.Session, resp.Header); err != nil {
			return nil, fmt.Errorf("web: save session: %w", err)
		}
	}
	for _, hook := range app.afterHooks {
		next, err := hook(rc, resp)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("web: after hook returned no response")
		}
		resp = next
	}
	return resp, nil
}
