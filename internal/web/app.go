// internal/web/app.go
//
// The central application object.
//
// Context
// -------
// An App is the shared registry one service configures once and then
// serves from: routes and their handlers, per-status error handlers,
// ordered before/after hooks, the session collaborator, and the debug
// flag.  It is read-mostly during dispatch and assumed fully configured
// before the first request enters; registration is not synchronised
// against serving.
//
// The App is also the transport adapter: ServeHTTP builds a
// RequestContext, runs the full lifecycle via Do, and writes either the
// pipeline's response or a failure page for faults that propagated
// unconverted.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package web

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/yanizio/flint/internal/session"
)

// DefaultContentType is used when a handler returns bare text.
const DefaultContentType = "text/html; charset=utf-8"

// Router is the routing collaborator: register rules before serving,
// then match inbound calls and build URLs back out.
type Router interface {
	Add(method, pattern, endpoint string)
	Match(method, path string) (endpoint string, params map[string]string, err error)
	Build(endpoint string, params map[string]string) (string, error)
}

// SessionStore is the session collaborator.  Load may report an absent
// session as (nil, nil); Save writes onto the outgoing header.
type SessionStore interface {
	Load(r *http.Request) (*session.Session, error)
	Save(s *session.Session, h http.Header) error
}

// Handler serves one resolved endpoint.  Its result runs through the
// response coercion table; see App.makeResponse.
type Handler func(rc *RequestContext, params map[string]string) (any, error)

// ErrorHandler converts a fault registered for its status code into a
// pipeline result.
type ErrorHandler func(rc *RequestContext, err error) (any, error)

// BeforeHook runs ahead of routing.  A non-nil result short-circuits
// the pipeline and becomes its result.
type BeforeHook func(rc *RequestContext) (any, error)

// AfterHook runs after coercion; it receives the response and returns
// it, possibly substituted.
type AfterHook func(rc *RequestContext, resp *Response) (*Response, error)

// App is the shared application registry.  Configure fully, then serve.
type App struct {
	Name  string
	Debug bool

	Router   Router
	Sessions SessionStore

	// ContentType overrides DefaultContentType when set.
	ContentType string

	handlers      map[string]Handler
	errorHandlers map[int]ErrorHandler
	beforeHooks   []BeforeHook
	afterHooks    []AfterHook
}

// New returns an App serving through router.
func New(name string, router Router) *App {
	return &App{
		Name:          name,
		Router:        router,
		handlers:      make(map[string]Handler),
		errorHandlers: make(map[int]ErrorHandler),
	}
}

// Route registers pattern under method and binds endpoint to h.
func (app *App) Route(method, pattern, endpoint string, h Handler) {
	app.Router.Add(method, pattern, endpoint)
	app.handlers[endpoint] = h
}

// Get is shorthand for Route with GET.
func (app *App) Get(pattern, endpoint string, h Handler) {
	app.Route(http.MethodGet, pattern, endpoint, h)
}

// Post is shorthand for Route with POST.
func (app *App) Post(pattern, endpoint string, h Handler) {
	app.Route(http.MethodPost, pattern, endpoint, h)
}

// HandleError registers h for faults carrying status code.
func (app *App) HandleError(code int, h ErrorHandler) {
	app.errorHandlers[code] = h
}

// Before appends a pre-dispatch hook; hooks run in registration order.
func (app *App) Before(h BeforeHook) {
	app.beforeHooks = append(app.beforeHooks, h)
}

// After appends a post-dispatch hook; hooks run in registration order.
func (app *App) After(h AfterHook) {
	app.afterHooks = append(app.afterHooks, h)
}

// defaultContentType resolves the app's text content type.
func (app *App) defaultContentType() string {
	if app.ContentType != "" {
		return app.ContentType
	}
	return DefaultContentType
}

// ServeHTTP is the transport adapter: one inbound call, one canonical
// response.  Faults that propagate out of Do unconverted are rendered
// as a failure page—with the error and stack in debug mode, minimal in
// production.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := app.NewContext(r)
	resp, err := app.Do(rc)
	if err != nil {
		app.failure(err).Write(w)
		return
	}
	resp.Write(w)
}

// failure renders an unconverted fault for the wire.
func (app *App) failure(err error) *Response {
	zap.S().Errorw("unhandled fault", "app", app.Name, "err", err)

	if app.Debug {
		body := fmt.Sprintf("500 Internal Server Error\n\n%v\n", err)
		if pe, ok := err.(*PanicError); ok {
			body += "\n" + string(pe.Stack)
		} else {
			body += "\n" + string(debug.Stack())
		}
		return &Response{
			Status: http.StatusInternalServerError,
			Header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
			Body:   []byte(body),
		}
	}
	return &Response{
		Status: http.StatusInternalServerError,
		Header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:   []byte("500 Internal Server Error\n"),
	}
}
