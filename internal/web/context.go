// internal/web/context.go
//
// Request context and the ambient proxies over it.
//
// Context
// -------
// A RequestContext bundles everything that belongs to one in-flight
// call: the request object, the session (may be absent), and the
// scratchpad.  It is pushed onto a process-wide goroutine-local stack
// on Enter, and from that moment any code running under the same
// goroutine can reach it through the package-level proxies below
// without threading it through every signature.  Exit pops it again on
// every path except debug-mode retention, which keeps the context
// observable for post-mortem inspection after an unconverted fault.
// That imbalance is debug-only and must never fire in production
// operation.
//
// Prefer passing *RequestContext explicitly where a call site can take
// it as a parameter; the proxies exist for ambient call sites
// (templates, helpers, legacy shims).
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/flint/internal/local"
	"github.com/yanizio/flint/internal/metrics"
	"github.com/yanizio/flint/internal/proxy"
	"github.com/yanizio/flint/internal/session"
)

// requestStack holds the active RequestContext(s) per goroutine.
var requestStack = local.NewStack()

// Current returns the calling goroutine's innermost RequestContext.
func Current() (*RequestContext, bool) {
	rc, ok := requestStack.Top().(*RequestContext)
	return rc, ok
}

// Ambient handles, resolved freshly on every use against the stack top.
var (
	CurrentApp = proxy.New("current_app", func() (*App, bool) {
		rc, ok := Current()
		if !ok {
			return nil, false
		}
		return rc.App, true
	})

	CurrentRequest = proxy.New("request", func() (*Request, bool) {
		rc, ok := Current()
		if !ok {
			return nil, false
		}
		return rc.Request, true
	})

	CurrentSession = proxy.New("session", func() (*session.Session, bool) {
		rc, ok := Current()
		if !ok || rc.Session == nil {
			return nil, false
		}
		return rc.Session, true
	})

	G = proxy.New("g", func() (*Scratch, bool) {
		rc, ok := Current()
		if !ok {
			return nil, false
		}
		return rc.G, true
	})
)

// RequestContext bundles the state of one in-flight call.
type RequestContext struct {
	App     *App             // shared, not owned
	Request *Request         // owned
	Session *session.Session // owned; nil when sessions are disabled
	G       *Scratch         // owned, fresh per call

	// flash cache, computed at most once per context.
	flashes       []string
	flashesLoaded bool

	retained bool
}

// NewContext builds a RequestContext for r: request object, session via
// the session collaborator, and an empty scratchpad.  It does not enter
// the context.
func (app *App) NewContext(r *http.Request) *RequestContext {
	rc := &RequestContext{
		App:     app,
		Request: newRequest(r),
		G:       NewScratch(),
	}
	if app.Sessions != nil {
		sess, err := app.Sessions.Load(r)
		if err != nil {
			zap.S().Errorw("session load failed", "path", r.URL.Path, "err", err)
			sess = session.New()
		}
		rc.Session = sess
	}
	return rc
}

// Enter binds rc to the calling goroutine by pushing it onto the
// process-wide request stack.
func (rc *RequestContext) Enter() {
	requestStack.Push(rc)
	metrics.ActiveContexts.Inc()
}

// Exit unbinds rc.  When the pipeline ended in an unconverted fault and
// the app runs in debug mode, the context is retained instead, so an
// inspector on the same goroutine can still observe live request,
// session, and scratchpad state.
func (rc *RequestContext) Exit(err error) {
	if err != nil && rc.App.Debug {
		rc.retained = true
		metrics.RetainedContexts.Inc()
		zap.S().Warnw("request context retained for post-mortem",
			"path", rc.Request.URL.Path, "err", err)
		return
	}
	requestStack.Pop()
	metrics.ActiveContexts.Dec()
}

// Retained reports whether Exit kept this context alive for inspection.
func (rc *RequestContext) Retained() bool { return rc.retained }

// Release force-pops a retained context once inspection is done.  It
// must run on the goroutine that retained the context; the stack is
// goroutine-local, so popping from anywhere else would disturb that
// goroutine's own contexts.  A call from the wrong goroutine is a
// no-op.
func (rc *RequestContext) Release() {
	if !rc.retained {
		return
	}
	if top, _ := requestStack.Top().(*RequestContext); top != rc {
		return
	}
	rc.retained = false
	requestStack.Pop()
	metrics.ActiveContexts.Dec()
}

// Flashes returns the pending flash messages, pulling them out of the
// session on first call and caching the result for the rest of the
// context's life.
func (rc *RequestContext) Flashes() []string {
	if !rc.flashesLoaded {
		rc.flashesLoaded = true
		if rc.Session != nil {
			rc.flashes = rc.Session.PopFlashes()
		}
	}
	return rc.flashes
}

//
// ambient helpers
//

// Flash queues msg for the next request's flash read.  Fails when no
// session is bound.
func Flash(msg string) error {
	sess, err := CurrentSession.Get()
	if err != nil {
		return err
	}
	sess.AddFlash(msg)
	return nil
}

// URLFor builds the URL for endpoint through the current app's router.
func URLFor(endpoint string, params map[string]string) (string, error) {
	app, err := CurrentApp.Get()
	if err != nil {
		return "", err
	}
	return app.Router.Build(endpoint, params)
}

// TestContext builds and enters a RequestContext for method and target,
// returning it with a teardown function.  Intended for tests and shell
// sessions that need ambient state without a live server.
func (app *App) TestContext(method, target string) (*RequestContext, func()) {
	r, err := http.NewRequest(method, target, nil)
	if err != nil {
		panic(err)
	}
	rc := app.NewContext(r)
	rc.Enter()
	return rc, func() { rc.Exit(nil) }
}
