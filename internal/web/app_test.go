// internal/web/app_test.go
//
// Lifecycle tests for the App dispatcher.
//
// Context
// -------
// These tests walk the request state machine end to end: hook
// short-circuiting, routing faults and their canonical renderings,
// error-handler recovery, response coercion shapes, session save on
// modification, and the debug-mode retention exception.  Each test
// asserts the context stack is balanced afterwards; the retention test
// asserts the deliberate imbalance and then releases it.
//
// Run: go test ./internal/web -race -v

package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yanizio/flint/internal/httperr"
	"github.com/yanizio/flint/internal/routing"
	"github.com/yanizio/flint/internal/session"
)

func newTestApp() *App {
	return New("test", routing.New())
}

func doRequest(t *testing.T, app *App, method, target string) (*Response, error) {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	return app.Do(app.NewContext(r))
}

func assertBalanced(t *testing.T) {
	t.Helper()
	if depth := requestStack.Depth(); depth != 0 {
		t.Fatalf("context stack depth = %d after request, want 0", depth)
	}
}

func TestDispatch_PlainText(t *testing.T) {
	app := newTestApp()
	app.Get("/x", "x", func(rc *RequestContext, _ map[string]string) (any, error) {
		return "hi", nil
	})

	resp, err := doRequest(t, app, "GET", "/x")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "hi" {
		t.Fatalf("body = %q, want hi", resp.Body)
	}
	if got := resp.Header.Get("Content-Type"); got != DefaultContentType {
		t.Fatalf("content type = %q, want %q", got, DefaultContentType)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	assertBalanced(t)
}

func TestDispatch_PathParams(t *testing.T) {
	app := newTestApp()
	app.Get("/hello/{name}", "hello", func(rc *RequestContext, params map[string]string) (any, error) {
		return "hello " + params["name"], nil
	})

	resp, err := doRequest(t, app, "GET", "/hello/armin")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "hello armin" {
		t.Fatalf("body = %q", resp.Body)
	}
	assertBalanced(t)
}

func TestDispatch_NotFoundCanonicalRendering(t *testing.T) {
	app := newTestApp()

	resp, err := doRequest(t, app, "GET", "/missing")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "404 Not Found") {
		t.Fatalf("body = %q, want canonical 404 page", resp.Body)
	}
	assertBalanced(t)
}

func TestDispatch_RedirectFault(t *testing.T) {
	app := newTestApp()
	app.Get("/docs/", "docs", func(*RequestContext, map[string]string) (any, error) {
		return "docs", nil
	})

	resp, err := doRequest(t, app, "GET", "/docs")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != http.StatusPermanentRedirect {
		t.Fatalf("status = %d, want 308", resp.Status)
	}
	if got := resp.Header.Get("Location"); got != "/docs/" {
		t.Fatalf("Location = %q, want /docs/", got)
	}
	assertBalanced(t)
}

func TestDispatch_StatusHandlerOverridesFault(t *testing.T) {
	app := newTestApp()
	app.HandleError(http.StatusNotFound, func(rc *RequestContext, err error) (any, error) {
		return []any{"custom not found", http.StatusNotFound}, nil
	})

	resp, err := doRequest(t, app, "GET", "/missing")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "custom not found" {
		t.Fatalf("body = %q", resp.Body)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Status)
	}
	assertBalanced(t)
}

func TestDispatch_HandlerFault_Recovered(t *testing.T) {
	app := newTestApp()
	boom := errors.New("boom")
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return nil, boom
	})
	app.HandleError(http.StatusInternalServerError, func(rc *RequestContext, err error) (any, error) {
		return []any{"recovered: " + err.Error(), http.StatusInternalServerError}, nil
	})

	resp, err := doRequest(t, app, "GET", "/x")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "recovered: boom" {
		t.Fatalf("body = %q", resp.Body)
	}
	assertBalanced(t)
}

func TestDispatch_DebugRetainsContext(t *testing.T) {
	app := newTestApp()
	app.Debug = true
	boom := errors.New("boom")
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return nil, boom
	})
	app.HandleError(http.StatusInternalServerError, func(*RequestContext, error) (any, error) {
		t.Fatal("500 handler must not run in debug mode")
		return nil, nil
	})

	r := httptest.NewRequest("GET", "/x", nil)
	rc := app.NewContext(r)
	_, err := app.Do(rc)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom propagated unconverted", err)
	}
	if !rc.Retained() {
		t.Fatal("context should be retained after debug-mode fault")
	}
	if depth := requestStack.Depth(); depth != 1 {
		t.Fatalf("stack depth = %d, want 1 (context retained)", depth)
	}

	// The post-mortem view: ambient proxies still resolve to rc.
	if got := CurrentRequest.MustGet(); got != rc.Request {
		t.Fatal("retained context not observable through proxy")
	}

	rc.Release()
	assertBalanced(t)
}

func TestRelease_WrongGoroutineIsNoOp(t *testing.T) {
	app := newTestApp()
	app.Debug = true
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return nil, errors.New("boom")
	})

	rc := app.NewContext(httptest.NewRequest("GET", "/x", nil))
	_, _ = app.Do(rc)
	if !rc.Retained() {
		t.Fatal("context should be retained after debug-mode fault")
	}

	// The stack is goroutine-local; another goroutine sees its own
	// (empty) stack, so its Release must leave rc untouched.
	done := make(chan struct{})
	go func() {
		defer close(done)
		rc.Release()
	}()
	<-done

	if !rc.Retained() {
		t.Fatal("cross-goroutine Release must not clear retention")
	}
	if depth := requestStack.Depth(); depth != 1 {
		t.Fatalf("stack depth = %d, want 1 (still retained)", depth)
	}

	rc.Release()
	assertBalanced(t)
}

func TestDispatch_PanicBecomesFault(t *testing.T) {
	app := newTestApp()
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		panic("kaboom")
	})

	// Debug off, no 500 handler: the fault propagates, context popped.
	_, err := doRequest(t, app, "GET", "/x")
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
	if pe.Value != "kaboom" || len(pe.Stack) == 0 {
		t.Fatalf("PanicError = %+v, want value and stack", pe)
	}
	assertBalanced(t)
}

func TestDispatch_ErrorHandlerPanicStillExits(t *testing.T) {
	app := newTestApp()
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return nil, httperr.New(http.StatusTeapot, "short and stout")
	})
	app.HandleError(http.StatusTeapot, func(*RequestContext, error) (any, error) {
		panic("handler down")
	})

	_, err := doRequest(t, app, "GET", "/x")
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
	if pe.Value != "handler down" {
		t.Fatalf("PanicError value = %v", pe.Value)
	}
	assertBalanced(t)
}

func TestDispatch_AfterHookPanicStillExits(t *testing.T) {
	app := newTestApp()
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return "hi", nil
	})
	app.After(func(*RequestContext, *Response) (*Response, error) {
		panic("late crash")
	})

	_, err := doRequest(t, app, "GET", "/x")
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
	if pe.Value != "late crash" || len(pe.Stack) == 0 {
		t.Fatalf("PanicError = %+v, want value and stack", pe)
	}
	assertBalanced(t)
}

func TestDispatch_BeforeHookShortCircuits(t *testing.T) {
	app := newTestApp()
	handlerRan := false
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		handlerRan = true
		return "handler", nil
	})
	app.Before(func(rc *RequestContext) (any, error) { return nil, nil })
	app.Before(func(rc *RequestContext) (any, error) { return "hook wins", nil })

	resp, err := doRequest(t, app, "GET", "/x")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "hook wins" {
		t.Fatalf("body = %q", resp.Body)
	}
	if handlerRan {
		t.Fatal("handler ran despite hook short-circuit")
	}
	assertBalanced(t)
}

func TestDispatch_AfterHooksRunInOrder(t *testing.T) {
	app := newTestApp()
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return "body", nil
	})
	app.After(func(rc *RequestContext, resp *Response) (*Response, error) {
		resp.Header.Set("X-First", "1")
		return resp, nil
	})
	app.After(func(rc *RequestContext, resp *Response) (*Response, error) {
		// Substitute a new response; the first hook's header must carry.
		sub := NewResponse(append(resp.Body, '!'), DefaultContentType)
		sub.Header = resp.Header
		return sub, nil
	})

	resp, err := doRequest(t, app, "GET", "/x")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "body!" {
		t.Fatalf("body = %q", resp.Body)
	}
	if resp.Header.Get("X-First") != "1" {
		t.Fatal("first after hook's header lost")
	}
	assertBalanced(t)
}

func TestDispatch_SessionSavedWhenModified(t *testing.T) {
	app := newTestApp()
	app.Sessions = session.NewCookieStore([]byte("secret"), "")
	app.Get("/login", "login", func(rc *RequestContext, _ map[string]string) (any, error) {
		rc.Session.Set("user", "armin")
		return "ok", nil
	})
	app.Get("/ping", "ping", func(*RequestContext, map[string]string) (any, error) {
		return "pong", nil
	})

	resp, err := doRequest(t, app, "GET", "/login")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Header.Get("Set-Cookie") == "" {
		t.Fatal("modified session not saved onto response")
	}

	// Untouched session: no cookie written.
	resp, err = doRequest(t, app, "GET", "/ping")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Header.Get("Set-Cookie") != "" {
		t.Fatal("unmodified session should not write a cookie")
	}
	assertBalanced(t)
}

func TestDispatch_HandBuiltResponseWithSession(t *testing.T) {
	app := newTestApp()
	app.Sessions = session.NewCookieStore([]byte("secret"), "")
	app.Get("/x", "x", func(rc *RequestContext, _ map[string]string) (any, error) {
		rc.Session.Set("user", "armin")
		// Literal response without a header map; the save must still
		// find somewhere to write the cookie.
		return &Response{Status: http.StatusOK, Body: []byte("ok")}, nil
	})

	resp, err := doRequest(t, app, "GET", "/x")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Header.Get("Set-Cookie") == "" {
		t.Fatal("modified session not saved onto hand-built response")
	}
	assertBalanced(t)
}

func TestDispatch_TypeMismatchFailsFast(t *testing.T) {
	app := newTestApp()
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return struct{ X int }{1}, nil
	})

	_, err := doRequest(t, app, "GET", "/x")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
	assertBalanced(t)
}

func TestServeHTTP_ProductionFailurePage(t *testing.T) {
	app := newTestApp()
	app.Get("/x", "x", func(*RequestContext, map[string]string) (any, error) {
		return nil, fmt.Errorf("storage offline")
	})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "storage offline") {
		t.Fatal("production failure page must not leak the fault")
	}
	assertBalanced(t)
}
