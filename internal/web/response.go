// internal/web/response.go
//
// Canonical response and the pipeline-result coercion table.
//
// Context
// -------
// Handlers, hooks, and error handlers may return several shapes; the
// dispatcher normalises them all into *Response before post-processing.
// Precedence, first match wins:
//
//   *Response        – used as-is
//   *httperr.Error   – the fault's canonical rendering
//   string, []byte   – body with the app's default content type
//   []any            – positional parts: body, then an int status
//                      and/or an http.Header
//   http.Handler     – invoked against a buffer and captured
//
// Anything else fails fast with ErrTypeMismatch, including a nil
// result.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package web

import (
	"fmt"
	"net/http"

	"github.com/yanizio/flint/internal/httperr"
)

// Response is the single canonical response shape sent per call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse returns a 200 response with body and contentType.
func NewResponse(body []byte, contentType string) *Response {
	h := make(http.Header, 2)
	h.Set("Content-Type", contentType)
	return &Response{Status: http.StatusOK, Header: h, Body: body}
}

// Write sends the response over w.  A zero Status means 200.
func (r *Response) Write(w http.ResponseWriter) {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(r.Body)
}

// makeResponse coerces a pipeline result into a *Response.
func (app *App) makeResponse(rc *RequestContext, rv any) (*Response, error) {
	switch v := rv.(type) {
	case *Response:
		// Hand-built responses may carry a nil header map; the session
		// save and after hooks write into it, so materialise it here.
		if v.Header == nil {
			v.Header = make(http.Header)
		}
		return v, nil
	case *httperr.Error:
		return renderFault(v), nil
	case string:
		return NewResponse([]byte(v), app.defaultContentType()), nil
	case []byte:
		return NewResponse(v, app.defaultContentType()), nil
	case []any:
		return app.assembleParts(v)
	case http.Handler:
		return bufferHandler(v, rc.Request.Request), nil
	case nil:
		return nil, fmt.Errorf("%w: handler returned nothing", ErrTypeMismatch)
	default:
		return nil, fmt.Errorf("%w: %T", ErrTypeMismatch, rv)
	}
}

// assembleParts builds a response from an ordered tuple: a body part
// first, then an int status and/or an http.Header in either order.
func (app *App) assembleParts(parts []any) (*Response, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty response tuple", ErrTypeMismatch)
	}

	var resp *Response
	switch body := parts[0].(type) {
	case string:
		resp = NewResponse([]byte(body), app.defaultContentType())
	case []byte:
		resp = NewResponse(body, app.defaultContentType())
	case *Response:
		if body.Header == nil {
			body.Header = make(http.Header)
		}
		resp = body
	default:
		return nil, fmt.Errorf("%w: tuple body %T", ErrTypeMismatch, parts[0])
	}

	for _, part := range parts[1:] {
		switch p := part.(type) {
		case int:
			resp.Status = p
		case http.Header:
			for k, vs := range p {
				for _, v := range vs {
					resp.Header.Add(k, v)
				}
			}
		case map[string]string:
			for k, v := range p {
				resp.Header.Set(k, v)
			}
		default:
			return nil, fmt.Errorf("%w: tuple part %T", ErrTypeMismatch, part)
		}
	}
	return resp, nil
}

// renderFault produces the canonical representation of an HTTP-class
// fault: a small HTML page, plus a Location header on redirects.
func renderFault(e *httperr.Error) *Response {
	h := make(http.Header, 2)
	h.Set("Content-Type", DefaultContentType)
	if e.Location != "" {
		h.Set("Location", e.Location)
	}

	title := fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	body := "<!doctype html>\n<title>" + title + "</title>\n<h1>" + title + "</h1>\n"
	if e.Message != "" {
		body += "<p>" + e.Message + "</p>\n"
	}
	return &Response{Status: e.Code, Header: h, Body: []byte(body)}
}

// bufferHandler runs a raw http.Handler against an in-memory writer and
// captures its output as a Response.
func bufferHandler(h http.Handler, r *http.Request) *Response {
	buf := &bufferWriter{header: make(http.Header)}
	h.ServeHTTP(buf, r)
	status := buf.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{Status: status, Header: buf.header, Body: buf.body}
}

// bufferWriter is the minimal ResponseWriter behind bufferHandler.
type bufferWriter struct {
	header http.Header
	status int
	body   []byte
}

func (b *bufferWriter) Header() http.Header { return b.header }

func (b *bufferWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	b.body = append(b.body, p...)
	return len(p), nil
}
