// internal/web/request.go
//
// Per-call request object.
//
// Request wraps the inbound *http.Request and remembers the matched
// endpoint and path parameters once routing has resolved them, so hooks
// and templates can ask "where am I" without re-matching.  Info carries
// best-effort client metadata (user agent, geolocation) collected at
// construction.

package web

import (
	"net/http"

	"github.com/yanizio/flint/internal/requestinfo"
)

// Request is created once per call and owned by its RequestContext.
type Request struct {
	*http.Request

	// Endpoint and Params are filled by the dispatcher after a
	// successful route match; empty until then.
	Endpoint string
	Params   map[string]string

	// Info is best-effort enrichment; fields may be zero.
	Info *requestinfo.Info
}

func newRequest(r *http.Request) *Request {
	return &Request{Request: r, Info: requestinfo.Collect(r)}
}
