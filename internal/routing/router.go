// internal/routing/router.go
//
// Routing collaborator built on the chi trie.
//
// Context
// -------
// The dispatcher needs exactly three operations from routing: register a
// rule, match an inbound call to (endpoint, params), and build a URL
// back from (endpoint, params).  Mux wraps a chi router used purely as
// a matcher—no handlers are ever served through it—and keeps its own
// rule table for method-not-allowed detection and URL building.
//
// Match semantics
// ---------------
//   • exact hit                         → endpoint + path params
//   • path known under another method   → 405
//   • "/x" missing but "/x/" registered → 308 redirect to "/x/"
//   • otherwise                         → 404
//
// The trailing-slash redirect mirrors the usual web-server treatment of
// directories: a rule that ends with a slash also answers the bare
// path, via redirect, so each URL stays unique.
//
// Notes
// -----
// • Mux is not safe for concurrent Add; register all rules before
//   serving.  Match and Build are read-only and safe concurrently.
// • Oxford commas, two spaces after periods.

package routing

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/flint/internal/httperr"
)

// rule records one registered pattern for 405 checks and URL building.
type rule struct {
	method   string
	pattern  string
	endpoint string
}

// Mux implements the routing collaborator.
type Mux struct {
	chi       *chi.Mux
	rules     []rule
	endpoints map[string]rule   // "METHOD pattern" → rule
	byName    map[string]string // endpoint → pattern (first wins)
}

// noop satisfies chi's requirement that every pattern has a handler.
var noop = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

// New returns an empty Mux.
func New() *Mux {
	return &Mux{
		chi:       chi.NewMux(),
		endpoints: make(map[string]rule),
		byName:    make(map[string]string),
	}
}

// Add registers pattern under method for endpoint.  Patterns use chi
// syntax: "/user/{name}", "/post/{id:[0-9]+}".
func (m *Mux) Add(method, pattern, endpoint string) {
	method = strings.ToUpper(method)
	m.chi.Method(method, pattern, noop)
	r := rule{method: method, pattern: pattern, endpoint: endpoint}
	m.rules = append(m.rules, r)
	m.endpoints[method+" "+pattern] = r
	if _, ok := m.byName[endpoint]; !ok {
		m.byName[endpoint] = pattern
	}
}

// Match resolves method + path to (endpoint, params).  Fails with a 404,
// 405, or 308 fault as described in the header.
func (m *Mux) Match(method, path string) (string, map[string]string, error) {
	method = strings.ToUpper(method)

	rctx := chi.NewRouteContext()
	if m.chi.Match(rctx, method, path) {
		key := method + " " + rctx.RoutePattern()
		r, ok := m.endpoints[key]
		if !ok {
			return "", nil, httperr.NotFound(path)
		}
		return r.endpoint, urlParams(rctx), nil
	}

	// Same path under a different method?
	for _, r := range m.rules {
		if r.method == method {
			continue
		}
		probe := chi.NewRouteContext()
		if m.chi.Match(probe, r.method, path) {
			return "", nil, httperr.MethodNotAllowed(method)
		}
	}

	// Slash-terminated rule answering the bare path.
	if !strings.HasSuffix(path, "/") {
		probe := chi.NewRouteContext()
		if m.chi.Match(probe, method, path+"/") {
			return "", nil, httperr.Redirect(path + "/")
		}
	}

	return "", nil, httperr.NotFound(path)
}

// Build renders the URL for endpoint from params.  Params not consumed
// by the pattern become query arguments.
func (m *Mux) Build(endpoint string, params map[string]string) (string, error) {
	pattern, ok := m.byName[endpoint]
	if !ok {
		return "", fmt.Errorf("routing: unknown endpoint %q", endpoint)
	}

	leftover := make(url.Values)
	for k, v := range params {
		leftover.Set(k, v)
	}

	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := seg[1 : len(seg)-1]
		if j := strings.IndexByte(name, ':'); j != -1 {
			name = name[:j] // strip the regex qualifier
		}
		v, ok := params[name]
		if !ok {
			return "", fmt.Errorf("routing: endpoint %q needs param %q", endpoint, name)
		}
		segs[i] = url.PathEscape(v)
		leftover.Del(name)
	}

	built := strings.Join(segs, "/")
	if len(leftover) > 0 {
		built += "?" + leftover.Encode()
	}
	return built, nil
}

// urlParams copies chi's parallel key/value slices into a map.
func urlParams(rctx *chi.Context) map[string]string {
	if len(rctx.URLParams.Keys) == 0 {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" {
			continue
		}
		params[k] = rctx.URLParams.Values[i]
	}
	return params
}
