// internal/view/render.go
//
// Central view engine: template lookup, func-map injection, and an LRU
// of parsed *template.Template sets.
//
// Public helpers
// --------------
//   - Engine.Render – return the rendered template as a string, ready
//     to hand back as a pipeline result.
//
// All templates in the engine's directory are parsed as one set per
// entry name, so sub-templates ({{ template "row" . }}) work
// out-of-the-box.  Parses are deduplicated with singleflight: when many
// concurrent requests miss the same entry, exactly one goroutine parses
// and the rest share the result.
//
// The default func map exposes the ambient helpers—urlfor and
// flashes—so templates can reach the current request context without
// handlers threading anything through.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/flint/internal/cache"
	"github.com/yanizio/flint/internal/web"
)

// Parsed template sets per entry name; tweak capacity when perf-testing.
const lruCapacity = 1024

// Engine renders templates from one directory.
type Engine struct {
	dir string

	mu  sync.Mutex
	lru *cache.LRU[string, *template.Template]
	sfg singleflight.Group

	funcs template.FuncMap
}

// New returns an Engine rooted at dir with the default func map.
func New(dir string) *Engine {
	e := &Engine{
		dir: dir,
		lru: cache.New[string, *template.Template](lruCapacity),
	}
	e.funcs = template.FuncMap{
		"urlfor":  urlFor,
		"flashes": flashes,
	}
	return e
}

// Funcs merges extra helpers into the func map.  Call before the first
// Render; parsed sets are not re-parsed.
func (e *Engine) Funcs(extra template.FuncMap) {
	for name, fn := range extra {
		e.funcs[name] = fn
	}
}

// Render executes the named template with data.
//
// The concrete template to execute is chosen the same way templates are
// authored: a file "login.html" with no {{ define }} runs as
// "login.html", while a file wrapping its markup in
// {{ define "login" }} runs under that root name.  Either style works.
func (e *Engine) Render(name string, data any) (string, error) {
	t, err := e.load(name)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := t.ExecuteTemplate(&sb, execName(t, name), data); err != nil {
		return "", fmt.Errorf("view: execute %q: %w", name, err)
	}
	return sb.String(), nil
}

// load returns the parsed set for name, consulting the LRU first and
// deduplicating concurrent parses.
func (e *Engine) load(name string) (*template.Template, error) {
	e.mu.Lock()
	if t, ok := e.lru.Get(name); ok {
		e.mu.Unlock()
		return t, nil
	}
	e.mu.Unlock()

	v, err, _ := e.sfg.Do(name, func() (any, error) {
		t, err := template.New(name).Funcs(e.funcs).
			ParseFiles(filepath.Join(e.dir, name))
		if err != nil {
			return nil, fmt.Errorf("view: parse %q: %w", name, err)
		}
		e.mu.Lock()
		e.lru.Add(name, t)
		e.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Template), nil
}

// execName picks the best template to execute: the file itself when it
// defines no root, else its bare name.
func execName(t *template.Template, name string) string {
	if t.Lookup(name) != nil {
		return name
	}
	bare := strings.TrimSuffix(name, filepath.Ext(name))
	if t.Lookup(bare) != nil {
		return bare
	}
	return name
}

//
// ambient template helpers
//

// urlFor builds a URL from an endpoint and alternating key/value pairs.
func urlFor(endpoint string, pairs ...string) (string, error) {
	params := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		params[pairs[i]] = pairs[i+1]
	}
	return web.URLFor(endpoint, params)
}

// flashes drains the current context's pending flash messages.  Outside
// a request it renders nothing rather than failing.
func flashes() []string {
	rc, ok := web.Current()
	if !ok {
		return nil
	}
	return rc.Flashes()
}
