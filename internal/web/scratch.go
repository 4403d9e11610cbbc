// internal/web/scratch.go
//
// Per-request scratchpad.
//
// Context
// -------
// Scratch is the free-form bag a request's hooks and handlers share:
// the "open a DB handle in a before hook, use it in the view" slot.  It
// is created fresh per call, never survives the request, and is reached
// through the ambient G proxy.  Dynamic attribute access becomes
// explicit Get/Set/Delete plus a couple of typed getters.
//
// A mutex guards the map.  A request pipeline is sequential, but a
// handler may fan work out to helper goroutines that share the same
// scratchpad.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package web

import "sync"

// Scratch is a request-scoped key/value bag.
type Scratch struct {
	mu   sync.Mutex
	vals map[string]any
}

// NewScratch returns an empty scratchpad.
func NewScratch() *Scratch {
	return &Scratch{vals: make(map[string]any)}
}

// Get returns the value under key and whether it exists.
func (g *Scratch) Get(key string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vals[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (g *Scratch) GetString(key string) (string, bool) {
	v, ok := g.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set binds value under key.
func (g *Scratch) Set(key string, value any) {
	g.mu.Lock()
	g.vals[key] = value
	g.mu.Unlock()
}

// Delete removes key; absent keys are a no-op.
func (g *Scratch) Delete(key string) {
	g.mu.Lock()
	delete(g.vals, key)
	g.mu.Unlock()
}

// Len reports the number of stored keys.
func (g *Scratch) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.vals)
}
