// internal/proxy/proxy.go
//
// Forwarding handles for goroutine-local values.
//
// Context
// -------
// Ambient values like "the current request" are exposed as package-level
// handles, but what they point at changes whenever a context is torn
// down or a new one is bound.  A Proxy therefore re-resolves its target
// on every operation; it never caches a resolution across calls.
//
// Go has no dynamic attribute interception, so forwarding is explicit:
// Get returns the live target (callers then touch fields and methods on
// it directly, mutating the target in place, never rebinding the
// proxy), MustGet panics on an unbound handle, and Bound and String
// degrade instead of failing so the handle stays safe in logging and
// conditionals where an error would be surprising.
//
// Notes
// -----
// • Construct with New (arbitrary resolver) or ForName (store + name).
// • Oxford commas, two spaces after periods.

package proxy

import (
	"errors"
	"fmt"

	"github.com/yanizio/flint/internal/local"
)

// ErrUnbound is returned when a Proxy resolves with nothing bound for
// the calling goroutine.  It signals a programmer error, except through
// Bound and String, which degrade deliberately.
var ErrUnbound = errors.New("proxy: unbound context")

// Proxy forwards to a target resolved freshly per operation.
type Proxy[T any] struct {
	name    string
	resolve func() (T, bool)
}

// New builds a Proxy from an arbitrary resolver.  The resolver reports
// ok == false when nothing is bound for the calling goroutine.
func New[T any](name string, resolve func() (T, bool)) *Proxy[T] {
	return &Proxy[T]{name: name, resolve: resolve}
}

// ForName builds a Proxy over a Store binding.  Resolution fails when
// the calling goroutine has no binding under name, or when the bound
// value is not a T.
func ForName[T any](store *local.Store, name string) *Proxy[T] {
	return &Proxy[T]{
		name: name,
		resolve: func() (T, bool) {
			v, err := store.Get(name)
			if err != nil {
				var zero T
				return zero, false
			}
			t, ok := v.(T)
			return t, ok
		},
	}
}

// Get resolves and returns the current target.  Fails with ErrUnbound
// when nothing is bound for the calling goroutine.
func (p *Proxy[T]) Get() (T, error) {
	v, ok := p.resolve()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrUnbound, p.name)
	}
	return v, nil
}

// MustGet resolves the current target or panics with ErrUnbound.  Use
// inside a request pipeline, where a binding is guaranteed.
func (p *Proxy[T]) MustGet() T {
	v, ok := p.resolve()
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrUnbound, p.name))
	}
	return v
}

// Bound reports whether the Proxy currently resolves.  This is the
// truthiness degradation: unbound yields false, never an error.
func (p *Proxy[T]) Bound() bool {
	_, ok := p.resolve()
	return ok
}

// String renders the live target, or a placeholder when unbound, so a
// Proxy can always be logged.
func (p *Proxy[T]) String() string {
	v, ok := p.resolve()
	if !ok {
		return fmt.Sprintf("<unbound %s>", p.name)
	}
	return fmt.Sprintf("%v", v)
}
